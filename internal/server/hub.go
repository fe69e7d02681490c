package server

import (
	"bufio"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/sssg/internal/logfields"
	"git.home.luguber.info/inful/sssg/internal/metrics"
)

const (
	// ConnectedMessage is the first payload of every session.
	ConnectedMessage = "CONNECTED"
	// ReloadMessage tells the browser to reload the page.
	ReloadMessage = "RELOAD"

	defaultHeartbeat = 30 * time.Second
	sessionBuffer    = 8
)

// LiveReloadHub manages server-sent event sessions for reload broadcasts.
type LiveReloadHub struct {
	mu        sync.RWMutex
	nextID    int
	sessions  map[int]*session
	closed    bool
	heartbeat time.Duration
	recorder  metrics.Recorder
	logger    *slog.Logger
}

type session struct {
	id   int
	ch   chan string
	done chan struct{}
}

func NewLiveReloadHub(recorder metrics.Recorder, logger *slog.Logger) *LiveReloadHub {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveReloadHub{
		sessions:  map[int]*session{},
		heartbeat: defaultHeartbeat,
		recorder:  recorder,
		logger:    logger,
	}
}

// Count returns the number of open sessions.
func (h *LiveReloadHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *LiveReloadHub) register() (*session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	s := &session{id: h.nextID, ch: make(chan string, sessionBuffer), done: make(chan struct{})}
	h.nextID++
	h.sessions[s.id] = s
	h.recorder.SetLiveReloadSessions(len(h.sessions))
	return s, true
}

func (h *LiveReloadHub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[id]; ok {
		delete(h.sessions, id)
		close(s.done)
		h.recorder.SetLiveReloadSessions(len(h.sessions))
	}
}

// ServeHTTP streams events to one browser session until it disconnects or
// the hub shuts down.
func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	s, ok := h.register()
	if !ok {
		http.Error(w, "live reload shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.remove(s.id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	bw := bufio.NewWriter(w)
	send := func(chunk string) bool {
		if _, err := bw.WriteString(chunk); err != nil {
			h.logger.Debug("Live reload write failed", logfields.Error(err))
			return false
		}
		if err := bw.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}
	if !send("data: " + ConnectedMessage + "\n\n") {
		return
	}

	hb := time.NewTicker(h.heartbeat)
	defer hb.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.done:
			return
		case <-hb.C:
			if !send(": ping\n\n") {
				return
			}
		case msg := <-s.ch:
			if !send("data: " + msg + "\n\n") {
				return
			}
		}
	}
}

// Broadcast sends msg to every session. Sessions whose buffer is full are
// pruned instead of blocking the caller.
func (h *LiveReloadHub) Broadcast(msg string) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return
	}
	snapshot := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		snapshot = append(snapshot, s)
	}
	h.mu.RUnlock()

	dropped := 0
	for _, s := range snapshot {
		select {
		case s.ch <- msg:
		default:
			dropped++
			h.remove(s.id)
			h.recorder.IncSessionsDropped()
		}
	}
	h.recorder.IncReloadBroadcast()
	h.logger.Debug("Live reload broadcast",
		slog.String("message", msg),
		logfields.Sessions(len(snapshot)),
		slog.Int("dropped", dropped))
}

// Shutdown closes every session and refuses new ones.
func (h *LiveReloadHub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	sessions := h.sessions
	h.sessions = map[int]*session{}
	h.mu.Unlock()

	for _, s := range sessions {
		close(s.done)
	}
	h.recorder.SetLiveReloadSessions(0)
}
