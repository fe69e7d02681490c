// Package server is the development HTTP server.
//
// It serves the output tree, injects a live-reload client into HTML pages and
// streams RELOAD events to open browser sessions after every successful
// build. Requests only ever read the output tree on disk; the build store is
// never touched here.
package server

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/sssg/internal/events"
	"git.home.luguber.info/inful/sssg/internal/logfields"
	"git.home.luguber.info/inful/sssg/internal/metrics"
)

// Options configures a Server.
type Options struct {
	Root         string
	Host         string
	Port         int
	PortAttempts int
	LiveReload   bool
	// Metrics is mounted at MetricsPath when non-nil.
	Metrics     http.Handler
	MetricsPath string
	Recorder    metrics.Recorder
	Logger      *slog.Logger
}

// Server serves the output tree.
type Server struct {
	opts   Options
	router *chi.Mux
	hub    *LiveReloadHub
	http   *http.Server
	ln     net.Listener
	logger *slog.Logger
}

// New builds the router. Nothing listens until Start.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	s := &Server{
		opts:   opts,
		router: chi.NewRouter(),
		hub:    NewLiveReloadHub(opts.Recorder, opts.Logger),
		logger: opts.Logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger(s.logger))

	if s.opts.LiveReload {
		s.router.Get(ReloadPath, s.hub.ServeHTTP)
	}
	if s.opts.Metrics != nil && s.opts.MetricsPath != "" {
		s.router.Handle(s.opts.MetricsPath, s.opts.Metrics)
	}
	s.router.Get("/*", s.serveFile)
	s.router.Head("/*", s.serveFile)
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the live-reload hub.
func (s *Server) Hub() *LiveReloadHub { return s.hub }

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	file, ok := resolve(s.opts.Root, r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		s.logger.Warn("Failed to read output file", logfields.Path(file), logfields.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	ctype := mime.TypeByExtension(filepath.Ext(file))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	if s.opts.LiveReload && strings.HasPrefix(ctype, "text/html") {
		data = InjectScript(data)
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("Write response failed", logfields.Path(r.URL.Path), logfields.Error(err))
	}
}

// Start binds the first free port in the configured range and serves in the
// background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := listen(ctx, s.opts.Host, s.opts.Port, portPolicy(s.opts.PortAttempts, portBackoff), s.logger)
	if err != nil {
		return err
	}
	s.ln = ln
	// No write timeout: event streams stay open indefinitely.
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Dev server stopped", logfields.Error(err))
		}
	}()
	s.logger.Info("Dev server listening", slog.String("url", "http://"+ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// ReloadOn broadcasts RELOAD after every successful build published on bus,
// until ctx is done.
func (s *Server) ReloadOn(ctx context.Context, bus *events.Bus) {
	ch, unsubscribe := events.Subscribe[events.BuildCompleted](bus, 16)
	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				if evt.Succeeded() {
					s.hub.Broadcast(ReloadMessage)
				}
			}
		}
	}()
}

// Shutdown closes live-reload sessions and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Shutdown()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
