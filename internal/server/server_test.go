package server

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sssg/internal/events"
	ferrors "git.home.luguber.info/inful/sssg/internal/foundation/errors"
)

func writeOutput(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func newTestServer(t *testing.T, liveReload bool) (*Server, *httptest.Server) {
	t.Helper()
	root := t.TempDir()
	writeOutput(t, root, map[string]string{
		"index.html":          "<html><body><h1>home</h1></body></html>",
		"about.html":          "<html><body>about</body></html>",
		"docs/index.html":     "<html><body>docs</body></html>",
		"assets/css/site.css": "body{}",
		"notes.txt":           "plain",
	})
	s := New(Options{Root: root, LiveReload: liveReload})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Hub().Shutdown()
		ts.Close()
	})
	return s, ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServeFile_Routing(t *testing.T) {
	_, ts := newTestServer(t, true)

	tests := []struct {
		name     string
		path     string
		status   int
		ctype    string
		contains string
	}{
		{"exact html", "/about.html", http.StatusOK, "text/html", "about"},
		{"asset", "/assets/css/site.css", http.StatusOK, "text/css", "body{}"},
		{"text", "/notes.txt", http.StatusOK, "text/plain", "plain"},
		{"root index", "/", http.StatusOK, "text/html", "home"},
		{"dir index", "/docs/", http.StatusOK, "text/html", "docs"},
		{"extensionless", "/about", http.StatusOK, "text/html", "about"},
		{"missing", "/nope", http.StatusNotFound, "", ""},
		{"dir without slash", "/assets", http.StatusNotFound, "", ""},
		{"escape attempt", "/../../etc/passwd", http.StatusNotFound, "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := get(t, ts.URL+tc.path)
			require.Equal(t, tc.status, resp.StatusCode)
			if tc.ctype != "" {
				require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), tc.ctype), resp.Header.Get("Content-Type"))
			}
			require.Contains(t, body, tc.contains)
		})
	}
}

func TestServeFile_InjectsOnlyIntoHTML(t *testing.T) {
	_, ts := newTestServer(t, true)

	_, html := get(t, ts.URL+"/about")
	require.Contains(t, html, ReloadPath)
	require.Less(t, strings.Index(html, "<script>"), strings.Index(html, "</body>"))

	_, css := get(t, ts.URL+"/assets/css/site.css")
	require.Equal(t, "body{}", css)
}

func TestServeFile_LiveReloadDisabled(t *testing.T) {
	_, ts := newTestServer(t, false)

	_, html := get(t, ts.URL+"/about.html")
	require.NotContains(t, html, ReloadPath)

	resp, _ := get(t, ts.URL+ReloadPath)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInjectScript(t *testing.T) {
	out := string(InjectScript([]byte("<html><BODY>x</BODY></html>")))
	require.True(t, strings.HasSuffix(out, "</BODY></html>"))
	require.Contains(t, out, "EventSource")

	out = string(InjectScript([]byte("<p>fragment</p>")))
	require.True(t, strings.HasPrefix(out, "<p>fragment</p><script>"))
}

func TestInjectScript_NonASCIIContent(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"latin1 bytes", strings.Repeat("\xe9", 20)},
		{"case-changing runes", strings.Repeat("İ", 10)},
		{"mixed", "caf\xe9 İstanbul ẞ"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := "<html><body>" + tc.body + "</BODY></html>"
			var out string
			require.NotPanics(t, func() { out = string(InjectScript([]byte(in))) })
			require.Equal(t, "<html><body>"+tc.body+reloadScript+"</BODY></html>", out)
		})
	}
}

func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(line, "data: "); ok {
			return after
		}
	}
}

func TestLiveReload_ConnectAndBroadcast(t *testing.T) {
	s, ts := newTestServer(t, true)

	resp, err := http.Get(ts.URL + ReloadPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	require.Equal(t, ConnectedMessage, readEvent(t, r))
	require.Eventually(t, func() bool { return s.Hub().Count() == 1 }, time.Second, 5*time.Millisecond)

	s.Hub().Broadcast(ReloadMessage)
	require.Equal(t, ReloadMessage, readEvent(t, r))
}

func TestLiveReload_ReloadOnBuildEvents(t *testing.T) {
	s, ts := newTestServer(t, true)
	bus := events.NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.ReloadOn(ctx, bus)

	resp, err := http.Get(ts.URL + ReloadPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	r := bufio.NewReader(resp.Body)
	require.Equal(t, ConnectedMessage, readEvent(t, r))
	require.Eventually(t, func() bool { return s.Hub().Count() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, bus.Publish(ctx, events.BuildCompleted{BuildID: "b1", Kind: "full"}))
	require.Equal(t, ReloadMessage, readEvent(t, r))
}

func TestHub_PrunesSaturatedSessions(t *testing.T) {
	h := NewLiveReloadHub(nil, nil)
	s, ok := h.register()
	require.True(t, ok)

	for range sessionBuffer {
		h.Broadcast(ReloadMessage)
	}
	require.Equal(t, 1, h.Count())

	h.Broadcast(ReloadMessage)
	require.Equal(t, 0, h.Count())
	select {
	case <-s.done:
	default:
		t.Fatal("pruned session not closed")
	}
}

func TestHub_ShutdownRejectsSessions(t *testing.T) {
	h := NewLiveReloadHub(nil, nil)
	_, ok := h.register()
	require.True(t, ok)

	h.Shutdown()
	require.Equal(t, 0, h.Count())
	_, ok = h.register()
	require.False(t, ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ReloadPath, nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func occupiedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return p
}

func TestListen_FallsBackToNextPort(t *testing.T) {
	busy := occupiedPort(t)

	ln, err := listen(context.Background(), "127.0.0.1", busy, portPolicy(5, time.Millisecond), testLogger())
	require.NoError(t, err)
	defer ln.Close()

	_, port, _ := net.SplitHostPort(ln.Addr().String())
	got, _ := strconv.Atoi(port)
	require.Greater(t, got, busy)
}

func TestListen_ExhaustedRange(t *testing.T) {
	busy := occupiedPort(t)

	_, err := listen(context.Background(), "127.0.0.1", busy, portPolicy(1, time.Millisecond), testLogger())
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryPortUnavailable))
	require.True(t, ferrors.IsFatal(err))
}

func TestServer_StartAndShutdown(t *testing.T) {
	root := t.TempDir()
	writeOutput(t, root, map[string]string{"index.html": "<body>hi</body>"})
	s := New(Options{Root: root, Host: "127.0.0.1", Port: 0, LiveReload: true})

	require.NoError(t, s.Start(context.Background()))
	require.NotEmpty(t, s.Addr())

	resp, body := get(t, "http://"+s.Addr()+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "hi")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}
