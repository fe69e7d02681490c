package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_Build(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	out := filepath.Join(dir, "dist")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "pages"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "layouts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "layouts", "Default.html"), []byte("<body><slot></slot></body>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "pages", "about.html"), []byte("<p>about</p>"), 0o644))

	code := run([]string{"--source", src, "--output", out, "build"})
	require.Equal(t, 0, code)

	html, err := os.ReadFile(filepath.Join(out, "about.html"))
	require.NoError(t, err)
	require.Equal(t, "<body><p>about</p></body>", string(html))
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"SRC", "DIST", "SSSG_PORT", "SSSG_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestRun_ExitCodes(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	// An explicitly named config file must exist.
	code := run([]string{"--config", filepath.Join(dir, "missing.yaml"), "build"})
	require.Equal(t, 7, code)

	// Source and output may not be the same directory.
	code = run([]string{"--source", dir, "--output", dir, "build"})
	require.Equal(t, 2, code)

	cfg := filepath.Join(dir, "sssg.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("source: a\noutput: a\n"), 0o644))
	code = run([]string{"--config", cfg, "build"})
	require.Equal(t, 2, code)
}
