package errors

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "ports", err: PortUnavailableError("no port").Build(), expected: 8},
		{name: "io", err: IOError("disk").Build(), expected: 11},
		{name: "ambiguous", err: AmbiguousTemplateError("dup").Build(), expected: 11},
		{name: "unclassified", err: errors.New("unknown"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())
	err := IOError("write output").WithContext("path", "dist/index.html").WithCause(errors.New("disk full")).Build()

	got := adapter.FormatError(err)
	if got != "Error: write output (dist/index.html): disk full" {
		t.Errorf("unexpected message %q", got)
	}

	verbose := NewCLIErrorAdapter(true, slog.Default())
	if got := verbose.FormatError(err); !strings.Contains(got, "[io:fatal]") {
		t.Errorf("expected verbose output to include classification, got %q", got)
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(PortUnavailableError("no free port").WithContext("range", "8000-8010").Build())

	if code != 8 {
		t.Errorf("expected exit code 8, got %d", code)
	}
	if !strings.Contains(out.String(), "no free port") {
		t.Errorf("expected message on output, got %q", out.String())
	}
	if !strings.Contains(logs.String(), "category=port_unavailable") {
		t.Errorf("expected category in log, got %q", logs.String())
	}
}
