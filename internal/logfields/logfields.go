package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyBuildKind  = "build_kind"
	KeyReason     = "reason"
	KeyPath       = "path"
	KeyOutput     = "output"
	KeySubtree    = "subtree"
	KeyOp         = "op"
	KeyCount      = "count"
	KeySessions   = "sessions"
	KeyPort       = "port"
	KeyDurationMS = "duration_ms"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
	KeyState      = "state"
	KeyError      = "error"
)

func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func BuildKind(k string) slog.Attr     { return slog.String(KeyBuildKind, k) }
func Reason(r string) slog.Attr        { return slog.String(KeyReason, r) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Output(p string) slog.Attr        { return slog.String(KeyOutput, p) }
func Subtree(s string) slog.Attr       { return slog.String(KeySubtree, s) }
func Op(o string) slog.Attr            { return slog.String(KeyOp, o) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Sessions(n int) slog.Attr         { return slog.Int(KeySessions, n) }
func Port(p int) slog.Attr             { return slog.Int(KeyPort, p) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }
func State(s string) slog.Attr         { return slog.String(KeyState, s) }

// Duration renders d in fractional milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
