package events

import "time"

// BuildCompleted is published after every full or targeted build, whether it
// succeeded or not. Err is nil on success.
type BuildCompleted struct {
	BuildID  string
	Kind     string
	Reason   string
	Rendered int
	Skipped  int
	Duration time.Duration
	Err      error
	At       time.Time
}

// Succeeded reports whether the build produced a complete output tree.
func (e BuildCompleted) Succeeded() bool { return e.Err == nil }
