package metrics

import "time"

// OutcomeLabel enumerates build outcomes for counters.
type OutcomeLabel string

const (
	OutcomeSuccess OutcomeLabel = "success"
	OutcomeFailed  OutcomeLabel = "failed"
)

// Recorder defines observability hooks for builds, the watcher and the
// live-reload hub. Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveBuildDuration(kind string, d time.Duration)
	IncBuildOutcome(kind string, outcome OutcomeLabel)
	AddFilesRendered(kind string, n int)
	AddFilesSkipped(n int)
	IncWatchEvent(subtree, op string)
	SetLiveReloadSessions(n int)
	IncReloadBroadcast()
	IncSessionsDropped()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(string, time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string, OutcomeLabel)       {}
func (NoopRecorder) AddFilesRendered(string, int)               {}
func (NoopRecorder) AddFilesSkipped(int)                        {}
func (NoopRecorder) IncWatchEvent(string, string)               {}
func (NoopRecorder) SetLiveReloadSessions(int)                  {}
func (NoopRecorder) IncReloadBroadcast()                        {}
func (NoopRecorder) IncSessionsDropped()                        {}
