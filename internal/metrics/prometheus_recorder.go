package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sssg"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	buildDuration   *prom.HistogramVec
	buildOutcome    *prom.CounterVec
	filesRendered   *prom.CounterVec
	filesSkipped    prom.Counter
	watchEvents     *prom.CounterVec
	sessions        prom.Gauge
	broadcasts      prom.Counter
	sessionsDropped prom.Counter
}

// NewPrometheusRecorder constructs and registers the metrics on reg. A nil
// registry gets a fresh private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		buildDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Build duration by kind (full or targeted)",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by kind and final status",
		}, []string{"kind", "outcome"}),
		filesRendered: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_rendered_total",
			Help:      "Source files rendered or copied into the output tree",
		}, []string{"kind"}),
		filesSkipped: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_skipped_total",
			Help:      "Source files skipped because they vanished before rendering",
		}),
		watchEvents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "watch_events_total",
			Help:      "Filesystem events received by subtree and operation",
		}, []string{"subtree", "op"}),
		sessions: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "livereload_sessions",
			Help:      "Open live-reload sessions",
		}),
		broadcasts: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "livereload_broadcasts_total",
			Help:      "Reload notifications broadcast to sessions",
		}),
		sessionsDropped: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "livereload_sessions_dropped_total",
			Help:      "Sessions pruned because their buffer was full",
		}),
	}
	reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.filesRendered, pr.filesSkipped,
		pr.watchEvents, pr.sessions, pr.broadcasts, pr.sessionsDropped)
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(kind string, d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(kind string, outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(kind, string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddFilesRendered(kind string, n int) {
	if p == nil {
		return
	}
	p.filesRendered.WithLabelValues(kind).Add(float64(n))
}

func (p *PrometheusRecorder) AddFilesSkipped(n int) {
	if p == nil {
		return
	}
	p.filesSkipped.Add(float64(n))
}

func (p *PrometheusRecorder) IncWatchEvent(subtree, op string) {
	if p == nil {
		return
	}
	p.watchEvents.WithLabelValues(subtree, op).Inc()
}

func (p *PrometheusRecorder) SetLiveReloadSessions(n int) {
	if p == nil {
		return
	}
	p.sessions.Set(float64(n))
}

func (p *PrometheusRecorder) IncReloadBroadcast() {
	if p == nil {
		return
	}
	p.broadcasts.Inc()
}

func (p *PrometheusRecorder) IncSessionsDropped() {
	if p == nil {
		return
	}
	p.sessionsDropped.Inc()
}
