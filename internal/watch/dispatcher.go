package watch

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/sssg/internal/build"
	ferrors "git.home.luguber.info/inful/sssg/internal/foundation/errors"
	"git.home.luguber.info/inful/sssg/internal/logfields"
	"git.home.luguber.info/inful/sssg/internal/metrics"
	"git.home.luguber.info/inful/sssg/internal/site"
)

// DefaultDebounce is the quiet window applied to event bursts.
const DefaultDebounce = 100 * time.Millisecond

// State is the dispatcher's position in its state machine.
type State string

const (
	StateIdle       State = "idle"
	StateDebouncing State = "debouncing"
	StateRebuilding State = "rebuilding"
)

// Engine runs builds. *build.Engine implements it.
type Engine interface {
	FullBuild(ctx context.Context, reason string) (build.Report, error)
	Render(ctx context.Context, reason string, t build.Targets) (build.Report, error)
}

// Dispatcher debounces change events and runs the builds they need.
type Dispatcher struct {
	engine   Engine
	paths    site.Paths
	policy   Policy
	debounce time.Duration
	recorder metrics.Recorder
	logger   *slog.Logger

	in    chan Event
	full  chan string
	state atomic.Value
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

func WithPolicy(p Policy) DispatcherOption { return func(d *Dispatcher) { d.policy = p } }

func WithDebounce(window time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if window > 0 {
			d.debounce = window
		}
	}
}

func WithRecorder(r metrics.Recorder) DispatcherOption {
	return func(d *Dispatcher) { d.recorder = r }
}

func WithLogger(l *slog.Logger) DispatcherOption { return func(d *Dispatcher) { d.logger = l } }

func NewDispatcher(engine Engine, paths site.Paths, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		engine:   engine,
		paths:    paths,
		policy:   DefaultPolicy,
		debounce: DefaultDebounce,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		in:       make(chan Event, 256),
		full:     make(chan string, 1),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.state.Store(StateIdle)
	return d
}

// State returns the current state.
func (d *Dispatcher) State() State { return d.state.Load().(State) }

func (d *Dispatcher) setState(s State) {
	if d.State() != s {
		d.logger.Debug("Dispatcher state changed", logfields.State(string(s)))
	}
	d.state.Store(s)
}

// Notify queues ev. It blocks only while the queue is full.
func (d *Dispatcher) Notify(ctx context.Context, ev Event) {
	select {
	case d.in <- ev:
	case <-ctx.Done():
	}
}

// RequestFull asks for a full rebuild in the next batch. Requests made while
// one is already pending are merged.
func (d *Dispatcher) RequestFull(reason string) {
	select {
	case d.full <- reason:
	default:
	}
}

type outcome struct {
	plan Plan
	err  error
}

// Run processes events until ctx is done or a build fails fatally. A fatal
// build error is returned; other build errors are logged and the previous
// output stays in place.
func (d *Dispatcher) Run(ctx context.Context) error {
	var (
		pending     []Event
		fullReasons []string
		timer       *time.Timer
		fire        <-chan time.Time
		done        chan outcome
	)
	arm := func() {
		if timer == nil {
			timer = time.NewTimer(d.debounce)
		} else {
			timer.Reset(d.debounce)
		}
		fire = timer.C
		d.setState(StateDebouncing)
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			if done != nil {
				<-done
			}
			d.setState(StateIdle)
			return nil

		case ev := <-d.in:
			d.recorder.IncWatchEvent(string(d.paths.Classify(ev.Path)), string(ev.Op))
			pending = append(pending, ev)
			if done == nil {
				arm()
			}

		case reason := <-d.full:
			fullReasons = append(fullReasons, reason)
			if done == nil {
				arm()
			}

		case <-fire:
			fire = nil
			plan := PlanBatch(d.paths, d.policy, pending, fullReasons)
			pending, fullReasons = nil, nil
			if plan.Empty() {
				d.setState(StateIdle)
				continue
			}
			d.setState(StateRebuilding)
			done = make(chan outcome, 1)
			go func(ch chan<- outcome) {
				ch <- outcome{plan: plan, err: d.execute(ctx, plan)}
			}(done)

		case res := <-done:
			done = nil
			if res.err != nil {
				if ctx.Err() != nil {
					d.setState(StateIdle)
					return nil
				}
				if ferrors.IsFatal(res.err) {
					d.setState(StateIdle)
					return res.err
				}
				d.logger.Warn("Rebuild failed, keeping previous output",
					logfields.Reason(res.plan.Reason), logfields.Error(res.err))
			}
			if len(pending) > 0 || len(fullReasons) > 0 {
				arm()
			} else {
				d.setState(StateIdle)
			}
		}
	}
}

func (d *Dispatcher) execute(ctx context.Context, plan Plan) error {
	if plan.Full {
		_, err := d.engine.FullBuild(ctx, plan.Reason)
		return err
	}
	_, err := d.engine.Render(ctx, plan.Reason, plan.Targets)
	return err
}
