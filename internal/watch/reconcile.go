package watch

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// FullRequester accepts full rebuild requests. *Dispatcher implements it.
type FullRequester interface {
	RequestFull(reason string)
}

// Reconciler periodically requests a full rebuild so outputs orphaned by
// missed events get pruned.
type Reconciler struct {
	scheduler gocron.Scheduler
}

// StartReconciler schedules a full rebuild request every interval.
func StartReconciler(interval time.Duration, target FullRequester) (*Reconciler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { target.RequestFull("periodic reconcile") }),
		gocron.WithName("reconcile-full-build"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create reconcile job: %w", err)
	}
	s.Start()
	slog.Info("Scheduled periodic reconcile", slog.Duration("interval", interval))
	return &Reconciler{scheduler: s}, nil
}

// Stop shuts the scheduler down.
func (r *Reconciler) Stop() error {
	return r.scheduler.Shutdown()
}
