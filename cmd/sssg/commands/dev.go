package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sssg/internal/build"
	"git.home.luguber.info/inful/sssg/internal/events"
	ferrors "git.home.luguber.info/inful/sssg/internal/foundation/errors"
	"git.home.luguber.info/inful/sssg/internal/logfields"
	"git.home.luguber.info/inful/sssg/internal/metrics"
	"git.home.luguber.info/inful/sssg/internal/server"
	"git.home.luguber.info/inful/sssg/internal/watch"
)

const shutdownTimeout = 5 * time.Second

// DevCmd implements the 'dev' command.
type DevCmd struct {
	Host         string `help:"Interface the dev server binds to (overrides dev.host)"`
	Port         int    `short:"p" help:"First port to try (overrides dev.port)"`
	NoLiveReload bool   `name:"no-live-reload" help:"Disable the reload event stream and script injection"`
}

func (d *DevCmd) Run(g *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if d.Port != 0 {
		g.Config.Dev.Port = d.Port
	}
	if d.Host != "" {
		g.Config.Dev.Host = d.Host
	}
	if d.NoLiveReload {
		off := false
		g.Config.Dev.LiveReload = &off
	}
	return RunDev(ctx, g, nil)
}

// RunDev builds the site, then watches, rebuilds and serves until ctx is
// done or a build fails fatally. ready, when non-nil, receives the server
// address once it is listening.
func RunDev(ctx context.Context, g *Global, ready chan<- string) error {
	cfg := g.Config
	logger := g.Logger
	paths, err := g.paths()
	if err != nil {
		return err
	}
	if err := paths.EnsureSourceTree(); err != nil {
		return err
	}

	bus := events.NewBus()
	defer bus.Close()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var registry *prom.Registry
	if cfg.Metrics.Enabled {
		registry = metrics.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	opts := []build.Option{build.WithLogger(logger), build.WithBus(bus), build.WithRecorder(recorder)}
	j, err := g.openJournal()
	if err != nil {
		return err
	}
	defer closeJournal(j, logger)
	if j != nil {
		opts = append(opts, build.WithJournal(j))
	}
	engine := build.NewEngine(paths, opts...)

	if _, err := engine.FullBuild(ctx, "initial build"); err != nil {
		if ferrors.IsFatal(err) {
			return err
		}
		logger.Warn("Initial build failed; serving previous output", logfields.Error(err))
	}

	srvOpts := server.Options{
		Root:         paths.Output,
		Host:         cfg.Dev.Host,
		Port:         cfg.Dev.Port,
		PortAttempts: cfg.Dev.PortAttempts,
		LiveReload:   cfg.Dev.LiveReloadEnabled(),
		Recorder:     recorder,
		Logger:       logger,
	}
	if registry != nil {
		srvOpts.Metrics = metrics.HTTPHandler(registry)
		srvOpts.MetricsPath = cfg.Metrics.Path
	}
	srv := server.New(srvOpts)
	srv.ReloadOn(ctx, bus)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer scancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Warn("Dev server shutdown failed", logfields.Error(err))
		}
	}()
	_, _ = fmt.Fprintf(g.Out, "Serving %s at http://%s\n", paths.Output, srv.Addr())

	dispatcher := watch.NewDispatcher(engine, paths,
		watch.WithDebounce(cfg.Dev.Debounce),
		watch.WithRecorder(recorder),
		watch.WithLogger(logger))

	watcher, err := watch.NewWatcher(paths.Source, logger)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()
	go func() {
		if err := watcher.Run(ctx, func(ev watch.Event) { dispatcher.Notify(ctx, ev) }); err != nil {
			logger.Warn("Watcher stopped", logfields.Error(err))
		}
	}()

	if cfg.Dev.ReconcileInterval > 0 {
		rec, err := watch.StartReconciler(cfg.Dev.ReconcileInterval, dispatcher)
		if err != nil {
			return err
		}
		defer func() { _ = rec.Stop() }()
	}

	if ready != nil {
		ready <- srv.Addr()
	}

	if err := dispatcher.Run(ctx); err != nil {
		logger.Error("Stopping after fatal build error", logfields.Error(err))
		return err
	}
	logger.Info("Shutting down")
	return nil
}
