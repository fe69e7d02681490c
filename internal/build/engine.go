package build

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sssg/internal/events"
	ferrors "git.home.luguber.info/inful/sssg/internal/foundation/errors"
	"git.home.luguber.info/inful/sssg/internal/journal"
	"git.home.luguber.info/inful/sssg/internal/logfields"
	"git.home.luguber.info/inful/sssg/internal/metrics"
	"git.home.luguber.info/inful/sssg/internal/site"
	"git.home.luguber.info/inful/sssg/internal/store"
	"git.home.luguber.info/inful/sssg/internal/util/sets"
)

// Kind distinguishes full and targeted builds.
type Kind string

const (
	KindFull     Kind = "full"
	KindTargeted Kind = "targeted"
)

const publishTimeout = 5 * time.Second

// Targets selects the files of a targeted build.
type Targets struct {
	// Files are rendered (pages) or copied (assets) as they are.
	Files []string
	// DependentsOf lists assets to re-copy together with every page that
	// depends on them, directly or through a layout.
	DependentsOf []string
}

// Empty reports whether t selects nothing.
func (t Targets) Empty() bool { return len(t.Files) == 0 && len(t.DependentsOf) == 0 }

// Report summarises a finished build.
type Report struct {
	BuildID  string
	Kind     Kind
	Reason   string
	Rendered []string
	Skipped  []string
	Duration time.Duration
}

// Engine runs full and targeted builds one at a time.
type Engine struct {
	mu       sync.Mutex
	composer *Composer
	builder  *Builder
	current  *store.Store

	composerOpts []ComposerOption
	recorder     metrics.Recorder
	journal      journal.Journal
	bus          *events.Bus
	logger       *slog.Logger
	newID        func() string
}

// Option configures an Engine.
type Option func(*Engine)

func WithRecorder(r metrics.Recorder) Option { return func(e *Engine) { e.recorder = r } }

func WithJournal(j journal.Journal) Option { return func(e *Engine) { e.journal = j } }

// WithBus publishes an events.BuildCompleted after every build.
func WithBus(b *events.Bus) Option { return func(e *Engine) { e.bus = b } }

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

func WithComposerOptions(opts ...ComposerOption) Option {
	return func(e *Engine) { e.composerOpts = append(e.composerOpts, opts...) }
}

// NewEngine returns an engine for paths. No build runs until FullBuild.
func NewEngine(paths site.Paths, opts ...Option) *Engine {
	e := &Engine{
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.composer = NewComposer(paths, e.composerOpts...)
	e.builder = NewBuilder(e.composer, e.logger)
	return e
}

// Store returns the store of the last successful full build, or nil. It must
// not be used while a build runs.
func (e *Engine) Store() *store.Store {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// FullBuild rescans the source tree and replaces the output tree. On error
// the previous output tree and store are kept.
func (e *Engine) FullBuild(ctx context.Context, reason string) (Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.run(ctx, KindFull, reason, e.fullBuild)
}

// Render re-renders the selected files into the live output tree. Without a
// previous full build it falls back to one.
func (e *Engine) Render(ctx context.Context, reason string, t Targets) (Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return e.run(ctx, KindFull, reason, e.fullBuild)
	}
	return e.run(ctx, KindTargeted, reason, func(ctx context.Context, rep *Report) error {
		return e.render(ctx, rep, t)
	})
}

// RenderDependents re-copies asset and re-renders its dependents.
func (e *Engine) RenderDependents(ctx context.Context, reason, asset string) (Report, error) {
	return e.Render(ctx, reason, Targets{DependentsOf: []string{asset}})
}

func (e *Engine) run(ctx context.Context, kind Kind, reason string, fn func(context.Context, *Report) error) (Report, error) {
	rep := Report{BuildID: e.newID(), Kind: kind, Reason: reason}
	started := time.Now()
	e.logger.Debug("Build started", logfields.BuildID(rep.BuildID), logfields.BuildKind(string(kind)), logfields.Reason(reason))

	err := fn(ctx, &rep)
	rep.Duration = time.Since(started)
	e.record(ctx, rep, started, err)
	return rep, err
}

func (e *Engine) fullBuild(ctx context.Context, rep *Report) (err error) {
	g, err := e.builder.Scan(ctx)
	if err != nil {
		return err
	}
	rep.Skipped = append(rep.Skipped, g.Skipped...)

	out := e.composer.Paths().Output
	staging := out + ".staging"
	if err := os.RemoveAll(staging); err != nil {
		return ioError(err, "clear staging dir", staging)
	}
	defer func() {
		if err != nil {
			if rmErr := os.RemoveAll(staging); rmErr != nil {
				e.logger.Warn("Failed to remove staging directory", logfields.Path(staging), logfields.Error(rmErr))
			}
		}
	}()

	stage := e.composer.WithOutput(staging)
	if err := mirrorDirs(stage); err != nil {
		return err
	}

	for _, a := range g.Store.Assets() {
		if err := ctx.Err(); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryRuntime, "build canceled").Build()
		}
		if _, err := stage.Render(g.Store, a.Path); err != nil {
			if IsSourceMissing(err) {
				e.logger.Warn("Asset vanished, skipping", logfields.Path(a.Path))
				rep.Skipped = append(rep.Skipped, a.Path)
				continue
			}
			return err
		}
		rep.Rendered = append(rep.Rendered, a.Path)
	}
	for _, comp := range g.Pages {
		if err := ctx.Err(); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryRuntime, "build canceled").Build()
		}
		if _, err := stage.Write(comp); err != nil {
			return err
		}
		rep.Rendered = append(rep.Rendered, comp.Source)
	}

	if err := e.promote(staging, out); err != nil {
		return err
	}
	e.current = g.Store
	return nil
}

// mirrorDirs creates the output directory structure for the assets and
// pages subtrees.
func mirrorDirs(c *Composer) error {
	paths := c.Paths()
	if err := os.MkdirAll(paths.Output, 0o755); err != nil {
		return ioError(err, "create output dir", paths.Output)
	}
	for _, t := range []site.Subtree{site.SubtreeAssets, site.SubtreePages} {
		dirs, err := listDirs(paths.Dir(t))
		if err != nil {
			return err
		}
		for _, d := range dirs {
			target, err := paths.OutputDir(d)
			if err != nil {
				return ferrors.InternalError("cannot map source dir").WithCause(err).WithContext("path", d).Build()
			}
			if err := os.MkdirAll(target, 0o755); err != nil {
				return ioError(err, "create output dir", target)
			}
		}
	}
	return nil
}

// promote swaps staging into place: out moves to out.prev, staging moves to
// out, out.prev is removed.
func (e *Engine) promote(staging, out string) error {
	prev := out + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		return ioError(err, "remove previous backup", prev)
	}
	hadOutput := true
	if _, err := os.Stat(out); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return ioError(err, "stat output dir", out)
		}
		hadOutput = false
	}
	if hadOutput {
		if err := os.Rename(out, prev); err != nil {
			return ioError(err, "back up output dir", out)
		}
	}
	if err := os.Rename(staging, out); err != nil {
		if hadOutput {
			_ = os.Rename(prev, out)
		}
		return ioError(err, "promote staging dir", staging)
	}
	if hadOutput {
		if err := os.RemoveAll(prev); err != nil {
			e.logger.Warn("Failed to remove previous output", logfields.Path(prev), logfields.Error(err))
		}
	}
	return nil
}

func (e *Engine) render(ctx context.Context, rep *Report, t Targets) error {
	st := e.current
	paths := e.composer.Paths()

	files := sets.New(t.Files...)
	for _, asset := range t.DependentsOf {
		files.Add(asset)
		dependents, err := st.Dependents(asset)
		if err != nil {
			e.logger.Debug("Unknown asset, rendering it alone", logfields.Path(asset))
			continue
		}
		for _, d := range dependents {
			switch st.Kind(d) {
			case store.KindLayout:
				pages, _ := st.Dependents(d)
				for _, p := range pages {
					files.Add(p)
				}
			case store.KindPage:
				files.Add(d)
			}
		}
	}

	for _, f := range sets.Sorted(files) {
		if err := ctx.Err(); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryRuntime, "build canceled").Build()
		}
		var err error
		switch paths.Classify(f) {
		case site.SubtreeAssets:
			if _, err = e.composer.Render(st, f); err == nil {
				st.RegisterAsset(f)
			}
		case site.SubtreePages:
			st.RegisterPage(f)
			var res Result
			if res, err = e.composer.Render(st, f); err == nil {
				err = st.SetPageDependencies(f, res.Dependencies)
			}
		default:
			e.logger.Debug("Not a renderable source, ignoring", logfields.Path(f))
			continue
		}
		if IsSourceMissing(err) {
			if st.Kind(f) == store.KindPage {
				st.RemovePage(f)
			}
			e.logger.Warn("Source vanished, skipping", logfields.Path(f))
			rep.Skipped = append(rep.Skipped, f)
			continue
		}
		if err != nil {
			return err
		}
		rep.Rendered = append(rep.Rendered, f)
	}
	return nil
}

func (e *Engine) record(ctx context.Context, rep Report, started time.Time, buildErr error) {
	kind := string(rep.Kind)
	outcome, status := metrics.OutcomeSuccess, journal.StatusSuccess
	if buildErr != nil {
		outcome, status = metrics.OutcomeFailed, journal.StatusFailed
	}
	e.recorder.ObserveBuildDuration(kind, rep.Duration)
	e.recorder.IncBuildOutcome(kind, outcome)
	e.recorder.AddFilesRendered(kind, len(rep.Rendered))
	e.recorder.AddFilesSkipped(len(rep.Skipped))

	attrs := []any{
		logfields.BuildID(rep.BuildID),
		logfields.BuildKind(kind),
		logfields.Reason(rep.Reason),
		logfields.Count(len(rep.Rendered)),
		logfields.Duration(rep.Duration),
	}
	if buildErr != nil {
		e.logger.Error("Build failed", append(attrs, logfields.Error(buildErr))...)
	} else {
		e.logger.Info("Build completed", attrs...)
	}

	// Shutdown cancels ctx; the outcome is still worth keeping.
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if e.journal != nil {
		entry := journal.Entry{
			BuildID:   rep.BuildID,
			Kind:      kind,
			Reason:    rep.Reason,
			Status:    status,
			Rendered:  len(rep.Rendered),
			Skipped:   len(rep.Skipped),
			Files:     relativeTo(e.composer.Paths().Source, rep.Rendered),
			StartedAt: started,
			Duration:  rep.Duration,
		}
		if buildErr != nil {
			entry.Error = buildErr.Error()
		}
		if err := e.journal.Record(bg, entry); err != nil {
			e.logger.Warn("Failed to journal build", logfields.BuildID(rep.BuildID), logfields.Error(err))
		}
	}

	if e.bus != nil {
		evt := events.BuildCompleted{
			BuildID:  rep.BuildID,
			Kind:     kind,
			Reason:   rep.Reason,
			Rendered: len(rep.Rendered),
			Skipped:  len(rep.Skipped),
			Duration: rep.Duration,
			Err:      buildErr,
			At:       time.Now(),
		}
		if err := e.bus.Publish(bg, evt); err != nil {
			e.logger.Warn("Failed to publish build event", logfields.BuildID(rep.BuildID), logfields.Error(err))
		}
	}
}

func relativeTo(root string, files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if rel, err := filepath.Rel(root, f); err == nil {
			out = append(out, filepath.ToSlash(rel))
		} else {
			out = append(out, f)
		}
	}
	return out
}
