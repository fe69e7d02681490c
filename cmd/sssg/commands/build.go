package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sssg/internal/build"
	"git.home.luguber.info/inful/sssg/internal/logfields"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Reason string `help:"Reason recorded in the build journal" default:"manual build"`
}

func (b *BuildCmd) Run(g *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunBuild(ctx, g, b.Reason)
}

// RunBuild performs one full build and prints a summary on g.Out.
func RunBuild(ctx context.Context, g *Global, reason string) error {
	paths, err := g.paths()
	if err != nil {
		return err
	}
	if err := paths.EnsureSourceTree(); err != nil {
		return err
	}

	opts := []build.Option{build.WithLogger(g.Logger)}
	j, err := g.openJournal()
	if err != nil {
		return err
	}
	defer closeJournal(j, g.Logger)
	if j != nil {
		opts = append(opts, build.WithJournal(j))
	}

	g.Logger.Info("Starting build", logfields.Path(paths.Source), logfields.Output(paths.Output))
	engine := build.NewEngine(paths, opts...)
	rep, err := engine.FullBuild(ctx, reason)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(g.Out, "Built %d files into %s in %s (%d skipped)\n",
		len(rep.Rendered), paths.Output, rep.Duration.Round(1e6), len(rep.Skipped))
	return nil
}
