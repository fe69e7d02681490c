package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sssg/internal/config"
	"git.home.luguber.info/inful/sssg/internal/journal"
	"git.home.luguber.info/inful/sssg/internal/site"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
	Config *config.Config
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sssg.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Source  string           `short:"s" help:"Source directory (overrides config and SRC)"`
	Output  string           `short:"o" help:"Output directory (overrides config and DIST)"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the site once"`
	Dev     DevCmd     `cmd:"" help:"Build, watch the source tree and serve the output with live reload"`
	History HistoryCmd `cmd:"" help:"Show recent builds from the journal"`

	global *Global `kong:"-"`
}

// AfterApply runs after flag parsing: load config once and set up logging.
func (c *CLI) AfterApply() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if c.Source != "" {
		cfg.Source = c.Source
	}
	if c.Output != "" {
		cfg.Output = c.Output
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	logger := cfg.Logging.NewLogger(os.Stderr, c.Verbose)
	slog.SetDefault(logger)
	c.global = &Global{Logger: logger, Config: cfg, Out: os.Stdout}
	return nil
}

// Global returns the state prepared by AfterApply.
func (c *CLI) Global() *Global {
	if c.global == nil {
		return &Global{Logger: slog.Default(), Config: &config.Config{}, Out: os.Stdout}
	}
	return c.global
}

func (g *Global) paths() (site.Paths, error) {
	return site.NewPaths(g.Config.Source, g.Config.Output)
}

// openJournal opens the configured journal, or returns nil when disabled.
func (g *Global) openJournal() (*journal.SQLiteJournal, error) {
	if g.Config.Journal.Path == "" {
		return nil, nil
	}
	return journal.Open(g.Config.Journal.Path)
}

func closeJournal(j *journal.SQLiteJournal, logger *slog.Logger) {
	if j == nil {
		return
	}
	if err := j.Close(); err != nil {
		logger.Warn("Failed to close journal", "error", err)
	}
}
