package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	ferrors "git.home.luguber.info/inful/sssg/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of builds to show" default:"10"`
}

func (h *HistoryCmd) Run(g *Global, _ *CLI) error {
	if h.Limit <= 0 {
		return ferrors.ValidationError("history limit must be positive").Build()
	}
	j, err := g.openJournal()
	if err != nil {
		return err
	}
	if j == nil {
		return ferrors.ConfigError("build journal is disabled; set journal.path").Build()
	}
	defer closeJournal(j, g.Logger)

	entries, err := j.Recent(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(g.Out, "No builds recorded")
		return nil
	}

	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tKIND\tSTATUS\tFILES\tDURATION\tREASON")
	for _, e := range entries {
		reason := e.Reason
		if e.Error != "" {
			reason += " (" + e.Error + ")"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			e.StartedAt.Local().Format(time.DateTime), e.Kind, e.Status,
			e.Rendered, e.Duration.Round(time.Millisecond), reason)
	}
	return tw.Flush()
}
