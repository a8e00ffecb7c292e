package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of builds to list" default:"20"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	if root.History == "" {
		return derrors.ValidationFailed("history", "--history must name the build history database")
	}
	store, err := openHistory(root.History)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tSTARTED\tSTATUS\tDURATION\tLINKS\tPRECACHE\tERROR")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.BuildID, r.StartedAt.UTC().Format(time.RFC3339), r.Status, r.Duration.Round(time.Millisecond),
			r.SidebarLinks, r.PrecacheEntries, firstLine(r.Error))
	}
	return tw.Flush()
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}
