package commands

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/build"
	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/sidebar"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct {
	Rendered bool `help:"Also render the sidebar HTML and check it parses back to the same tree" default:"true" negatable:""`
}

func (v *ValidateCmd) Run(g *Global, root *CLI) error {
	res, err := build.NewBuildService().Run(context.Background(), build.BuildRequest{
		ConfigPath: root.Config,
		Options:    build.BuildOptions{DryRun: true, SkipPrecache: true},
	})
	if err != nil {
		return err
	}

	if v.Rendered {
		if err := checkRendered(res.Sidebar); err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintf(g.Out, "%s is valid: %d groups, %d links, %d content documents\n",
		root.Config, len(res.Sidebar.Groups), res.Sidebar.LinkCount(), res.Index.Len())
	return nil
}

// checkRendered renders sb and verifies the HTML shows the same groups and links.
func checkRendered(sb *sidebar.Sidebar) error {
	var buf bytes.Buffer
	if err := sidebar.RenderHTML(&buf, sb); err != nil {
		return derrors.InternalError("render sidebar", err)
	}
	parsed, err := sidebar.Inspect(&buf)
	if err != nil {
		return derrors.InternalError("parse rendered sidebar", err)
	}

	var p derrors.Problems
	if len(parsed.Groups) != len(sb.Groups) {
		p.Addf("rendered %d groups, expected %d", len(parsed.Groups), len(sb.Groups))
	} else {
		for i, g := range sb.Groups {
			got := parsed.Groups[i]
			// HTML rendering does not preserve surrounding whitespace.
			if want := strings.TrimSpace(g.Label); got.Label != want {
				p.Addf("group %d rendered as %q, expected %q", i, got.Label, want)
			}
			if len(got.Links) != len(g.Links) {
				p.Addf("group %q rendered %d links, expected %d", g.Label, len(got.Links), len(g.Links))
				continue
			}
			for j, l := range g.Links {
				if got.Links[j].Href != l.Href {
					p.Addf("link %q rendered href %q, expected %q", l.Label, got.Links[j].Href, l.Href)
				}
			}
		}
	}
	return p.Err(derrors.CategoryInternal, "rendered sidebar does not match")
}
