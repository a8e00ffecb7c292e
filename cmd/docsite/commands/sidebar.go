package commands

import (
	"context"

	"git.home.luguber.info/inful/docsite/internal/build"
	"git.home.luguber.info/inful/docsite/internal/content"
	"git.home.luguber.info/inful/docsite/internal/sidebar"
)

// SidebarCmd implements the 'sidebar' command.
type SidebarCmd struct {
	Format  string `short:"f" help:"Output format" enum:"json,html" default:"json"`
	Current string `help:"Slug of the page being viewed; its link is marked current"`
}

func (s *SidebarCmd) Run(g *Global, root *CLI) error {
	res, err := build.NewBuildService().Run(context.Background(), build.BuildRequest{
		ConfigPath: root.Config,
		Options:    build.BuildOptions{DryRun: true, SkipPrecache: true},
	})
	if err != nil {
		return err
	}

	sb := res.Sidebar
	if s.Current == "" {
		if s.Format == "html" {
			return sidebar.RenderHTML(g.Out, sb)
		}
		return writeJSON(g.Out, sb)
	}

	current := content.NormalizeSlug(s.Current)
	sb = sb.MarkCurrent(current)
	if s.Format == "html" {
		return sidebar.RenderHTML(g.Out, sb)
	}
	out := pagedSidebar{Sidebar: sb}
	out.Prev, out.Next = sb.Pager(current)
	return writeJSON(g.Out, out)
}

// pagedSidebar adds previous/next navigation for the current page.
type pagedSidebar struct {
	*sidebar.Sidebar
	Prev *sidebar.Link `json:"prev,omitempty"`
	Next *sidebar.Link `json:"next,omitempty"`
}
