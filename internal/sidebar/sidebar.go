// Package sidebar resolves the descriptor's navigation groups against the
// content index into the two-level tree a renderer turns into a sidebar.
package sidebar

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/content"
	derrors "git.home.luguber.info/inful/docsite/internal/errors"
)

// Sidebar is the resolved navigation tree. Group and link order is the
// descriptor's declaration order.
type Sidebar struct {
	Groups []Group `json:"groups"`
}

// Group is one labelled section of links.
type Group struct {
	Label string `json:"label"`
	Links []Link `json:"links"`
}

// Link points at a resolved content document.
type Link struct {
	Label       string     `json:"label"`
	Slug        string     `json:"slug"`
	Href        string     `json:"href"`
	Title       string     `json:"title,omitempty"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
	Current     bool       `json:"current,omitempty"`
}

// Unresolved describes a sidebar item whose slug has no content document.
type Unresolved struct {
	Group string `json:"group"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

func (u Unresolved) String() string {
	return fmt.Sprintf("%s > %s: no content document for slug %q", u.Group, u.Label, u.Slug)
}

// Options tunes resolution.
type Options struct {
	// ExcludeDrafts treats draft documents as missing.
	ExcludeDrafts bool
}

// Build resolves every item in groups. All unresolved slugs are collected and
// returned together in one content error; the partial sidebar is still
// returned so callers can report on it.
func Build(groups []config.NavGroup, idx *content.Index, opts Options) (*Sidebar, []Unresolved, error) {
	sb := &Sidebar{Groups: make([]Group, 0, len(groups))}
	var missing []Unresolved
	var p derrors.Problems

	for _, g := range groups {
		group := Group{Label: g.Label, Links: make([]Link, 0, len(g.Items))}
		for _, it := range g.Items {
			doc, ok := idx.Lookup(it.Slug)
			if ok && opts.ExcludeDrafts && doc.Draft {
				ok = false
			}
			if !ok {
				u := Unresolved{Group: g.Label, Label: it.Label, Slug: it.Slug}
				missing = append(missing, u)
				p.Addf("%s", u.String())
				continue
			}
			group.Links = append(group.Links, Link{
				Label:       it.Label,
				Slug:        doc.Slug,
				Href:        content.Href(doc.Slug),
				Title:       doc.Title,
				LastUpdated: doc.LastUpdated,
			})
		}
		sb.Groups = append(sb.Groups, group)
	}

	return sb, missing, p.Err(derrors.CategoryContent, "sidebar references missing content")
}

// LinkCount returns the number of links across all groups.
func (s *Sidebar) LinkCount() int {
	n := 0
	for _, g := range s.Groups {
		n += len(g.Links)
	}
	return n
}

// MarkCurrent returns a copy of s with the link for slug flagged as current.
// The receiver is not modified.
func (s *Sidebar) MarkCurrent(slug string) *Sidebar {
	want := content.NormalizeSlug(slug)
	out := &Sidebar{Groups: make([]Group, len(s.Groups))}
	for gi, g := range s.Groups {
		links := make([]Link, len(g.Links))
		for li, l := range g.Links {
			l.Current = l.Slug == want
			links[li] = l
		}
		out.Groups[gi] = Group{Label: g.Label, Links: links}
	}
	return out
}

// Pager returns the links before and after slug in flattened sidebar order,
// for previous/next page navigation. Either may be nil.
func (s *Sidebar) Pager(slug string) (prev, next *Link) {
	want := content.NormalizeSlug(slug)
	var flat []Link
	for _, g := range s.Groups {
		flat = append(flat, g.Links...)
	}
	for i := range flat {
		if flat[i].Slug != want {
			continue
		}
		if i > 0 {
			p := flat[i-1]
			prev = &p
		}
		if i+1 < len(flat) {
			n := flat[i+1]
			next = &n
		}
		return prev, next
	}
	return nil, nil
}
