package config

import (
	"net/url"
	"sort"
	"strings"
	"unicode"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
)

// Validate checks the descriptor's structure and reports every problem at
// once. Whether slugs resolve to content documents is checked by the build,
// not here.
func (c *Config) Validate() error {
	var p derrors.Problems

	if strings.TrimSpace(c.Site.Title) == "" {
		p.Addf("site.title is empty")
	}
	for i, css := range c.Site.CustomCSS {
		if strings.TrimSpace(css) == "" {
			p.Addf("site.custom_css[%d] is empty", i)
		}
	}
	for _, platform := range sortedKeys(c.Site.Social) {
		link := c.Site.Social[platform]
		if strings.TrimSpace(platform) == "" {
			p.Addf("site.social has an empty platform name")
			continue
		}
		u, err := url.Parse(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			p.Addf("site.social.%s %q is not an absolute http(s) URL", platform, link)
		}
	}

	c.validateSidebar(&p)

	for _, slot := range c.ComponentSlots() {
		path := c.Components[slot]
		if strings.TrimSpace(slot) == "" {
			p.Addf("components has an empty slot name")
			continue
		}
		if strings.TrimSpace(path) == "" {
			p.Addf("components.%s path is empty", slot)
		}
	}

	c.PWA.Validate(&p)

	return p.Err(derrors.CategoryValidation, "descriptor invalid")
}

func (c *Config) validateSidebar(p *derrors.Problems) {
	if len(c.Sidebar) == 0 {
		p.Addf("sidebar has no groups")
	}
	for gi, g := range c.Sidebar {
		if strings.TrimSpace(g.Label) == "" {
			p.Addf("sidebar[%d].label is empty", gi)
		}
		if len(g.Items) == 0 {
			p.Addf("sidebar[%d] (%s) has no items", gi, g.Label)
		}
		for ii, it := range g.Items {
			if strings.TrimSpace(it.Label) == "" {
				p.Addf("sidebar[%d].items[%d].label is empty", gi, ii)
			}
			if reason := slugProblem(it.Slug); reason != "" {
				p.Addf("sidebar[%d].items[%d].slug %q %s", gi, ii, it.Slug, reason)
			}
		}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// slugProblem describes why slug is malformed, or returns "".
func slugProblem(slug string) string {
	switch {
	case slug == "":
		return "is empty"
	case strings.HasPrefix(slug, "/") || strings.HasSuffix(slug, "/"):
		return "must not start or end with /"
	case strings.IndexFunc(slug, unicode.IsSpace) >= 0:
		return "must not contain whitespace"
	}
	for _, seg := range strings.Split(slug, "/") {
		switch seg {
		case "":
			return "has an empty path segment"
		case ".", "..":
			return "must not contain relative segments"
		}
	}
	return ""
}
