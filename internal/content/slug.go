package content

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var lower = cases.Lower(language.Und)

// NormalizeSlug canonicalizes a slug so that the sidebar and the content tree
// agree on spelling: Unicode NFC, lower case, spaces as hyphens, no leading
// or trailing slash.
func NormalizeSlug(slug string) string {
	s := norm.NFC.String(strings.TrimSpace(slug))
	s = lower.String(s)
	s = strings.ReplaceAll(s, " ", "-")
	return strings.Trim(s, "/")
}

// SlugForPath derives a document slug from its slash-separated path relative
// to the content root. index files collapse to their directory.
func SlugForPath(rel string) string {
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	if rel == "index" {
		return ""
	}
	rel = strings.TrimSuffix(rel, "/index")
	return NormalizeSlug(rel)
}

// Href returns the site path a slug is served at.
func Href(slug string) string {
	slug = NormalizeSlug(slug)
	if slug == "" {
		return "/"
	}
	return "/" + slug + "/"
}
