// Package content indexes the documentation content tree by slug.
package content

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/inful/mdfp"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// DocumentExtensions are the file extensions treated as content documents.
var DocumentExtensions = []string{".md", ".mdx"}

// Document is one content page.
type Document struct {
	Slug        string     `json:"slug"`
	Path        string     `json:"path"`
	RelPath     string     `json:"rel_path"`
	Title       string     `json:"title"`
	Draft       bool       `json:"draft,omitempty"`
	Fingerprint string     `json:"fingerprint"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// Index maps slugs to documents.
type Index struct {
	root string
	docs map[string]*Document
}

// Options controls how the index is built.
type Options struct {
	Root string
	// GitInfo looks up each document's last commit time.
	GitInfo bool
}

// Build walks opts.Root and indexes every document. Files and directories
// whose names start with "_" or "." are skipped. Two files claiming the same
// slug are reported together as one error.
func Build(ctx context.Context, opts Options) (*Index, error) {
	info, err := os.Stat(opts.Root)
	if err != nil {
		return nil, derrors.ContentIndexError(opts.Root, err)
	}
	if !info.IsDir() {
		return nil, derrors.ContentIndexError(opts.Root, fmt.Errorf("not a directory"))
	}

	var history *gitHistory
	if opts.GitInfo {
		history = openGitHistory(opts.Root)
	}

	idx := &Index{root: opts.Root, docs: make(map[string]*Document)}
	var dupes derrors.Problems

	err = filepath.WalkDir(opts.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		name := d.Name()
		if p != opts.Root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isDocument(name) {
			return nil
		}

		rel, err := filepath.Rel(opts.Root, p)
		if err != nil {
			return err
		}
		doc, err := readDocument(p, filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("%s: %w", rel, err)
		}
		if prev, ok := idx.docs[doc.Slug]; ok {
			dupes.Addf("slug %q is claimed by both %s and %s", doc.Slug, prev.RelPath, doc.RelPath)
			return nil
		}
		idx.docs[doc.Slug] = doc
		slog.Debug("Indexed content document", logfields.Slug(doc.Slug), logfields.File(doc.RelPath))
		return nil
	})
	if err != nil {
		return nil, derrors.ContentIndexError(opts.Root, err)
	}
	if err := dupes.Err(derrors.CategoryContent, "duplicate content slugs"); err != nil {
		return nil, err
	}
	if history != nil {
		idx.applyHistory(ctx, history)
	}
	return idx, nil
}

func (i *Index) applyHistory(ctx context.Context, history *gitHistory) {
	paths := make([]string, 0, len(i.docs))
	for _, doc := range i.docs {
		paths = append(paths, filepath.Join(i.root, filepath.FromSlash(doc.RelPath)))
	}
	times := history.lastUpdated(ctx, paths)
	for _, doc := range i.docs {
		if when, ok := times[filepath.Join(i.root, filepath.FromSlash(doc.RelPath))]; ok {
			doc.LastUpdated = &when
		}
	}
}

func isDocument(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range DocumentExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func readDocument(path, rel string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fm, body, _, err := frontmatter.Split(data)
	if err != nil {
		return nil, err
	}
	fields, err := frontmatter.Parse(fm)
	if err != nil {
		return nil, err
	}

	slug := SlugForPath(rel)
	if override := fields.String("slug"); override != "" {
		slug = NormalizeSlug(override)
	}

	title := fields.String("title")
	if title == "" {
		title = FirstHeading(body)
	}
	if title == "" {
		title = fallbackTitle(slug)
	}

	return &Document{
		Slug:        slug,
		Path:        path,
		RelPath:     rel,
		Title:       title,
		Draft:       fields.Bool("draft"),
		Fingerprint: mdfp.CalculateFingerprintFromParts(string(fm), string(body)),
	}, nil
}

func fallbackTitle(slug string) string {
	if slug == "" {
		return "Home"
	}
	return slug[strings.LastIndex(slug, "/")+1:]
}

// Root returns the indexed content directory.
func (i *Index) Root() string { return i.root }

// Len returns the number of indexed documents.
func (i *Index) Len() int { return len(i.docs) }

// Lookup returns the document for slug after normalization.
func (i *Index) Lookup(slug string) (*Document, bool) {
	d, ok := i.docs[NormalizeSlug(slug)]
	return d, ok
}

// Slugs returns every indexed slug in sorted order.
func (i *Index) Slugs() []string {
	out := make([]string, 0, len(i.docs))
	for s := range i.docs {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Orphans returns indexed slugs not present in linked, sorted.
func (i *Index) Orphans(linked []string) []string {
	seen := make(map[string]struct{}, len(linked))
	for _, s := range linked {
		seen[NormalizeSlug(s)] = struct{}{}
	}
	var out []string
	for _, s := range i.Slugs() {
		if _, ok := seen[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}
