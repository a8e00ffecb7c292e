package pwa

import (
	"context"
	"crypto/md5" //nolint:gosec // revision fingerprint, matches workbox
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// Entry is one precached build artifact.
type Entry struct {
	URL      string `json:"url"`
	Revision string `json:"revision"`
	Size     int64  `json:"size"`
}

// Skipped records a matching artifact left out of the precache.
type Skipped struct {
	URL    string `json:"url"`
	Size   int64  `json:"size"`
	Reason string `json:"reason"`
}

// Precache is the result of scanning a build output directory.
type Precache struct {
	Entries []Entry   `json:"entries"`
	Skipped []Skipped `json:"skipped,omitempty"`
}

// TotalSize sums the sizes of all precached entries.
func (p *Precache) TotalSize() int64 {
	var n int64
	for _, e := range p.Entries {
		n += e.Size
	}
	return n
}

// Has reports whether url is precached.
func (p *Precache) Has(url string) bool {
	i := sort.Search(len(p.Entries), func(i int) bool { return p.Entries[i].URL >= url })
	return i < len(p.Entries) && p.Entries[i].URL == url
}

// ScanDir builds the precache for the rendered site in buildDir. When
// outputDir lies inside buildDir its contents are left out, so the tool's own
// artifacts never feed back into the next scan.
func ScanDir(ctx context.Context, buildDir, outputDir string, opts Options) (*Precache, error) {
	var exclude []string
	if sub := subdir(buildDir, outputDir); sub != "" {
		exclude = append(exclude, sub)
	}
	return BuildPrecache(ctx, os.DirFS(buildDir), opts, exclude...)
}

// subdir returns dir relative to root in slash form, or "" when dir is root
// itself or lies outside it.
func subdir(root, dir string) string {
	if dir == "" {
		return ""
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return ""
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(absRoot, absDir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.ToSlash(rel)
}

// BuildPrecache walks fsys and returns every artifact selected by the glob
// patterns, sorted by URL. Files over the size limit are reported as skipped.
// Directories named in exclude (slash paths relative to fsys) are not walked.
func BuildPrecache(ctx context.Context, fsys fs.FS, opts Options, exclude ...string) (*Precache, error) {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[path.Clean(e)] = true
	}

	matcher := NewMatcher(opts.Workbox.GlobPatterns)
	limit := opts.Workbox.MaximumFileSizeToCacheInBytes
	if limit <= 0 {
		limit = DefaultMaximumFileSize
	}

	out := &Precache{}
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if skip[p] {
				return fs.SkipDir
			}
			return nil
		}
		if !matcher.Match(p) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > limit {
			slog.Warn("Artifact exceeds precache size limit",
				logfields.Path(p),
				slog.Int64("size", info.Size()),
				slog.Int64("limit", limit))
			out.Skipped = append(out.Skipped, Skipped{URL: p, Size: info.Size(), Reason: "exceeds maximum_file_size_to_cache_in_bytes"})
			return nil
		}
		rev, err := revision(fsys, p)
		if err != nil {
			return fmt.Errorf("revision %s: %w", p, err)
		}
		out.Entries = append(out.Entries, Entry{URL: p, Revision: rev, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out.Entries, func(i, j int) bool { return out.Entries[i].URL < out.Entries[j].URL })
	return out, nil
}

func revision(fsys fs.FS, name string) (string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := md5.New() //nolint:gosec // revision fingerprint, matches workbox
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
