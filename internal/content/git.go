package content

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// gitHistory answers last-updated queries from the repository that contains
// the content root.
type gitHistory struct {
	repo *git.Repository
	top  string
}

// openGitHistory returns nil when root is not inside a git repository.
func openGitHistory(root string) *gitHistory {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		slog.Debug("Content is not in a git repository; last-updated disabled", logfields.Path(root), logfields.Error(err))
		return nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		slog.Debug("Repository has no worktree; last-updated disabled", logfields.Path(root), logfields.Error(err))
		return nil
	}
	top := wt.Filesystem.Root()
	if resolved, err := filepath.EvalSymlinks(top); err == nil {
		top = resolved
	}
	return &gitHistory{repo: repo, top: top}
}

// repoPath returns path relative to the worktree root in slash form.
func (g *gitHistory) repoPath(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	rel, err := filepath.Rel(g.top, abs)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// lastUpdated walks history once from HEAD and returns, keyed by the given
// paths, the author time of the newest commit touching each one. Paths
// without history are absent. The walk stops as soon as every path is found.
func (g *gitHistory) lastUpdated(ctx context.Context, paths []string) map[string]time.Time {
	want := make(map[string]string, len(paths))
	for _, p := range paths {
		if rel, ok := g.repoPath(p); ok {
			want[rel] = p
		}
	}
	out := make(map[string]time.Time, len(want))
	if len(want) == 0 {
		return out
	}

	iter, err := g.repo.Log(&git.LogOptions{})
	if err != nil {
		slog.Debug("No commits to read last-updated times from", logfields.Error(err))
		return out
	}
	defer iter.Close()

	walked := 0
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		walked++
		changed, err := changedFiles(c)
		if err != nil {
			return err
		}
		for name := range changed {
			p, ok := want[name]
			if !ok {
				continue
			}
			if _, seen := out[p]; !seen {
				out[p] = c.Author.When.UTC()
			}
		}
		if len(out) == len(want) {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		slog.Debug("Stopped reading git history", logfields.Error(err))
	}
	slog.Debug("Read last-updated times from git history",
		logfields.Count(len(out)), slog.Int("commits", walked))
	return out
}

// changedFiles lists the paths c changed. A merge counts a path only when
// it differs from every parent, so merged-in edits stay with their own commit.
func changedFiles(c *object.Commit) (map[string]struct{}, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}
	if c.NumParents() == 0 {
		out := make(map[string]struct{})
		err := tree.Files().ForEach(func(f *object.File) error {
			out[f.Name] = struct{}{}
			return nil
		})
		return out, err
	}

	var out map[string]struct{}
	err = c.Parents().ForEach(func(parent *object.Commit) error {
		ptree, err := parent.Tree()
		if err != nil {
			return err
		}
		changes, err := object.DiffTree(ptree, tree)
		if err != nil {
			return err
		}
		names := make(map[string]struct{}, len(changes))
		for _, ch := range changes {
			if ch.From.Name != "" {
				names[ch.From.Name] = struct{}{}
			}
			if ch.To.Name != "" {
				names[ch.To.Name] = struct{}{}
			}
		}
		if out == nil {
			out = names
			return nil
		}
		for name := range out {
			if _, ok := names[name]; !ok {
				delete(out, name)
			}
		}
		return nil
	})
	return out, err
}
