package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// BuildFunc performs one rebuild.
type BuildFunc func(ctx context.Context) error

// Runner serializes rebuilds requested by the watcher and the scheduler.
type Runner struct {
	build BuildFunc
	mu    sync.Mutex
	runs  int
	fails int
}

// NewRunner wraps build.
func NewRunner(build BuildFunc) *Runner {
	return &Runner{build: build}
}

// Trigger runs a build now, waiting for any build already in progress.
// Failures are logged; watch mode keeps running until the inputs are fixed.
func (r *Runner) Trigger(ctx context.Context, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	slog.Info("Rebuilding", slog.String("reason", reason))
	err := r.build(ctx)
	r.runs++
	if err != nil {
		r.fails++
		slog.Error("Rebuild failed", slog.String("reason", reason), logfields.Since(start), logfields.Error(err))
		return
	}
	slog.Info("Rebuild complete", slog.String("reason", reason), logfields.Since(start))
}

// Stats returns the number of builds run and how many failed.
func (r *Runner) Stats() (runs, fails int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs, r.fails
}
