package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsite/internal/config"
	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	BuildCmd `embed:""`

	Interval time.Duration `help:"Also rebuild on this interval; 0 disables periodic rebuilds" default:"15m"`
	Cron     string        `help:"Also rebuild on this five-field cron schedule, e.g. '0 3 * * *'"`
	Debounce time.Duration `help:"Quiet period before a change triggers a rebuild" default:"500ms"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The descriptor names the manifest and content paths, so it must load.
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	store, err := openHistory(root.History)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}
	reg := prom.NewRegistry()
	svc := newBuildService(metrics.NewPrometheusRecorder(reg), store)

	runner := watch.NewRunner(func(ctx context.Context) error {
		_, err := svc.Run(ctx, w.request(root.Config))
		if w.MetricsFile != "" {
			if werr := metrics.WriteTextfile(reg, w.MetricsFile); werr != nil {
				g.Logger.Warn("Failed to write metrics textfile", logfields.Path(w.MetricsFile), logfields.Error(werr))
			}
		}
		return err
	})
	runner.Trigger(ctx, "startup")

	dir := filepath.Dir(root.Config)
	watcher, err := watch.NewWatcher(watch.Options{
		Files: []string{
			root.Config,
			cfg.PWA.Manifest,
			filepath.Join(dir, ".env"),
			filepath.Join(dir, ".env.local"),
		},
		Dirs:     []string{cfg.Content.Dir},
		Debounce: w.Debounce,
		OnChange: func(ctx context.Context, path string) { runner.Trigger(ctx, "changed "+path) },
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = watcher.Stop() }()

	sched, err := w.startScheduler(ctx, func(ctx context.Context, reason string) { runner.Trigger(ctx, reason) })
	if err != nil {
		return err
	}
	if sched != nil {
		defer func() { _ = sched.Stop() }()
	}

	<-ctx.Done()
	runs, fails := runner.Stats()
	g.Logger.Info("Watch stopped", logfields.Count(runs), slog.Int("failed", fails))
	return nil
}

// startScheduler registers the periodic and cron rebuilds. It returns nil
// when neither is configured.
func (w *WatchCmd) startScheduler(ctx context.Context, trigger func(context.Context, string)) (*watch.Scheduler, error) {
	if w.Interval <= 0 && w.Cron == "" {
		return nil, nil
	}
	sched, err := watch.NewScheduler()
	if err != nil {
		return nil, derrors.InternalError("create scheduler", err)
	}
	if w.Interval > 0 {
		if _, err := sched.ScheduleEvery(ctx, "periodic-rebuild", w.Interval, func(ctx context.Context) {
			trigger(ctx, "schedule")
		}); err != nil {
			_ = sched.Stop()
			return nil, derrors.Wrap(err, derrors.CategoryValidation, derrors.SeverityFatal, "invalid --interval")
		}
	}
	if w.Cron != "" {
		if _, err := sched.ScheduleCron(ctx, "cron-rebuild", w.Cron, func(ctx context.Context) {
			trigger(ctx, "cron")
		}); err != nil {
			_ = sched.Stop()
			return nil, derrors.Wrap(err, derrors.CategoryValidation, derrors.SeverityFatal, "invalid --cron").
				WithContext("cron", w.Cron)
		}
	}
	sched.Start()
	return sched, nil
}
