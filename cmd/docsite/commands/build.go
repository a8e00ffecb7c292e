package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsite/internal/build"
	"git.home.luguber.info/inful/docsite/internal/history"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Artifact directory (overrides output.directory)" type:"path"`
	BuildDir    string `name:"build-dir" help:"Rendered site scanned for precache (overrides output.build_dir)" type:"path"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics in textfile-collector format to this path" type:"path"`
	DryRun      bool   `name:"dry-run" help:"Run every stage but write nothing"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openHistory(root.History)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	reg := prom.NewRegistry()
	svc := newBuildService(metrics.NewPrometheusRecorder(reg), store)
	res, runErr := svc.Run(ctx, b.request(root.Config))

	if b.MetricsFile != "" {
		if err := metrics.WriteTextfile(reg, b.MetricsFile); err != nil {
			g.Logger.Warn("Failed to write metrics textfile", logfields.Path(b.MetricsFile), logfields.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	r := res.Report
	_, _ = fmt.Fprintf(g.Out, "Build %s %s: %d links, %d precache entries (%d bytes) in %s\n",
		res.BuildID, res.Status, r.Counts.SidebarLinks, r.Counts.PrecacheEntries, r.Counts.PrecacheBytes, res.OutputPath)
	return nil
}

func (b *BuildCmd) request(configPath string) build.BuildRequest {
	return build.BuildRequest{
		ConfigPath: configPath,
		OutputDir:  b.Output,
		BuildDir:   b.BuildDir,
		Options:    build.BuildOptions{DryRun: b.DryRun},
	}
}

func newBuildService(rec metrics.Recorder, store *history.SQLiteStore) *build.DefaultBuildService {
	svc := build.NewBuildService().WithRecorder(rec)
	if store != nil {
		svc = svc.WithHistory(store)
	}
	return svc
}
