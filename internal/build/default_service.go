package build

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/content"
	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/history"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/manifest"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/pwa"
	"git.home.luguber.info/inful/docsite/internal/sidebar"
	"git.home.luguber.info/inful/docsite/internal/webmanifest"
)

// DefaultBuildService is the standard implementation of BuildService.
type DefaultBuildService struct {
	recorder metrics.Recorder
	history  history.Store
	now      func() time.Time
}

// NewBuildService creates a new DefaultBuildService that records nothing.
func NewBuildService() *DefaultBuildService {
	return &DefaultBuildService{
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	s.recorder = r
	return s
}

// WithHistory appends every non-dry-run build to store.
func (s *DefaultBuildService) WithHistory(store history.Store) *DefaultBuildService {
	s.history = store
	return s
}

// run carries the state shared between stages of one build.
type run struct {
	req    BuildRequest
	result *BuildResult
	report *manifest.BuildManifest
}

// Run executes the complete build pipeline.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	start := s.now()
	report := manifest.New(start)
	r := &run{
		req:    req,
		report: report,
		result: &BuildResult{BuildID: report.ID, StartTime: start, Report: report},
	}
	log := slog.With(logfields.BuildID(report.ID))
	log.Info("Starting build", logfields.Path(req.ConfigPath), slog.Bool("dry_run", req.Options.DryRun))

	steps := []struct {
		name string
		fn   func(context.Context, *run) error
	}{
		{StageLoad, s.loadDescriptor},
		{StageValidate, s.validateDescriptor},
		{StageIndex, s.indexContent},
		{StageSidebar, s.resolveSidebar},
		{StageManifest, s.checkWebManifest},
		{StagePrecache, s.scanPrecache},
		{StageWrite, s.writeArtifacts},
	}

	var err error
	for _, step := range steps {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			r.result.FailedStage = step.name
			break
		}
		if err = s.stage(ctx, log, step.name, r, step.fn); err != nil {
			r.result.FailedStage = step.name
			break
		}
	}

	return s.finish(ctx, log, r, err)
}

// errSkipped marks a stage that chose not to run.
var errSkipped = errors.New("stage skipped")

func (s *DefaultBuildService) stage(ctx context.Context, log *slog.Logger, name string, r *run, fn func(context.Context, *run) error) error {
	stageStart := time.Now()
	err := fn(ctx, r)
	elapsed := time.Since(stageStart)
	s.recorder.ObserveStageDuration(name, elapsed)

	switch {
	case errors.Is(err, errSkipped):
		s.recorder.IncStageResult(name, metrics.ResultSkipped)
		log.Info("Stage skipped", logfields.Stage(name))
		return nil
	case err != nil:
		s.recorder.IncStageResult(name, metrics.ResultFatal)
		log.Error("Stage failed", logfields.Stage(name), logfields.Since(stageStart), logfields.Error(err))
		return err
	default:
		s.recorder.IncStageResult(name, metrics.ResultSuccess)
		log.Debug("Stage complete", logfields.Stage(name), logfields.Since(stageStart))
		return nil
	}
}

func (s *DefaultBuildService) finish(ctx context.Context, log *slog.Logger, r *run, err error) (*BuildResult, error) {
	res := r.result
	res.EndTime = s.now()
	res.Duration = res.EndTime.Sub(res.StartTime)

	switch {
	case err == nil:
		res.Status = BuildStatusSuccess
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		res.Status = BuildStatusCancelled
	default:
		res.Status = BuildStatusFailed
	}

	r.report.Status = string(res.Status)
	r.report.Duration = res.Duration.Milliseconds()
	if err != nil {
		r.report.Error = err.Error()
	}

	s.recorder.ObserveBuildDuration(res.Duration)
	s.recorder.IncBuildOutcome(string(res.Status))
	s.recorder.SetUnresolvedSlugs(len(res.Unresolved))
	if res.Sidebar != nil {
		s.recorder.SetSidebarLinks(res.Sidebar.LinkCount())
	}
	if res.Precache != nil {
		s.recorder.SetPrecache(len(res.Precache.Entries), res.Precache.TotalSize())
	}

	if s.history != nil && !r.req.Options.DryRun {
		// Recording must outlive a cancelled build context.
		recordCtx := context.WithoutCancel(ctx)
		if herr := s.history.Record(recordCtx, historyRun(r.report, res)); herr != nil {
			log.Warn("Failed to record build history", logfields.Error(herr))
		}
	}

	if err != nil {
		log.Error("Build failed",
			logfields.Stage(res.FailedStage),
			slog.String("status", string(res.Status)),
			logfields.DurationMS(float64(res.Duration.Milliseconds())))
		if res.Status == BuildStatusFailed {
			if _, ok := derrors.As(err); !ok {
				err = derrors.BuildFailed(res.FailedStage, err)
			}
		}
		return res, err
	}
	log.Info("Build complete",
		logfields.Count(r.report.Counts.SidebarLinks),
		logfields.Path(res.OutputPath),
		logfields.DurationMS(float64(res.Duration.Milliseconds())))
	return res, nil
}

func historyRun(report *manifest.BuildManifest, res *BuildResult) history.Run {
	return history.Run{
		BuildID:         report.ID,
		StartedAt:       res.StartTime,
		Duration:        res.Duration,
		Status:          string(res.Status),
		DescriptorHash:  report.Inputs.DescriptorHash,
		SidebarLinks:    report.Counts.SidebarLinks,
		Unresolved:      report.Counts.Unresolved,
		PrecacheEntries: report.Counts.PrecacheEntries,
		PrecacheBytes:   report.Counts.PrecacheBytes,
		Error:           report.Error,
	}
}

func (s *DefaultBuildService) loadDescriptor(_ context.Context, r *run) error {
	cfg, err := config.Load(r.req.ConfigPath)
	if err != nil {
		return err
	}
	if r.req.OutputDir != "" {
		cfg.Output.Directory = r.req.OutputDir
	}
	if r.req.BuildDir != "" {
		cfg.Output.BuildDir = r.req.BuildDir
	}
	data, err := os.ReadFile(r.req.ConfigPath)
	if err != nil {
		return derrors.ConfigParse(r.req.ConfigPath, err)
	}
	r.result.Config = cfg
	r.result.OutputPath = cfg.Output.Directory

	r.report.Inputs = manifest.Inputs{
		Descriptor:     r.req.ConfigPath,
		DescriptorHash: manifest.HashBytes(data),
		ContentDir:     cfg.Content.Dir,
		WebManifest:    cfg.PWA.Manifest,
		BuildDir:       cfg.Output.BuildDir,
	}
	groups := make([]string, 0, len(cfg.Sidebar))
	for _, g := range cfg.Sidebar {
		groups = append(groups, g.Label)
	}
	r.report.Plan = manifest.Plan{
		Mode:         string(cfg.PWA.Mode),
		RegisterType: string(cfg.PWA.RegisterType),
		GlobPatterns: append([]string(nil), cfg.PWA.Workbox.GlobPatterns...),
		Groups:       groups,
		Components:   cfg.ComponentSlots(),
	}
	r.report.Outputs.Directory = cfg.Output.Directory
	return nil
}

func (s *DefaultBuildService) validateDescriptor(_ context.Context, r *run) error {
	return r.result.Config.Validate()
}

func (s *DefaultBuildService) indexContent(ctx context.Context, r *run) error {
	cfg := r.result.Config
	idx, err := content.Build(ctx, content.Options{Root: cfg.Content.Dir, GitInfo: cfg.Content.GitInfo})
	if err != nil {
		return err
	}
	r.result.Index = idx
	r.report.Counts.Documents = idx.Len()
	return nil
}

func (s *DefaultBuildService) resolveSidebar(_ context.Context, r *run) error {
	cfg := r.result.Config
	opts := sidebar.Options{ExcludeDrafts: cfg.PWA.Mode == pwa.ModeProduction}
	sb, missing, err := sidebar.Build(cfg.Sidebar, r.result.Index, opts)
	r.result.Sidebar = sb
	r.result.Unresolved = missing
	r.report.Counts.Unresolved = len(missing)
	if err != nil {
		return err
	}
	r.report.Counts.SidebarLinks = sb.LinkCount()

	if orphans := r.result.Index.Orphans(cfg.Slugs()); len(orphans) > 0 {
		slog.Debug("Content documents not linked from the sidebar", logfields.Count(len(orphans)))
	}
	return nil
}

func (s *DefaultBuildService) checkWebManifest(_ context.Context, r *run) error {
	path := r.result.Config.PWA.Manifest
	m, err := webmanifest.Load(path)
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if extra := m.ExtraKeys(); len(extra) > 0 {
		slog.Debug("Web manifest carries additional members", logfields.Path(path), slog.Any("keys", extra))
	}
	r.result.WebManifest = m
	return nil
}

func (s *DefaultBuildService) scanPrecache(ctx context.Context, r *run) error {
	cfg := r.result.Config
	if r.req.Options.SkipPrecache {
		return errSkipped
	}
	info, err := os.Stat(cfg.Output.BuildDir)
	if err != nil || !info.IsDir() {
		slog.Info("Build directory not found, precache not generated", logfields.Path(cfg.Output.BuildDir))
		return errSkipped
	}

	pc, err := pwa.ScanDir(ctx, cfg.Output.BuildDir, cfg.Output.Directory, cfg.PWA)
	if err != nil {
		return derrors.Wrap(err, derrors.CategoryFileSystem, derrors.SeverityFatal, "scan build directory").
			WithContext("path", cfg.Output.BuildDir)
	}
	r.result.Precache = pc
	r.report.Counts.PrecacheEntries = len(pc.Entries)
	r.report.Counts.PrecacheBytes = pc.TotalSize()
	r.report.Counts.PrecacheSkipped = len(pc.Skipped)

	checkOffline(r.result.Sidebar, pc, cfg.PWA)
	return nil
}

// checkOffline warns about sidebar pages and the navigate fallback that the
// precache cannot answer.
func checkOffline(sb *sidebar.Sidebar, pc *pwa.Precache, opts pwa.Options) {
	router, err := pwa.NewRouter(pc, opts)
	if err != nil {
		slog.Warn("Cannot check offline coverage", logfields.Error(err))
		return
	}
	if fb := opts.Workbox.NavigateFallback; fb != "" {
		if res, err := router.Resolve(fb, false); err == nil && !res.Found() {
			slog.Warn("Navigate fallback is not precached", logfields.URL(fb))
		}
	}
	if sb == nil {
		return
	}
	for _, g := range sb.Groups {
		for _, l := range g.Links {
			if res, err := router.Resolve(l.Href, false); err == nil && !res.Found() {
				slog.Warn("Sidebar page is not precached", logfields.Group(g.Label), logfields.URL(l.Href))
			}
		}
	}
}

func (s *DefaultBuildService) writeArtifacts(_ context.Context, r *run) error {
	res := r.result
	sw := pwa.NewServiceWorkerConfig(res.Config.PWA, *res.WebManifest, res.Precache)
	res.ServiceWorker = &sw
	if r.req.Options.DryRun {
		return errSkipped
	}

	var sidebarHTML bytes.Buffer
	if err := sidebar.RenderHTML(&sidebarHTML, res.Sidebar); err != nil {
		return derrors.InternalError("render sidebar", err)
	}
	webManifest := res.WebManifest.WithDefaults()
	precacheEntries := sw.Precache

	artifacts := []struct {
		name  string
		value any
		raw   []byte
	}{
		{name: SidebarJSON, value: res.Sidebar},
		{name: SidebarHTML, raw: sidebarHTML.Bytes()},
		{name: WebManifestFile, value: webManifest},
		{name: ServiceWorkerCfg, value: sw},
		{name: PrecacheManifest, value: precacheEntries},
	}

	dir := res.Config.Output.Directory
	for _, a := range artifacts {
		data := a.raw
		if data == nil {
			var err error
			if data, err = json.MarshalIndent(a.value, "", "  "); err != nil {
				return derrors.InternalError(fmt.Sprintf("encode %s", a.name), err)
			}
			data = append(data, '\n')
		}
		if err := s.writeArtifact(dir, a.name, data); err != nil {
			return err
		}
		r.report.Outputs.AddOutput(a.name, data)
	}

	// The report is final apart from status and duration, which are known
	// only once this stage returns.
	r.report.Status = string(BuildStatusSuccess)
	r.report.Duration = s.now().Sub(res.StartTime).Milliseconds()
	data, err := r.report.ToJSON()
	if err != nil {
		return derrors.InternalError("encode build manifest", err)
	}
	return s.writeArtifact(dir, BuildManifest, append(data, '\n'))
}

func (s *DefaultBuildService) writeArtifact(dir, name string, data []byte) error {
	path := filepath.Join(dir, name)
	if err := writeFileAtomic(path, data); err != nil {
		return derrors.WriteError(path, err)
	}
	slog.Debug("Wrote artifact", logfields.File(name), slog.Int("bytes", len(data)))
	return nil
}
