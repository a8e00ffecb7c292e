package build

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/history"
	"git.home.luguber.info/inful/docsite/internal/manifest"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/pwa"
	"git.home.luguber.info/inful/docsite/internal/sidebar"
)

const siteDescriptor = `site:
  title: Example Docs
sidebar:
  - label: Guides
    items:
      - label: Example Guide
        slug: guides/example
pwa:
  experimental:
    directory_and_trailing_slash_handler: true
`

const siteManifest = `{
  "name": "Example Docs",
  "icons": [{"src": "/icon-512.png", "sizes": "512x512", "type": "image/png"}],
  "theme_color": "#112233"
}`

// recordingRecorder captures stage results for assertions.
type recordingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	stages   map[string]metrics.ResultLabel
	outcomes []string
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{stages: map[string]metrics.ResultLabel{}}
}

func (r *recordingRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[stage] = result
}

func (r *recordingRecorder) IncBuildOutcome(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func writeSiteFile(t *testing.T, root, rel, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

// newSite lays out a descriptor, content tree, web manifest and rendered
// build directory, returning the descriptor path.
func newSite(t *testing.T, descriptor string) string {
	t.Helper()
	root := t.TempDir()
	writeSiteFile(t, root, "docsite.yaml", descriptor)
	writeSiteFile(t, root, "webmanifest.json", siteManifest)
	writeSiteFile(t, root, "src/content/docs/index.md", "# Home\n")
	writeSiteFile(t, root, "src/content/docs/guides/example.md", "---\ndescription: x\n---\n# Example Guide\n")
	writeSiteFile(t, root, "dist/index.html", "<html>home</html>")
	writeSiteFile(t, root, "dist/404.html", "<html>missing</html>")
	writeSiteFile(t, root, "dist/guides/example/index.html", "<html>guide</html>")
	writeSiteFile(t, root, "dist/_astro/app.js", "console.log(1)")
	writeSiteFile(t, root, "dist/style.css", "body{}")
	writeSiteFile(t, root, "dist/notes.txt", "not precached")
	return filepath.Join(root, "docsite.yaml")
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestRun_WritesAllArtifacts(t *testing.T) {
	cfgPath := newSite(t, siteDescriptor)
	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	rec := newRecordingRecorder()

	svc := NewBuildService().WithRecorder(rec).WithHistory(store)
	res, err := svc.Run(t.Context(), BuildRequest{ConfigPath: cfgPath})
	require.NoError(t, err)

	assert.Equal(t, BuildStatusSuccess, res.Status)
	assert.True(t, res.Status.IsSuccess())
	assert.Empty(t, res.FailedStage)
	outDir := filepath.Join(filepath.Dir(cfgPath), "dist", ".docsite")
	assert.Equal(t, outDir, res.OutputPath)

	for _, name := range []string{SidebarJSON, SidebarHTML, WebManifestFile, ServiceWorkerCfg, PrecacheManifest, BuildManifest} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}

	var sb sidebar.Sidebar
	readJSON(t, filepath.Join(outDir, SidebarJSON), &sb)
	require.Len(t, sb.Groups, 1)
	require.Len(t, sb.Groups[0].Links, 1)
	assert.Equal(t, "/guides/example/", sb.Groups[0].Links[0].Href)

	f, err := os.Open(filepath.Join(outDir, SidebarHTML))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rendered, err := sidebar.Inspect(f)
	require.NoError(t, err)
	assert.Equal(t, 1, rendered.LinkCount())

	var entries []pwa.Entry
	readJSON(t, filepath.Join(outDir, PrecacheManifest), &entries)
	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		urls = append(urls, e.URL)
	}
	assert.Equal(t, []string{"404.html", "_astro/app.js", "guides/example/index.html", "index.html", "style.css"}, urls)

	var sw map[string]any
	readJSON(t, filepath.Join(outDir, ServiceWorkerCfg), &sw)
	assert.Equal(t, "autoUpdate", sw["registerType"])
	workbox, ok := sw["workbox"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, workbox["skipWaiting"])
	assert.Equal(t, true, workbox["clientsClaim"])
	assert.Equal(t, "/404", workbox["navigateFallback"])

	var webManifest map[string]any
	readJSON(t, filepath.Join(outDir, WebManifestFile), &webManifest)
	assert.Equal(t, "standalone", webManifest["display"])
	assert.Equal(t, "/", webManifest["start_url"])

	data, err := os.ReadFile(filepath.Join(outDir, BuildManifest))
	require.NoError(t, err)
	report, err := manifest.FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, res.BuildID, report.ID)
	assert.Equal(t, "success", report.Status)
	assert.Equal(t, 2, report.Counts.Documents)
	assert.Equal(t, 1, report.Counts.SidebarLinks)
	assert.Equal(t, 5, report.Counts.PrecacheEntries)
	assert.Equal(t, []string{"Guides"}, report.Plan.Groups)
	assert.Len(t, report.Outputs.Files, 5)
	assert.NotEmpty(t, report.Inputs.DescriptorHash)

	for _, stage := range Stages {
		assert.Equal(t, metrics.ResultSuccess, rec.stages[stage], stage)
	}
	assert.Equal(t, []string{"success"}, rec.outcomes)

	runs, err := store.Recent(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.BuildID, runs[0].BuildID)
	assert.Equal(t, 5, runs[0].PrecacheEntries)
}

func TestRun_UnresolvedSlugsFailTheBuild(t *testing.T) {
	cfgPath := newSite(t, `site:
  title: Example Docs
sidebar:
  - label: Guides
    items:
      - label: Example Guide
        slug: guides/example
      - label: Missing
        slug: guides/missing
  - label: Reference
    items:
      - label: Also Missing
        slug: reference/api
`)
	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	res, err := NewBuildService().WithHistory(store).Run(t.Context(), BuildRequest{ConfigPath: cfgPath})
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryContent))
	assert.Contains(t, err.Error(), "guides/missing")
	assert.Contains(t, err.Error(), "reference/api")

	assert.Equal(t, BuildStatusFailed, res.Status)
	assert.Equal(t, StageSidebar, res.FailedStage)
	require.Len(t, res.Unresolved, 2)
	assert.Equal(t, "Reference", res.Unresolved[1].Group)
	assert.NoDirExists(t, filepath.Join(filepath.Dir(cfgPath), "dist", ".docsite"))

	runs, err := store.Recent(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "failed", runs[0].Status)
	assert.Equal(t, 2, runs[0].Unresolved)
	assert.NotEmpty(t, runs[0].Error)
}

func TestRun_ValidationFailure(t *testing.T) {
	cfgPath := newSite(t, "site:\n  title: \"\"\nsidebar: []\n")

	res, err := NewBuildService().Run(t.Context(), BuildRequest{ConfigPath: cfgPath})
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryValidation))
	assert.Equal(t, StageValidate, res.FailedStage)
}

func TestRun_MissingDescriptor(t *testing.T) {
	res, err := NewBuildService().Run(t.Context(), BuildRequest{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryConfig))
	assert.Equal(t, StageLoad, res.FailedStage)
}

func TestRun_InvalidWebManifest(t *testing.T) {
	cfgPath := newSite(t, siteDescriptor)
	writeSiteFile(t, filepath.Dir(cfgPath), "webmanifest.json", `{"icons": []}`)

	res, err := NewBuildService().Run(t.Context(), BuildRequest{ConfigPath: cfgPath})
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryManifest))
	assert.Equal(t, StageManifest, res.FailedStage)
}

func TestRun_SkipsPrecacheWithoutBuildDir(t *testing.T) {
	cfgPath := newSite(t, siteDescriptor)
	outDir := t.TempDir()
	rec := newRecordingRecorder()

	res, err := NewBuildService().WithRecorder(rec).Run(t.Context(), BuildRequest{
		ConfigPath: cfgPath,
		OutputDir:  outDir,
		BuildDir:   filepath.Join(t.TempDir(), "absent"),
	})
	require.NoError(t, err)
	assert.Nil(t, res.Precache)
	assert.Equal(t, metrics.ResultSkipped, rec.stages[StagePrecache])

	var entries []pwa.Entry
	readJSON(t, filepath.Join(outDir, PrecacheManifest), &entries)
	assert.Empty(t, entries)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	cfgPath := newSite(t, siteDescriptor)
	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	res, err := NewBuildService().WithHistory(store).Run(t.Context(), BuildRequest{
		ConfigPath: cfgPath,
		Options:    BuildOptions{DryRun: true},
	})
	require.NoError(t, err)
	require.NotNil(t, res.ServiceWorker)
	assert.Len(t, res.ServiceWorker.Precache, 5)
	assert.NoDirExists(t, res.OutputPath)

	runs, err := store.Recent(t.Context(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRun_RebuildIgnoresOwnArtifacts(t *testing.T) {
	cfgPath := newSite(t, siteDescriptor)
	svc := NewBuildService()

	first, err := svc.Run(t.Context(), BuildRequest{ConfigPath: cfgPath})
	require.NoError(t, err)
	second, err := svc.Run(t.Context(), BuildRequest{ConfigPath: cfgPath})
	require.NoError(t, err)

	assert.Equal(t, first.Precache.Entries, second.Precache.Entries)
	assert.NotEqual(t, first.BuildID, second.BuildID)
}

func TestRun_Cancelled(t *testing.T) {
	cfgPath := newSite(t, siteDescriptor)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	res, err := NewBuildService().Run(ctx, BuildRequest{ConfigPath: cfgPath})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, BuildStatusCancelled, res.Status)
	assert.True(t, res.Status.IsTerminal())
}

func TestRun_DraftsExcludedInProduction(t *testing.T) {
	cfgPath := newSite(t, siteDescriptor)
	writeSiteFile(t, filepath.Dir(cfgPath), "src/content/docs/guides/example.md", "---\ndraft: true\n---\n# Example Guide\n")

	res, err := NewBuildService().Run(t.Context(), BuildRequest{ConfigPath: cfgPath, Options: BuildOptions{DryRun: true}})
	require.Error(t, err)
	require.Len(t, res.Unresolved, 1)
	assert.Equal(t, "guides/example", res.Unresolved[0].Slug)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.json")

	require.NoError(t, writeFileAtomic(path, []byte("one")))
	require.NoError(t, writeFileAtomic(path, []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
	assert.WithinDuration(t, time.Now(), info.ModTime(), time.Minute)
}
