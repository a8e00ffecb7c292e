package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/content"
	"git.home.luguber.info/inful/docsite/internal/manifest"
	"git.home.luguber.info/inful/docsite/internal/pwa"
	"git.home.luguber.info/inful/docsite/internal/sidebar"
	"git.home.luguber.info/inful/docsite/internal/webmanifest"
)

// Stage names, in execution order.
const (
	StageLoad     = "load"
	StageValidate = "validate"
	StageIndex    = "index"
	StageSidebar  = "sidebar"
	StageManifest = "manifest"
	StagePrecache = "precache"
	StageWrite    = "write"
)

// Stages lists every stage in execution order.
var Stages = []string{StageLoad, StageValidate, StageIndex, StageSidebar, StageManifest, StagePrecache, StageWrite}

// Artifact file names written to the output directory.
const (
	SidebarJSON      = "sidebar.json"
	SidebarHTML      = "sidebar.html"
	WebManifestFile  = "manifest.webmanifest"
	ServiceWorkerCfg = "sw-config.json"
	PrecacheManifest = "precache-manifest.json"
	BuildManifest    = "build-manifest.json"
)

// BuildService is the canonical interface for executing descriptor builds.
type BuildService interface {
	// Run executes the pipeline: load → validate → index → sidebar → manifest → precache → write.
	// Returns a BuildResult with detailed outcomes and any error encountered.
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains all inputs required to execute a build.
type BuildRequest struct {
	// ConfigPath is the site descriptor to load.
	ConfigPath string

	// OutputDir overrides the descriptor's output directory when set.
	OutputDir string

	// BuildDir overrides the descriptor's build directory when set.
	BuildDir string

	// Options provides optional build behavior modifiers.
	Options BuildOptions
}

// BuildOptions provides optional configuration for build behavior.
type BuildOptions struct {
	// DryRun runs every stage except write and does not record history.
	DryRun bool

	// SkipPrecache skips scanning the build directory.
	SkipPrecache bool
}

// BuildResult contains the outcome of a build execution.
type BuildResult struct {
	// Status indicates overall build outcome.
	Status BuildStatus

	// BuildID identifies the build in logs, history and the report.
	BuildID string

	// Report is the build manifest written as build-manifest.json.
	Report *manifest.BuildManifest

	Config        *config.Config
	Index         *content.Index
	Sidebar       *sidebar.Sidebar
	Unresolved    []sidebar.Unresolved
	WebManifest   *webmanifest.Manifest
	Precache      *pwa.Precache
	ServiceWorker *pwa.ServiceWorkerConfig

	// FailedStage names the stage that stopped the build.
	FailedStage string

	// OutputPath is the directory the artifacts were written to.
	OutputPath string

	// Duration is the total build execution time.
	Duration time.Duration

	// StartTime is when the build started.
	StartTime time.Time

	// EndTime is when the build completed.
	EndTime time.Time
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	// BuildStatusSuccess indicates the build completed successfully.
	BuildStatusSuccess BuildStatus = "success"

	// BuildStatusFailed indicates the build encountered an error.
	BuildStatusFailed BuildStatus = "failed"

	// BuildStatusCancelled indicates the build was cancelled.
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsTerminal returns true if the status represents a final state.
func (s BuildStatus) IsTerminal() bool {
	return s == BuildStatusSuccess || s == BuildStatusFailed || s == BuildStatusCancelled
}

// IsSuccess returns true if the build completed successfully.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess
}
