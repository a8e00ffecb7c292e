package pwa

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
)

// Mode selects the build profile of the service-worker generator.
type Mode string

const (
	ModeProduction  Mode = "production"
	ModeDevelopment Mode = "development"
)

// RegisterType selects how clients pick up a new service worker.
type RegisterType string

const (
	RegisterAutoUpdate RegisterType = "autoUpdate"
	RegisterPrompt     RegisterType = "prompt"
)

// DefaultGlobPattern selects every artifact type a static docs build with a
// pagefind search index produces.
const DefaultGlobPattern = "**/*.{html,js,css,png,svg,json,ttf,pf_fragment,pf_index,pf_meta,pagefind,wasm}"

// DefaultMaximumFileSize matches workbox's default precache size limit.
const DefaultMaximumFileSize int64 = 2 * 1024 * 1024

// RequiredExtensions must be covered by the glob patterns for the site to
// render offline at all.
var RequiredExtensions = []string{"html", "js", "css"}

// Options is the caching configuration declared by a site descriptor.
type Options struct {
	Mode         Mode         `yaml:"mode,omitempty"`
	RegisterType RegisterType `yaml:"register_type,omitempty"`
	// Manifest is the path of the external web app manifest JSON file.
	Manifest     string       `yaml:"manifest,omitempty"`
	Workbox      Workbox      `yaml:"workbox"`
	Experimental Experimental `yaml:"experimental,omitempty"`
}

// Workbox holds the precache and runtime flags.
type Workbox struct {
	GlobPatterns                  []string `yaml:"glob_patterns,omitempty"`
	SkipWaiting                   *bool    `yaml:"skip_waiting,omitempty"`
	ClientsClaim                  *bool    `yaml:"clients_claim,omitempty"`
	NavigateFallback              string   `yaml:"navigate_fallback,omitempty"`
	IgnoreURLParametersMatching   []string `yaml:"ignore_url_parameters_matching,omitempty"`
	MaximumFileSizeToCacheInBytes int64    `yaml:"maximum_file_size_to_cache_in_bytes,omitempty"`
}

// Experimental toggles generator features that are not yet stable.
type Experimental struct {
	DirectoryAndTrailingSlashHandler bool `yaml:"directory_and_trailing_slash_handler,omitempty"`
}

// ApplyDefaults fills every unset field.
func (o *Options) ApplyDefaults() {
	if o.Mode == "" {
		o.Mode = ModeProduction
	}
	if o.RegisterType == "" {
		o.RegisterType = RegisterAutoUpdate
	}
	if o.Manifest == "" {
		o.Manifest = "webmanifest.json"
	}
	w := &o.Workbox
	if len(w.GlobPatterns) == 0 {
		w.GlobPatterns = []string{DefaultGlobPattern}
	}
	if w.SkipWaiting == nil {
		w.SkipWaiting = boolPtr(true)
	}
	if w.ClientsClaim == nil {
		w.ClientsClaim = boolPtr(true)
	}
	if w.NavigateFallback == "" {
		w.NavigateFallback = "/404"
	}
	if w.IgnoreURLParametersMatching == nil {
		w.IgnoreURLParametersMatching = []string{"."}
	}
	if w.MaximumFileSizeToCacheInBytes == 0 {
		w.MaximumFileSizeToCacheInBytes = DefaultMaximumFileSize
	}
}

// SkipsWaiting reports whether a new worker activates without waiting for old clients to close.
func (w Workbox) SkipsWaiting() bool { return w.SkipWaiting != nil && *w.SkipWaiting }

// ClaimsClients reports whether an activated worker takes control of open pages immediately.
func (w Workbox) ClaimsClients() bool { return w.ClientsClaim != nil && *w.ClientsClaim }

// Validate records every problem with the options into p.
func (o Options) Validate(p *derrors.Problems) {
	switch o.Mode {
	case ModeProduction, ModeDevelopment:
	default:
		p.Addf("pwa.mode %q must be %q or %q", o.Mode, ModeProduction, ModeDevelopment)
	}
	switch o.RegisterType {
	case RegisterAutoUpdate, RegisterPrompt:
	default:
		p.Addf("pwa.register_type %q must be %q or %q", o.RegisterType, RegisterAutoUpdate, RegisterPrompt)
	}
	if strings.TrimSpace(o.Manifest) == "" {
		p.Addf("pwa.manifest is empty")
	}

	w := o.Workbox
	if len(w.GlobPatterns) == 0 {
		p.Addf("pwa.workbox.glob_patterns is empty")
	}
	for i, pattern := range w.GlobPatterns {
		if strings.TrimSpace(pattern) == "" {
			p.Addf("pwa.workbox.glob_patterns[%d] is empty", i)
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			p.Addf("pwa.workbox.glob_patterns[%d] %q is not a valid glob", i, pattern)
		}
	}
	if len(w.GlobPatterns) > 0 {
		covered := Extensions(w.GlobPatterns)
		for _, ext := range RequiredExtensions {
			if _, ok := covered[ext]; !ok {
				p.Addf("pwa.workbox.glob_patterns do not cover *.%s", ext)
			}
		}
	}
	if w.NavigateFallback != "" && !strings.HasPrefix(w.NavigateFallback, "/") {
		p.Addf("pwa.workbox.navigate_fallback %q must be an absolute path", w.NavigateFallback)
	}
	for i, expr := range w.IgnoreURLParametersMatching {
		if _, err := regexp.Compile(expr); err != nil {
			p.Addf("pwa.workbox.ignore_url_parameters_matching[%d] %q: %v", i, expr, err)
		}
	}
	if w.MaximumFileSizeToCacheInBytes < 0 {
		p.Addf("pwa.workbox.maximum_file_size_to_cache_in_bytes must not be negative")
	}
}

func boolPtr(b bool) *bool { return &b }
