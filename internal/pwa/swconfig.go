package pwa

import (
	"git.home.luguber.info/inful/docsite/internal/webmanifest"
)

// ServiceWorkerConfig is the document handed to the service-worker generator.
// Field names follow the generator's own option names.
type ServiceWorkerConfig struct {
	Mode         Mode                 `json:"mode"`
	RegisterType RegisterType         `json:"registerType"`
	Workbox      WorkboxConfig        `json:"workbox"`
	Experimental ExperimentalConfig   `json:"experimental"`
	Manifest     webmanifest.Manifest `json:"manifest"`
	Precache     []Entry              `json:"precache"`
}

// WorkboxConfig mirrors Workbox with resolved flags.
type WorkboxConfig struct {
	GlobPatterns                  []string `json:"globPatterns"`
	SkipWaiting                   bool     `json:"skipWaiting"`
	ClientsClaim                  bool     `json:"clientsClaim"`
	NavigateFallback              string   `json:"navigateFallback,omitempty"`
	IgnoreURLParametersMatching   []string `json:"ignoreURLParametersMatching"`
	MaximumFileSizeToCacheInBytes int64    `json:"maximumFileSizeToCacheInBytes"`
}

// ExperimentalConfig mirrors Experimental.
type ExperimentalConfig struct {
	DirectoryAndTrailingSlashHandler bool `json:"directoryAndTrailingSlashHandler"`
}

// NewServiceWorkerConfig merges the caching options, the external manifest
// and the scanned precache into one document. precache may be nil when no
// build output was scanned.
func NewServiceWorkerConfig(opts Options, manifest webmanifest.Manifest, precache *Precache) ServiceWorkerConfig {
	cfg := ServiceWorkerConfig{
		Mode:         opts.Mode,
		RegisterType: opts.RegisterType,
		Workbox: WorkboxConfig{
			GlobPatterns:                  append([]string(nil), opts.Workbox.GlobPatterns...),
			SkipWaiting:                   opts.Workbox.SkipsWaiting(),
			ClientsClaim:                  opts.Workbox.ClaimsClients(),
			NavigateFallback:              opts.Workbox.NavigateFallback,
			IgnoreURLParametersMatching:   append([]string{}, opts.Workbox.IgnoreURLParametersMatching...),
			MaximumFileSizeToCacheInBytes: opts.Workbox.MaximumFileSizeToCacheInBytes,
		},
		Experimental: ExperimentalConfig{
			DirectoryAndTrailingSlashHandler: opts.Experimental.DirectoryAndTrailingSlashHandler,
		},
		Manifest: manifest.WithDefaults(),
		Precache: []Entry{},
	}
	if precache != nil {
		cfg.Precache = append(cfg.Precache, precache.Entries...)
	}
	return cfg
}
