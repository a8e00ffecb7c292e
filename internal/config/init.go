package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/pwa"
	"git.home.luguber.info/inful/docsite/internal/webmanifest"
)

// Example returns the descriptor written by Init.
func Example() *Config {
	skip, claim := true, true
	cfg := &Config{
		Site: SiteConfig{
			Title:     "My IP Space development docs",
			Credits:   true,
			CustomCSS: []string{"./src/styles/custom.css"},
			Social: map[string]string{
				"github": "https://github.com/sanabel-al-firdaws/Starlight-Pwa",
			},
		},
		Sidebar: []NavGroup{
			{Label: "Guides", Items: []NavItem{
				{Label: "Example Guide", Slug: "guides/example"},
			}},
			{Label: "Overview", Items: []NavItem{
				{Label: "About", Slug: "overview/about"},
				{Label: "User Stories", Slug: "overview/user-stories"},
				{Label: "Technologies", Slug: "overview/technologies"},
				{Label: "Workflow", Slug: "overview/workflow"},
			}},
			{Label: "Backend", Items: []NavItem{
				{Label: "Setup", Slug: "backend/setup/install"},
				{Label: "Project Structure", Slug: "backend/setup/project-structure"},
				{Label: "Users Module", Slug: "backend/modules/users"},
				{Label: "Entities Module", Slug: "backend/modules/entities"},
				{Label: "RFP Module", Slug: "backend/modules/rfp"},
				{Label: "RTS Module", Slug: "backend/modules/rts"},
				{Label: "Escrow Module", Slug: "backend/modules/escrow"},
				{Label: "Chat Module", Slug: "backend/modules/chat"},
				{Label: "Notifications Module", Slug: "backend/modules/notifications"},
				{Label: "Notes Module", Slug: "backend/modules/notes"},
				{Label: "Prisma Setup", Slug: "backend/database/prisma-setup"},
				{Label: "Database Migrations", Slug: "backend/database/migrations"},
				{Label: "API Endpoints", Slug: "backend/api/endpoints"},
				{Label: "Docker Setup", Slug: "backend/deployment/docker"},
				{Label: "Production Deployment", Slug: "backend/deployment/production"},
			}},
			{Label: "On-Chain", Items: []NavItem{
				{Label: "Overview", Slug: "on-chain/overview"},
				{Label: "Smart Contracts", Slug: "on-chain/smart-contracts"},
				{Label: "Chainlink Integration", Slug: "on-chain/chainlink-integration"},
				{Label: "Escrow Contracts", Slug: "on-chain/escrow-contract"},
				{Label: "Deployment", Slug: "on-chain/deployment"},
			}},
		},
		Components: map[string]string{
			"Head":   "./src/components/Head.astro",
			"Search": "./src/components/Search.astro",
		},
		PWA: pwa.Options{
			Mode:         pwa.ModeProduction,
			RegisterType: pwa.RegisterAutoUpdate,
			Manifest:     "webmanifest.json",
			Workbox: pwa.Workbox{
				GlobPatterns:                []string{pwa.DefaultGlobPattern},
				SkipWaiting:                 &skip,
				ClientsClaim:                &claim,
				NavigateFallback:            "/404",
				IgnoreURLParametersMatching: []string{"."},
			},
			Experimental: pwa.Experimental{DirectoryAndTrailingSlashHandler: true},
		},
	}
	return cfg
}

// Init creates a new descriptor file with example content, plus the web
// manifest it references. An existing manifest is only replaced with force.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return derrors.New(derrors.CategoryConfig, derrors.SeverityFatal, fmt.Sprintf("descriptor %s already exists (use --force to overwrite)", configPath)).
			WithContext("path", configPath)
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return fmt.Errorf("failed to marshal descriptor: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return derrors.WriteError(configPath, err)
	}

	return writeExampleManifest(configPath, force)
}

func writeExampleManifest(configPath string, force bool) error {
	example := Example()
	path := filepath.Join(filepath.Dir(configPath), example.PWA.Manifest)
	if _, err := os.Stat(path); err == nil && !force {
		slog.Info("Keeping existing web manifest", "path", path)
		return nil
	}
	data, err := json.MarshalIndent(webmanifest.Example(example.Site.Title), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal web manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return derrors.WriteError(path, err)
	}
	return nil
}
