package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
	"git.home.luguber.info/inful/docsite/internal/pwa"
	"git.home.luguber.info/inful/docsite/internal/webmanifest"
)

const guidesYAML = `site:
  title: ${DOCSITE_TEST_TITLE}
  credits: true
  social:
    github: https://github.com/example/docs
sidebar:
  - label: Guides
    items:
      - label: Example Guide
        slug: guides/example
components:
  Search: ./src/components/Search.astro
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_YAMLWithEnvExpansionAndDefaults(t *testing.T) {
	t.Setenv("DOCSITE_TEST_TITLE", "Guides Site")
	dir := t.TempDir()
	path := writeFile(t, dir, "docsite.yaml", guidesYAML)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "Guides Site", cfg.Site.Title)
	require.Len(t, cfg.Sidebar, 1)
	assert.Equal(t, []NavItem{{Label: "Example Guide", Slug: "guides/example"}}, cfg.Sidebar[0].Items)
	assert.Equal(t, filepath.Join(dir, "src/content/docs"), cfg.Content.Dir)
	assert.Equal(t, filepath.Join(dir, "dist"), cfg.Output.BuildDir)
	assert.Equal(t, filepath.Join(dir, "webmanifest.json"), cfg.PWA.Manifest)
	assert.Equal(t, pwa.ModeProduction, cfg.PWA.Mode)
	assert.True(t, cfg.PWA.Workbox.ClaimsClients())
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "DOCSITE_DOTENV_TITLE=From Dotenv\n")
	path := writeFile(t, dir, "docsite.yaml", "site:\n  title: ${DOCSITE_DOTENV_TITLE}\n")
	t.Cleanup(func() { _ = os.Unsetenv("DOCSITE_DOTENV_TITLE") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "From Dotenv", cfg.Site.Title)
}

func TestLoad_TOMLAndJSONMatchYAML(t *testing.T) {
	dir := t.TempDir()
	tomlPath := writeFile(t, dir, "docsite.toml", `
[site]
title = "Docs"

[[sidebar]]
label = "Guides"

[[sidebar.items]]
label = "Example Guide"
slug = "guides/example"

[pwa.workbox]
skip_waiting = false
navigate_fallback = "/offline"
`)
	jsonPath := writeFile(t, dir, "docsite.json", `{
  "site": {"title": "Docs"},
  "sidebar": [{"label": "Guides", "items": [{"label": "Example Guide", "slug": "guides/example"}]}],
  "pwa": {"workbox": {"skip_waiting": false, "navigate_fallback": "/offline"}}
}`)

	for _, path := range []string{tomlPath, jsonPath} {
		cfg, err := Load(path)
		require.NoError(t, err, path)
		assert.Equal(t, "Docs", cfg.Site.Title, path)
		assert.Equal(t, []string{"guides/example"}, cfg.Slugs(), path)
		assert.False(t, cfg.PWA.Workbox.SkipsWaiting(), path)
		assert.True(t, cfg.PWA.Workbox.ClaimsClients(), path)
		assert.Equal(t, "/offline", cfg.PWA.Workbox.NavigateFallback, path)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryConfig))

	bad := writeFile(t, dir, "bad.yaml", "site: [unclosed\n")
	_, err = Load(bad)
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryConfig))
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := &Config{
		Site: SiteConfig{Social: map[string]string{"github": "github.com/x"}},
		Sidebar: []NavGroup{
			{Label: "", Items: nil},
			{Label: "Guides", Items: []NavItem{
				{Label: "", Slug: "/guides/example"},
				{Label: "Bad", Slug: "guides/../secret"},
				{Label: "Space", Slug: "guides/my page"},
				{Label: "Empty", Slug: ""},
			}},
		},
		Components: map[string]string{"Head": ""},
	}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryValidation))

	msg := err.Error()
	for _, want := range []string{
		"site.title is empty",
		`site.social.github "github.com/x"`,
		"sidebar[0].label is empty",
		"sidebar[0] () has no items",
		"sidebar[1].items[0].label is empty",
		`"/guides/example" must not start or end with /`,
		`"guides/../secret" must not contain relative segments`,
		`"guides/my page" must not contain whitespace`,
		"sidebar[1].items[4].slug \"\" is empty",
		"components.Head path is empty",
	} {
		assert.Contains(t, msg, want)
	}
}

func TestValidate_DuplicateGroupLabelsAllowed(t *testing.T) {
	cfg := &Config{
		Site: SiteConfig{Title: "Docs"},
		Sidebar: []NavGroup{
			{Label: "Guides", Items: []NavItem{{Label: "A", Slug: "a"}}},
			{Label: "Guides", Items: []NavItem{{Label: "B", Slug: "b"}}},
		},
	}
	cfg.ApplyDefaults()
	assert.NoError(t, cfg.Validate())
}

func TestInit_WritesValidExample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docsite.yaml")

	require.NoError(t, Init(path, false))
	assert.Error(t, Init(path, false), "existing file must not be overwritten")
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Len(t, cfg.Sidebar, 4)
	labels := []string{}
	for _, g := range cfg.Sidebar {
		labels = append(labels, g.Label)
	}
	assert.Equal(t, []string{"Guides", "Overview", "Backend", "On-Chain"}, labels)
	assert.Len(t, cfg.Sidebar[2].Items, 15)
	assert.Equal(t, "backend/setup/install", cfg.Sidebar[2].Items[0].Slug)
	assert.Equal(t, []string{"Head", "Search"}, cfg.ComponentSlots())
	assert.True(t, cfg.PWA.Experimental.DirectoryAndTrailingSlashHandler)
	assert.Len(t, cfg.Slugs(), 25)
}

func TestInit_WritesReferencedWebManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docsite.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	m, err := webmanifest.Load(cfg.PWA.Manifest)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.Equal(t, "My IP Space development docs", m.Name)

	// An existing manifest is kept unless force is given.
	require.NoError(t, os.WriteFile(cfg.PWA.Manifest, []byte(`{"name": "Mine"}`), 0o600))
	require.NoError(t, os.Remove(path))
	require.NoError(t, Init(path, false))
	data, err := os.ReadFile(cfg.PWA.Manifest)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "Mine"}`, string(data))

	require.NoError(t, Init(path, true))
	m, err = webmanifest.Load(cfg.PWA.Manifest)
	require.NoError(t, err)
	assert.Equal(t, "My IP Space development docs", m.Name)
}
