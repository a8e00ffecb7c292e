package webmanifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
)

const sampleManifest = `{
  "name": "My IP Space docs",
  "short_name": "IP Docs",
  "theme_color": "#1e1e2e",
  "background_color": "#ffffff",
  "display": "standalone",
  "icons": [
    {"src": "/pwa-192x192.png", "sizes": "192x192", "type": "image/png"},
    {"src": "/pwa-512x512.png", "sizes": "512x512", "type": "image/png", "purpose": "any maskable"}
  ],
  "categories": ["documentation"]
}`

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "webmanifest.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_ValidManifest(t *testing.T) {
	m, err := Load(writeManifest(t, sampleManifest))
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.Equal(t, "My IP Space docs", m.Name)
	assert.Len(t, m.Icons, 2)
	assert.Equal(t, []string{"categories"}, m.ExtraKeys())
}

func TestLoad_InvalidJSON(t *testing.T) {
	_, err := Load(writeManifest(t, `{"name": `))
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryManifest))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryManifest))
}

func TestValidate_RequiresNameAndIcons(t *testing.T) {
	m, err := Parse([]byte(`{"short_name": "x"}`))
	require.NoError(t, err)

	err = m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "at least one icon is required")
}

func TestValidate_RejectsMalformedFields(t *testing.T) {
	m := &Manifest{
		Name:       "docs",
		Display:    "window",
		ThemeColor: "#zzz",
		Icons:      []Icon{{Src: "", Sizes: "large"}},
	}
	err := m.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "icons[0].src is required")
	assert.Contains(t, msg, `icons[0].sizes "large" is not WxH`)
	assert.Contains(t, msg, `display "window"`)
	assert.Contains(t, msg, `theme_color "#zzz"`)
}

func TestValidate_AcceptsAnySizes(t *testing.T) {
	m := &Manifest{Name: "docs", Icons: []Icon{{Src: "/icon.svg", Sizes: "any"}}}
	assert.NoError(t, m.Validate())
}

func TestMarshal_PreservesExtraFields(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	out, err := json.Marshal(m)
	require.NoError(t, err)

	var round map[string]any
	require.NoError(t, json.Unmarshal(out, &round))
	assert.Equal(t, []any{"documentation"}, round["categories"])
	assert.Equal(t, "IP Docs", round["short_name"])
}

func TestWithDefaults(t *testing.T) {
	m := Manifest{Name: "docs"}
	d := m.WithDefaults()
	assert.Equal(t, "/", d.StartURL)
	assert.Equal(t, "standalone", d.Display)
	assert.Equal(t, "docs", d.ShortName)
	assert.Empty(t, m.StartURL, "original must not change")
}
