package pwa

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/webmanifest"
)

func TestNewServiceWorkerConfig(t *testing.T) {
	opts := defaultOptions()
	opts.Experimental.DirectoryAndTrailingSlashHandler = true
	pc, err := BuildPrecache(context.Background(), buildOutput(), opts)
	require.NoError(t, err)

	m := webmanifest.Manifest{Name: "docs", Icons: []webmanifest.Icon{{Src: "/i.png", Sizes: "192x192"}}}
	cfg := NewServiceWorkerConfig(opts, m, pc)

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "production", doc["mode"])
	assert.Equal(t, "autoUpdate", doc["registerType"])

	wb := doc["workbox"].(map[string]any)
	assert.Equal(t, true, wb["skipWaiting"])
	assert.Equal(t, true, wb["clientsClaim"])
	assert.Equal(t, "/404", wb["navigateFallback"])
	assert.Equal(t, []any{"."}, wb["ignoreURLParametersMatching"])

	exp := doc["experimental"].(map[string]any)
	assert.Equal(t, true, exp["directoryAndTrailingSlashHandler"])

	man := doc["manifest"].(map[string]any)
	assert.Equal(t, "docs", man["name"])
	assert.Equal(t, "standalone", man["display"])

	assert.Len(t, doc["precache"], len(pc.Entries))
}

func TestNewServiceWorkerConfig_NoPrecache(t *testing.T) {
	cfg := NewServiceWorkerConfig(defaultOptions(), webmanifest.Manifest{Name: "docs"}, nil)
	assert.NotNil(t, cfg.Precache)
	assert.Empty(t, cfg.Precache)
}
