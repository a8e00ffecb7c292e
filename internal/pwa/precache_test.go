package pwa

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildOutput() fstest.MapFS {
	return fstest.MapFS{
		"index.html":                {Data: []byte("<html>home</html>")},
		"404.html":                  {Data: []byte("<html>missing</html>")},
		"guides/example/index.html": {Data: []byte("<html>guide</html>")},
		"_astro/app.js":             {Data: []byte("console.log(1)")},
		"_astro/app.css":            {Data: []byte("body{}")},
		"robots.txt":                {Data: []byte("User-agent: *")},
		"big.wasm":                  {Data: make([]byte, 64)},
	}
}

func TestBuildPrecache_SelectsAndSorts(t *testing.T) {
	opts := defaultOptions()
	opts.Workbox.MaximumFileSizeToCacheInBytes = 32

	pc, err := BuildPrecache(context.Background(), buildOutput(), opts)
	require.NoError(t, err)

	urls := make([]string, 0, len(pc.Entries))
	for _, e := range pc.Entries {
		urls = append(urls, e.URL)
		assert.Len(t, e.Revision, 32)
	}
	assert.Equal(t, []string{"404.html", "_astro/app.css", "_astro/app.js", "guides/example/index.html", "index.html"}, urls)
	require.Len(t, pc.Skipped, 1)
	assert.Equal(t, "big.wasm", pc.Skipped[0].URL)
	assert.True(t, pc.Has("index.html"))
	assert.False(t, pc.Has("robots.txt"))
}

func TestBuildPrecache_RevisionTracksContent(t *testing.T) {
	opts := defaultOptions()
	a, err := BuildPrecache(context.Background(), fstest.MapFS{"index.html": {Data: []byte("a")}}, opts)
	require.NoError(t, err)
	b, err := BuildPrecache(context.Background(), fstest.MapFS{"index.html": {Data: []byte("b")}}, opts)
	require.NoError(t, err)
	assert.NotEqual(t, a.Entries[0].Revision, b.Entries[0].Revision)
	// md5("a")
	assert.Equal(t, "0cc175b9c0f1b6a831c399e269772661", a.Entries[0].Revision)
}

func TestBuildPrecache_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildPrecache(ctx, buildOutput(), defaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildPrecache_ExcludesDirectories(t *testing.T) {
	fsys := buildOutput()
	fsys[".docsite/sidebar.json"] = &fstest.MapFile{Data: []byte("{}")}
	fsys[".docsite/sw-config.json"] = &fstest.MapFile{Data: []byte("{}")}

	pc, err := BuildPrecache(context.Background(), fsys, defaultOptions(), ".docsite")
	require.NoError(t, err)
	assert.False(t, pc.Has(".docsite/sidebar.json"))
	assert.False(t, pc.Has(".docsite/sw-config.json"))
	assert.True(t, pc.Has("index.html"))
}

func TestScanDir_SkipsNestedOutputDirectory(t *testing.T) {
	root := t.TempDir()
	for rel, body := range map[string]string{
		"index.html":            "<html></html>",
		".docsite/sidebar.json": "{}",
		"nested/.docsite/a.js":  "1",
	} {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}

	pc, err := ScanDir(context.Background(), root, filepath.Join(root, ".docsite"), defaultOptions())
	require.NoError(t, err)
	urls := make([]string, 0, len(pc.Entries))
	for _, e := range pc.Entries {
		urls = append(urls, e.URL)
	}
	assert.Equal(t, []string{"index.html", "nested/.docsite/a.js"}, urls)

	// An output directory outside the build directory excludes nothing.
	pc, err = ScanDir(context.Background(), root, t.TempDir(), defaultOptions())
	require.NoError(t, err)
	assert.Len(t, pc.Entries, 3)
}

func TestSubdir(t *testing.T) {
	assert.Equal(t, ".docsite", subdir("/site/dist", "/site/dist/.docsite"))
	assert.Equal(t, "a/b", subdir("/site/dist", "/site/dist/a/b"))
	assert.Empty(t, subdir("/site/dist", "/site/dist"))
	assert.Empty(t, subdir("/site/dist", "/site/out"))
	assert.Empty(t, subdir("/site/dist", "/site"))
	assert.Empty(t, subdir("/site/dist", ""))
	assert.Equal(t, "..cache", subdir("/site/dist", "/site/dist/..cache"))
}
