package folio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchRebuilds(t *testing.T) {
	dir := writeSite(t, testSite())
	app := newTestApp(t, dir)
	_, err := app.Build(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan error, 8)
	stopped := make(chan error, 1)
	go func() {
		stopped <- app.Watch(ctx, func(_ BuildResult, err error) { results <- err })
	}()
	// Give the watcher time to register the tree.
	time.Sleep(100 * time.Millisecond)

	writeFile(t, filepath.Join(dir, "source", "now.md"), "---\ntitle: Now\n---\nWorking on folio.\n")
	select {
	case err := <-results:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after change")
	}
	assert.Contains(t, readOutput(t, app, "now/index.html"), "Working on folio.")

	cancel()
	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchReloadsConfig(t *testing.T) {
	dir := writeSite(t, testSite())
	cfgPath := filepath.Join(dir, "config.toml")
	writeFile(t, cfgPath, "title = \"Before\"\n")
	cfg, err := LoadConfig(cfgPath)
	require.NoError(t, err)

	app := newTestApp(t, dir)
	app.Config = cfg
	_, err = app.Build(context.Background())
	require.NoError(t, err)
	assert.Contains(t, readOutput(t, app, "index.html"), "<title>Before</title>")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	results := make(chan error, 8)
	go app.Watch(ctx, func(_ BuildResult, err error) { results <- err })
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(cfgPath, []byte("title = \"After\"\nbuild_dir = \"public\"\n"), 0o644))
	select {
	case err := <-results:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after config change")
	}
	assert.Equal(t, "After", app.Config.Title)
	assert.Equal(t, "build", app.Config.BuildDir, "build_dir only changes on restart")
	assert.Contains(t, readOutput(t, app, "index.html"), "<title>After</title>")
	_, err = os.Stat(filepath.Join(dir, "public"))
	assert.True(t, os.IsNotExist(err))
}

func TestWithin(t *testing.T) {
	roots := []string{"/site/source", "/site/data"}
	assert.True(t, within("/site/source/blog/post.md", roots))
	assert.True(t, within("/site/data", roots))
	assert.False(t, within("/site/sourcecode/x", roots))
	assert.False(t, within("/site/build/index.html", roots))
}
