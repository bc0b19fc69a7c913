package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoreMatcher(t *testing.T) {
	m, err := NewIgnoreMatcher([]string{"*.swp", ".git/", "tmp"})
	require.NoError(t, err)

	assert.True(t, m.Matches("values.yaml.swp"))
	assert.True(t, m.Matches(".git/HEAD"))
	assert.True(t, m.Matches(filepath.Join("tmp", "scratch.yaml")))
	assert.False(t, m.Matches("values.yaml"))
	assert.False(t, m.Matches(filepath.Join("templates", "deployment.yaml")))
}

func TestLoadIgnore(t *testing.T) {
	dir := t.TempDir()
	content := "# OS cruft\n.DS_Store\n\n*.tmp\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".helmignore"), []byte(content), 0644))

	m, err := LoadIgnore(dir)
	require.NoError(t, err)
	assert.True(t, m.Matches(".DS_Store"))
	assert.True(t, m.Matches("notes.tmp"))
	assert.False(t, m.Matches("Chart.yaml"))
}

func TestLoadIgnoreMissingFile(t *testing.T) {
	m, err := LoadIgnore(t.TempDir())
	require.NoError(t, err)
	assert.False(t, m.Matches("anything.yaml"))
}

type changeRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *changeRecorder) record(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *changeRecorder) seen(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.paths {
		if p == path {
			return true
		}
	}
	return false
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestWatcherReportsWrites(t *testing.T) {
	chartDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(chartDir, "templates"), 0755))

	rec := &changeRecorder{}
	w, err := New(chartDir, 1, rec.record)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	target := filepath.Join(chartDir, "templates", "deployment.yaml")
	require.NoError(t, os.WriteFile(target, []byte("kind: Deployment\n"), 0644))

	assert.True(t, waitFor(t, 5*time.Second, func() bool { return rec.seen(target) }),
		"expected a change report for %s", target)
}

func TestWatcherSkipsIgnoredFiles(t *testing.T) {
	chartDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(chartDir, ".helmignore"), []byte("*.swp\n"), 0644))

	rec := &changeRecorder{}
	w, err := New(chartDir, 1, rec.record)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	ignored := filepath.Join(chartDir, "values.yaml.swp")
	kept := filepath.Join(chartDir, "values.yaml")
	require.NoError(t, os.WriteFile(ignored, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(kept, []byte("replicaCount: 1\n"), 0644))

	require.True(t, waitFor(t, 5*time.Second, func() bool { return rec.seen(kept) }))
	assert.False(t, rec.seen(ignored))
}

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	chartDir := t.TempDir()

	var mu sync.Mutex
	count := 0
	w, err := New(chartDir, 500, func(string) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	target := filepath.Join(chartDir, "Chart.yaml")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(target, []byte("name: demo\n"), 0644))
		time.Sleep(20 * time.Millisecond)
	}

	require.True(t, waitFor(t, 5*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count >= 1
	}))

	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count, "rapid writes within the debounce window collapse to one report")
}
