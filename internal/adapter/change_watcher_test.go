package adapter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "kjsbundle.dev/pkg/kjsbundle/internal/model"
)

func TestNearestExistingDir(t *testing.T) {
	root := t.TempDir()

	assert.Equal(t, root, nearestExistingDir(root))
	assert.Equal(t, root, nearestExistingDir(filepath.Join(root, "missing", "deeper")))
}

func TestFSNotifyWatcher_DeliversBatches(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "nested")
	mustMkdir(t, nested)

	ignored := filepath.Join(root, "bundle.js")
	watcher := NewChangeWatcher(func(path string) bool { return path == ignored })
	watcher.Debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches := make(chan []m.Path, 16)
	done := make(chan error, 1)

	go func() {
		done <- watcher.Watch(ctx, []m.Path{m.Path(root)}, func(_ context.Context, changed []m.Path) error {
			batches <- changed
			return nil
		})
	}()

	target := filepath.Join(nested, "App.js")
	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	var got []m.Path

wait:
	for {
		select {
		case got = <-batches:
			break wait
		case <-ticker.C:
			writeTestFile(t, ignored, "ignored\n")
			writeTestFile(t, target, "console.log('app');\n")
		case <-deadline:
			t.Fatalf("no change batch delivered")
		}
	}

	for _, path := range got {
		assert.False(t, strings.HasSuffix(string(path), "bundle.js"), "ignored path delivered: %s", path)
	}
	assert.Contains(t, got, m.Path(target))

	cancel()
	require.NoError(t, <-done)
}

func TestFSNotifyWatcher_HandlerErrorStopsWatch(t *testing.T) {
	root := t.TempDir()

	watcher := NewChangeWatcher(nil)
	watcher.Debounce = 10 * time.Millisecond

	done := make(chan error, 1)
	go func() {
		done <- watcher.Watch(context.Background(), []m.Path{m.Path(root)}, func(context.Context, []m.Path) error {
			return os.ErrPermission
		})
	}()

	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			require.ErrorIs(t, err, os.ErrPermission)
			return
		case <-ticker.C:
			writeTestFile(t, filepath.Join(root, "App.js"), time.Now().String())
		case <-deadline:
			t.Fatalf("watch did not stop after handler error")
		}
	}
}
