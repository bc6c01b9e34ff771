package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	m "kjsbundle.dev/pkg/kjsbundle/internal/model"
)

// DefaultDebounce groups rapid changes (a compiler rewriting an output tree) into one batch.
const DefaultDebounce = 300 * time.Millisecond

// ChangeHandler receives a deduplicated, sorted batch of changed paths.
type ChangeHandler func(ctx context.Context, changed []m.Path) error

// ChangeWatcher notifies about filesystem changes below a set of roots.
type ChangeWatcher interface {
	Watch(ctx context.Context, roots []m.Path, handler ChangeHandler) error
}

// FSNotifyWatcher watches directories recursively with fsnotify.
type FSNotifyWatcher struct {
	Debounce time.Duration
	// Ignore filters out events for paths the caller writes itself.
	Ignore func(path string) bool
}

// NewChangeWatcher returns a watcher using DefaultDebounce.
func NewChangeWatcher(ignore func(path string) bool) *FSNotifyWatcher {
	return &FSNotifyWatcher{Debounce: DefaultDebounce, Ignore: ignore}
}

// Watch blocks until ctx is cancelled or the handler fails.
func (w *FSNotifyWatcher) Watch(ctx context.Context, roots []m.Path, handler ChangeHandler) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	defer func() {
		_ = watcher.Close()
	}()

	for _, root := range roots {
		target := nearestExistingDir(string(root))
		if target == "" {
			slog.Warn("nothing to watch for root", "root", root)
			continue
		}

		if err := addRecursive(watcher, target); err != nil {
			return fmt.Errorf("watch %s: %w", target, err)
		}
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	timer := time.NewTimer(debounce)
	timer.Stop()

	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if w.Ignore != nil && w.Ignore(event.Name) {
				continue
			}

			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(watcher, event.Name); err != nil {
						slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}

			pending[event.Name] = struct{}{}

			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			slog.Warn("file watcher error", "error", err)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}

			batch := make([]m.Path, 0, len(pending))
			for path := range pending {
				batch = append(batch, m.Path(path))
			}

			sort.Slice(batch, func(i, j int) bool { return batch[i] < batch[j] })
			clear(pending)

			if err := handler(ctx, batch); err != nil {
				return err
			}
		}
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, matching the collector.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if !d.IsDir() {
			return nil
		}

		return watcher.Add(path)
	})
}

// nearestExistingDir climbs from path until it finds an existing directory so
// output directories that do not exist yet are still noticed once created.
func nearestExistingDir(path string) string {
	dir := filepath.Clean(path)

	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}

		dir = parent
	}
}
