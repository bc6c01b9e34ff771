package domain

import (
	"errors"
	"iter"
	"log/slog"
	"os"
	"path/filepath"

	"kjsbundle.dev/pkg/kjsbundle/internal/adapter"
	m "kjsbundle.dev/pkg/kjsbundle/internal/model"
)

// errStopWalk aborts a walk when the consumer stops ranging over the sequence.
var errStopWalk = errors.New("stop walk")

// Collector lists the entries of project output directories.
type Collector interface {
	// Collect yields every entry under mainDir followed by every entry under
	// testDir. Directories that are missing or not directories yield nothing.
	Collect(mainDir, testDir m.Path) iter.Seq[m.Entry]

	// CollectRoots applies the same rules to any number of roots, in order.
	CollectRoots(roots ...m.Root) iter.Seq[m.Entry]

	// Pair resolves the two candidate directories of a test bundle.
	Pair(mainDir, testDir m.Path) m.DirPair
}

type collector struct {
	fsAdapter adapter.SourceFSAdapter
}

// NewCollector constructs a Collector walking through fsAdapter.
func NewCollector(fsAdapter adapter.SourceFSAdapter) Collector {
	return &collector{fsAdapter: fsAdapter}
}

func (c *collector) Pair(mainDir, testDir m.Path) m.DirPair {
	return m.DirPair{
		Main: c.fsAdapter.Stat(mainDir),
		Test: c.fsAdapter.Stat(testDir),
	}
}

func (c *collector) Collect(mainDir, testDir m.Path) iter.Seq[m.Entry] {
	return c.CollectRoots(
		m.Root{Path: mainDir, Origin: m.OriginMain},
		m.Root{Path: testDir, Origin: m.OriginTest},
	)
}

func (c *collector) CollectRoots(roots ...m.Root) iter.Seq[m.Entry] {
	return func(yield func(m.Entry) bool) {
		for _, root := range roots {
			if !c.walkRoot(root, yield) {
				return
			}
		}
	}
}

// walkRoot returns false once the consumer asked to stop.
func (c *collector) walkRoot(root m.Root, yield func(m.Entry) bool) bool {
	ref := c.fsAdapter.Stat(root.Path)
	if !ref.Walkable() {
		slog.Debug("skipping root", "root", root.Path, "origin", root.Origin, "exists", ref.Exists, "dir", ref.IsDir)
		return true
	}

	stopped := false

	err := c.fsAdapter.Walk(root.Path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			slog.Debug("skipping unreadable entry", "path", path, "error", err)

			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		rel, relErr := c.fsAdapter.RelPath(root.Path, m.Path(path))
		if relErr != nil {
			rel = filepath.ToSlash(path)
		}

		entry := m.Entry{
			Origin: root.Origin,
			Root:   root.Path,
			Path:   m.Path(path),
			Rel:    rel,
			IsDir:  info.IsDir(),
		}

		if !entry.IsDir {
			entry.Size = info.Size()
		}

		if !yield(entry) {
			stopped = true
			return errStopWalk
		}

		return nil
	})

	if err != nil && !errors.Is(err, errStopWalk) && !errors.Is(err, filepath.SkipDir) {
		slog.Debug("walk ended early", "root", root.Path, "error", err)
	}

	return !stopped
}
