package domain

import (
	"bufio"
	"context"
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"iter"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"kjsbundle.dev/pkg/kjsbundle/internal/adapter"
	m "kjsbundle.dev/pkg/kjsbundle/internal/model"
)

// Bundler concatenates collected entries into a single bundle file.
type Bundler interface {
	// Bundle writes cfg.OutputPath() atomically and returns what went into it.
	Bundle(ctx context.Context, goal string, cfg m.Config, entries iter.Seq[m.Entry]) (m.Manifest, error)

	// Plan computes the manifest Bundle would produce without writing anything.
	Plan(ctx context.Context, goal string, cfg m.Config, entries iter.Seq[m.Entry]) (m.Manifest, error)
}

type bundler struct {
	fsAdapter adapter.SourceFSAdapter
	now       func() time.Time
}

// NewBundler constructs a Bundler reading and writing through fsAdapter.
func NewBundler(fsAdapter adapter.SourceFSAdapter) Bundler {
	return &bundler{fsAdapter: fsAdapter, now: time.Now}
}

// Bundleable reports whether entry contributes content to the bundle configured by cfg.
// Directories, the bundle itself, its manifest and in-flight temp files are skipped.
func Bundleable(cfg m.Config, entry m.Entry) bool {
	if entry.IsDir {
		return false
	}

	if isBundleArtifact(cfg, string(entry.Path)) {
		return false
	}

	return cfg.Includes(string(entry.Path))
}

// isBundleArtifact reports whether path is a file the bundler itself writes.
// Paths are compared as absolute locations so relative and absolute spellings match.
func isBundleArtifact(cfg m.Config, path string) bool {
	target := absPath(path)
	output := absPath(string(cfg.OutputPath()))

	if target == output || target == output+adapter.ManifestSuffix {
		return true
	}

	return filepath.Dir(target) == filepath.Dir(output) &&
		strings.HasPrefix(filepath.Base(target), tempPrefix(cfg))
}

// absPath returns the cleaned absolute form of path, or the cleaned path when
// the working directory is unknown.
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}

	return abs
}

// withinDir reports whether path lies strictly below dir.
func withinDir(dir, path string) bool {
	rel, err := filepath.Rel(absPath(dir), absPath(path))
	if err != nil || rel == "." || rel == ".." {
		return false
	}

	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func tempPrefix(cfg m.Config) string {
	return "." + cfg.OutputFilename + "."
}

func (b *bundler) Bundle(ctx context.Context, goal string, cfg m.Config, entries iter.Seq[m.Entry]) (m.Manifest, error) {
	if err := cfg.Validate(); err != nil {
		return m.Manifest{}, err
	}

	fs := b.fsAdapter.Fs()
	output := cfg.OutputPath()

	if err := b.fsAdapter.MkdirAll(cfg.OutputDirectory); err != nil {
		return m.Manifest{}, bundleErr("create output directory", cfg.OutputDirectory, err)
	}

	tmp, err := afero.TempFile(fs, string(cfg.OutputDirectory), tempPrefix(cfg)+"*.tmp")
	if err != nil {
		return m.Manifest{}, bundleErr("create temp file", cfg.OutputDirectory, err)
	}

	tmpName := tmp.Name()
	committed := false

	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = fs.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)

	manifest, err := b.concat(ctx, goal, cfg, entries, w)
	if err != nil {
		return m.Manifest{}, err
	}

	if err := w.Flush(); err != nil {
		return m.Manifest{}, bundleErr("write", output, err)
	}

	if err := tmp.Close(); err != nil {
		return m.Manifest{}, bundleErr("close", output, err)
	}

	if err := fs.Rename(tmpName, string(output)); err != nil {
		return m.Manifest{}, bundleErr("rename", output, err)
	}

	committed = true

	slog.Info("wrote bundle", "goal", goal, "path", output, "files", len(manifest.Entries), "size", manifest.Size)

	return manifest, nil
}

func (b *bundler) Plan(ctx context.Context, goal string, cfg m.Config, entries iter.Seq[m.Entry]) (m.Manifest, error) {
	if err := cfg.Validate(); err != nil {
		return m.Manifest{}, err
	}

	return b.concat(ctx, goal, cfg, entries, io.Discard)
}

func (b *bundler) concat(ctx context.Context, goal string, cfg m.Config, entries iter.Seq[m.Entry], dst io.Writer) (m.Manifest, error) {
	bundleHash := sha256.New()
	out := &lastByteWriter{w: io.MultiWriter(dst, bundleHash)}

	manifest := m.Manifest{
		Goal:        goal,
		Output:      cfg.OutputPath(),
		GeneratedAt: b.now().UTC(),
	}

	for entry := range entries {
		if err := ctx.Err(); err != nil {
			return m.Manifest{}, err
		}

		if !Bundleable(cfg, entry) {
			continue
		}

		fileHash := sha256.New()

		n, err := b.appendFile(entry.Path, out, fileHash)
		if err != nil {
			return m.Manifest{}, err
		}

		if n > 0 && out.last != '\n' {
			if _, err := out.Write([]byte{'\n'}); err != nil {
				return m.Manifest{}, bundleErr("write", cfg.OutputPath(), err)
			}
		}

		manifest.Entries = append(manifest.Entries, m.ManifestEntry{
			Origin: entry.Origin,
			Path:   manifestPath(entry),
			Size:   n,
			SHA256: fmt.Sprintf("%x", fileHash.Sum(nil)),
		})

		slog.Debug("bundled file", "path", entry.Path, "origin", entry.Origin, "size", n)
	}

	manifest.Size = out.n
	manifest.SHA256 = fmt.Sprintf("%x", bundleHash.Sum(nil))

	return manifest, nil
}

func (b *bundler) appendFile(path m.Path, out io.Writer, fileHash hash.Hash) (int64, error) {
	f, err := b.fsAdapter.Fs().Open(string(path))
	if err != nil {
		return 0, bundleErr("open", path, err)
	}

	defer func() {
		_ = f.Close()
	}()

	n, err := io.Copy(out, io.TeeReader(f, fileHash))
	if err != nil {
		return n, bundleErr("copy", path, err)
	}

	return n, nil
}

// manifestPath names an entry in manifests. Dependency entries keep the name of
// their artifact directory so files from different archives stay distinct.
func manifestPath(entry m.Entry) string {
	if entry.Origin == m.OriginDependency {
		return filepath.Base(string(entry.Root)) + "/" + entry.Rel
	}

	return entry.Rel
}

// lastByteWriter counts bytes and remembers the last one written.
type lastByteWriter struct {
	w    io.Writer
	n    int64
	last byte
}

func (l *lastByteWriter) Write(p []byte) (int, error) {
	n, err := l.w.Write(p)
	if n > 0 {
		l.last = p[n-1]
		l.n += int64(n)
	}

	return n, err
}
