package domain

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/errgroup"

	"kjsbundle.dev/pkg/kjsbundle/internal/adapter"
	m "kjsbundle.dev/pkg/kjsbundle/internal/model"
)

// MaxArchiveEntrySize bounds a single unpacked archive entry.
const MaxArchiveEntrySize = 256 << 20

// DefaultExtractWorkers is the number of archives unpacked concurrently.
const DefaultExtractWorkers = 4

// Extractor unpacks JavaScript dependency archives.
type Extractor interface {
	// Targets returns the directory each in-scope artifact is unpacked into,
	// in artifact order, without touching the filesystem.
	Targets(artifacts []m.Artifact, scope m.Scope, dir m.Path) []ExtractTarget

	// Extract unpacks every in-scope artifact and returns the target directories.
	Extract(ctx context.Context, artifacts []m.Artifact, scope m.Scope, dir m.Path) ([]m.Path, error)
}

// ExtractTarget pairs an artifact with its extraction directory.
type ExtractTarget struct {
	Artifact m.Artifact
	Dir      m.Path
}

type extractor struct {
	fsAdapter adapter.SourceFSAdapter
	workers   int
}

// NewExtractor constructs an Extractor with DefaultExtractWorkers workers.
func NewExtractor(fsAdapter adapter.SourceFSAdapter) Extractor {
	return &extractor{fsAdapter: fsAdapter, workers: DefaultExtractWorkers}
}

func (e *extractor) Targets(artifacts []m.Artifact, scope m.Scope, dir m.Path) []ExtractTarget {
	targets := make([]ExtractTarget, 0, len(artifacts))
	used := make(map[string]bool)

	for _, artifact := range artifacts {
		if !artifact.Scope.IncludedBy(scope) {
			slog.Debug("skipping out of scope artifact", "artifact", artifact.Coordinates(), "scope", artifact.Scope, "resolution", scope)
			continue
		}

		base := artifactDirName(artifact)

		name := base
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s-%d", base, n)
		}

		used[name] = true

		targets = append(targets, ExtractTarget{Artifact: artifact, Dir: dir.Join(name)})
	}

	return targets
}

// fallbackDirName is used when neither the artifact id nor the archive name
// gives a usable directory name.
const fallbackDirName = "artifact"

func artifactDirName(artifact m.Artifact) string {
	if name := dirName(artifact.ArtifactID); name != "" {
		return name
	}

	base := filepath.Base(string(artifact.Path))
	if name := dirName(strings.TrimSuffix(base, filepath.Ext(base))); name != "" {
		return name
	}

	return fallbackDirName
}

// dirName returns the last element of value if it names a child directory.
func dirName(value string) string {
	name := filepath.Base(strings.TrimSpace(value))

	switch name {
	case ".", "..", string(filepath.Separator):
		return ""
	}

	return name
}

func (e *extractor) Extract(ctx context.Context, artifacts []m.Artifact, scope m.Scope, dir m.Path) ([]m.Path, error) {
	targets := e.Targets(artifacts, scope, dir)
	dirs := make([]m.Path, len(targets))

	// Each target is cleaned before unpacking, so it must stay below dir.
	for i, target := range targets {
		if _, err := safeJoin(string(dir), filepath.Base(string(target.Dir))); err != nil {
			return nil, bundleErr("extract "+target.Artifact.Coordinates(), target.Dir, err)
		}

		dirs[i] = target.Dir
	}

	group, groupCtx := errgroup.WithContext(ctx)
	if e.workers > 0 {
		group.SetLimit(e.workers)
	}

	for _, target := range targets {
		group.Go(func() error {
			return e.extractArchive(groupCtx, target)
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("extracted dependencies", "count", len(dirs), "dir", dir)

	return dirs, nil
}

func (e *extractor) extractArchive(ctx context.Context, target ExtractTarget) error {
	fs := e.fsAdapter.Fs()
	archivePath := target.Artifact.Path

	if err := e.fsAdapter.RemoveAll(target.Dir); err != nil {
		return bundleErr("clean extract directory", target.Dir, err)
	}

	if err := e.fsAdapter.MkdirAll(target.Dir); err != nil {
		return bundleErr("create extract directory", target.Dir, err)
	}

	f, err := fs.Open(string(archivePath))
	if err != nil {
		return bundleErr("open archive", archivePath, err)
	}

	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil {
		return bundleErr("stat archive", archivePath, err)
	}

	// A reader returned together with an error still lists every entry;
	// unsafe names are rejected per entry below.
	reader, err := zip.NewReader(f, info.Size())
	if reader == nil {
		return bundleErr("read archive", archivePath, err)
	}

	if err != nil {
		slog.Debug("archive reported insecure entries", "archive", archivePath, "error", err)
	}

	extracted := 0

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !isBundledArchiveEntry(file.Name) || file.FileInfo().IsDir() {
			continue
		}

		if err := e.extractFile(target.Dir, file); err != nil {
			return bundleErr("extract "+file.Name, archivePath, err)
		}

		extracted++
	}

	slog.Debug("extracted archive", "artifact", target.Artifact.Coordinates(), "dir", target.Dir, "files", extracted)

	return nil
}

// isBundledArchiveEntry keeps JavaScript sources and drops metadata.
func isBundledArchiveEntry(name string) bool {
	if strings.HasPrefix(name, "META-INF/") || strings.HasSuffix(name, "/") {
		return false
	}

	base := path.Base(name)

	return strings.HasSuffix(base, ".js") && !strings.HasSuffix(base, ".meta.js")
}

func (e *extractor) extractFile(dir m.Path, file *zip.File) error {
	dest, err := safeJoin(string(dir), file.Name)
	if err != nil {
		return err
	}

	if file.UncompressedSize64 > MaxArchiveEntrySize {
		return fmt.Errorf("%w: %d bytes", ErrArchiveEntryTooLarge, file.UncompressedSize64)
	}

	fs := e.fsAdapter.Fs()

	if err := fs.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return err
	}

	defer func() {
		_ = src.Close()
	}()

	out, err := fs.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	n, err := io.Copy(out, io.LimitReader(src, MaxArchiveEntrySize+1))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return err
	}

	if n > MaxArchiveEntrySize {
		return fmt.Errorf("%w: more than %d bytes", ErrArchiveEntryTooLarge, int64(MaxArchiveEntrySize))
	}

	return nil
}

// safeJoin resolves a name strictly below dir, rejecting traversal.
func safeJoin(dir, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %s", ErrUnsafeArchivePath, name)
	}

	dest := filepath.Join(dir, filepath.FromSlash(name))

	rel, err := filepath.Rel(dir, dest)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeArchivePath, name)
	}

	return dest, nil
}
