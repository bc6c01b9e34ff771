// Package adapter contains the filesystem and persistence adapters used by the bundler.
package adapter

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	m "kjsbundle.dev/pkg/kjsbundle/internal/model"
)

// SourceFSAdapter abstracts filesystem-specific operations that the domain layer
// relies on when collecting and bundling project output. It hides direct `os`
// access so the workflow logic can be tested on an in-memory filesystem.
//
//nolint:interfacebloat // A richer interface keeps workflow logic decoupled from os/fs.
type SourceFSAdapter interface {
	// Fs exposes the underlying filesystem for streaming readers and writers.
	Fs() afero.Fs

	// Stat resolves a path to a FileRef. Missing or unreadable paths report
	// Exists=false instead of an error.
	Stat(path m.Path) m.FileRef

	// Walk traverses root recursively in lexical order. A symlinked root is
	// followed; symlinks below it are reported but not descended into.
	Walk(root m.Path, fn FilepathWalkFunc) error

	// ReadFile loads a file and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// HashFile returns the SHA-256 fingerprint of the file at path.
	HashFile(path m.Path) (string, error)

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path m.Path) error

	// RemoveAll removes a directory and all its contents.
	RemoveAll(path m.Path) error

	// RelPath returns the slash-separated path of target relative to base.
	RelPath(base, target m.Path) (string, error)
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk. It is
// defined here to avoid leaking the standard-library type directly into the
// domain layer.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// LocalSourceFSAdapter implements SourceFSAdapter on top of an afero filesystem.
type LocalSourceFSAdapter struct {
	fs afero.Fs
}

// NewLocalSourceFSAdapter constructs an adapter backed by the real OS filesystem.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return NewSourceFSAdapter(afero.NewOsFs())
}

// NewSourceFSAdapter constructs an adapter backed by fs.
func NewSourceFSAdapter(fs afero.Fs) *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{fs: fs}
}

// Fs returns the wrapped filesystem.
func (a *LocalSourceFSAdapter) Fs() afero.Fs {
	return a.fs
}

// Stat reports existence and type of path.
func (a *LocalSourceFSAdapter) Stat(path m.Path) m.FileRef {
	ref := m.FileRef{Path: path}

	if path.Empty() {
		return ref
	}

	info, err := a.fs.Stat(string(path))
	if err != nil {
		return ref
	}

	ref.Exists = true
	ref.IsDir = info.IsDir()

	return ref
}

// Walk iterates over every entry under root, root included. A symlinked root
// is resolved so it walks like Stat sees it; links below the root are not
// followed. Visited paths keep the root as given.
func (a *LocalSourceFSAdapter) Walk(root m.Path, fn FilepathWalkFunc) error {
	given := string(root)
	resolved := a.resolveLink(given)

	return afero.Walk(a.fs, resolved, func(path string, info os.FileInfo, err error) error {
		if resolved != given {
			if rel, relErr := filepath.Rel(resolved, path); relErr == nil {
				path = filepath.Join(given, rel)
			}
		}

		return fn(path, info, err)
	})
}

// maxLinkHops bounds symlink chains followed by resolveLink.
const maxLinkHops = 16

// resolveLink follows path while it is a symlink. Filesystems without link
// support and broken links return path unchanged.
func (a *LocalSourceFSAdapter) resolveLink(path string) string {
	lstater, ok := a.fs.(afero.Lstater)
	if !ok {
		return path
	}

	reader, ok := a.fs.(afero.LinkReader)
	if !ok {
		return path
	}

	current := path

	for range maxLinkHops {
		info, lstatCalled, err := lstater.LstatIfPossible(current)
		if err != nil || !lstatCalled || info.Mode()&os.ModeSymlink == 0 {
			return current
		}

		target, err := reader.ReadlinkIfPossible(current)
		if err != nil {
			return path
		}

		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(current), target)
		}

		current = target
	}

	return path
}

// ReadFile loads file contents.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return afero.ReadFile(a.fs, string(path))
}

// HashFile returns the SHA-256 hash of the file at the provided path.
func (a *LocalSourceFSAdapter) HashFile(path m.Path) (string, error) {
	f, err := a.fs.Open(string(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// MkdirAll creates path and its parents.
func (a *LocalSourceFSAdapter) MkdirAll(path m.Path) error {
	return a.fs.MkdirAll(string(path), 0o750)
}

// RemoveAll removes a directory and all its contents.
func (a *LocalSourceFSAdapter) RemoveAll(path m.Path) error {
	return a.fs.RemoveAll(string(path))
}

// RelPath returns the relative path from base to target.
func (a *LocalSourceFSAdapter) RelPath(base, target m.Path) (string, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(rel), nil
}
