// Package model defines the data structures shared by the bundling workflow.
package model

import (
	"path/filepath"
	"strings"
)

// Path represents a file system path.
type Path string

// String returns the path as a plain string.
func (p Path) String() string {
	return string(p)
}

// Join appends elements to the path using the OS separator.
func (p Path) Join(elem ...string) Path {
	return Path(filepath.Join(append([]string{string(p)}, elem...)...))
}

// Empty reports whether the path is blank once surrounding whitespace is removed.
func (p Path) Empty() bool {
	return strings.TrimSpace(string(p)) == ""
}

// FileRef is a path together with the metadata the collector needs to decide
// whether it can be walked.
type FileRef struct {
	Path   Path
	Exists bool
	IsDir  bool
}

// Walkable reports whether the reference points at an existing directory.
func (f FileRef) Walkable() bool {
	return f.Exists && f.IsDir
}

// DirPair holds the two project output directories fed into a test bundle.
type DirPair struct {
	Main FileRef
	Test FileRef
}
