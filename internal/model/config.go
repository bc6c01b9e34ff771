package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidConfig is returned when a bundle configuration cannot be used.
var ErrInvalidConfig = errors.New("invalid bundle configuration")

// Config is the resolved configuration of one bundle goal invocation.
type Config struct {
	ExtractDirectory Path
	OutputDirectory  Path
	OutputFilename   string
	DependencyScope  Scope
	// Include limits bundled files to these extensions. Empty means every file.
	Include []string
}

// OutputPath is the location of the bundle file.
func (c Config) OutputPath() Path {
	return c.OutputDirectory.Join(c.OutputFilename)
}

// Validate checks that the configuration describes a writable bundle target.
func (c Config) Validate() error {
	if c.OutputDirectory.Empty() {
		return fmt.Errorf("%w: output directory is empty", ErrInvalidConfig)
	}

	name := strings.TrimSpace(c.OutputFilename)
	if name == "" {
		return fmt.Errorf("%w: output filename is empty", ErrInvalidConfig)
	}

	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: output filename %q must not contain a path", ErrInvalidConfig, c.OutputFilename)
	}

	if !c.DependencyScope.Valid() {
		return fmt.Errorf("%w: unknown dependency scope %q", ErrInvalidConfig, c.DependencyScope)
	}

	return nil
}

// Includes reports whether a file path passes the extension filter.
func (c Config) Includes(path string) bool {
	if len(c.Include) == 0 {
		return true
	}

	for _, ext := range c.Include {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}

		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}

		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	return false
}
