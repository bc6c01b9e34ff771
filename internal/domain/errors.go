package domain

import (
	"errors"
	"fmt"

	m "kjsbundle.dev/pkg/kjsbundle/internal/model"
)

var (
	// ErrBundleStale is returned by Verify when the bundle no longer matches its inputs.
	ErrBundleStale = errors.New("bundle is out of date")
	// ErrUnsafeArchivePath is returned for archive entries escaping the extract directory.
	ErrUnsafeArchivePath = errors.New("archive entry escapes extract directory")
	// ErrArchiveEntryTooLarge is returned for archive entries above MaxArchiveEntrySize.
	ErrArchiveEntryTooLarge = errors.New("archive entry too large")
	// ErrUnknownGoal is returned when a goal name is not registered.
	ErrUnknownGoal = errors.New("unknown goal")
)

// BundleError describes an I/O failure while producing a bundle.
type BundleError struct {
	Op   string
	Path m.Path
	Err  error
}

func (e *BundleError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *BundleError) Unwrap() error {
	return e.Err
}

func bundleErr(op string, path m.Path, err error) error {
	return &BundleError{Op: op, Path: path, Err: err}
}
