// Package controller provides output adapters for displaying bundling results.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	m "kjsbundle.dev/pkg/kjsbundle/internal/model"
)

// VerifyResult is what Verify found out about a bundle.
type VerifyResult struct {
	Goal     string
	Output   m.Path
	UpToDate bool
	// Diff is a unified diff between the saved and the expected manifest.
	Diff string
}

// UI defines how workflow results are shown.
// Implementations can use different output methods (plain text, TUI).
type UI interface {
	DisplayEntries(ctx context.Context, goal string, entries []m.Entry) error
	DisplayBundle(ctx context.Context, manifest m.Manifest) error
	DisplayVerify(ctx context.Context, result VerifyResult) error
	// StartWatch shows that roots are watched. The returned context is
	// cancelled when the user closes an interactive display.
	StartWatch(ctx context.Context, goal string, roots []m.Path) context.Context
	// StopWatch releases the display started by StartWatch.
	StopWatch(ctx context.Context)
	DisplayWatchEvent(ctx context.Context, changed []m.Path)
	DisplayError(ctx context.Context, err error)
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewUI returns an interactive TUI when useTTY is true and plain SimpleUI output otherwise.
func NewUI(cmd *cobra.Command, useTTY bool) UI {
	if useTTY {
		return NewTUI(cmd)
	}

	return NewSimpleUI(cmd, false)
}
