package controller

import (
	"bytes"
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "kjsbundle.dev/pkg/kjsbundle/internal/model"
)

var (
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	faintStyle = lipgloss.NewStyle().Faint(true)
)

// SimpleUI implements UI using the cobra command's output writer.
type SimpleUI struct {
	cmd    *cobra.Command
	styled bool
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command, styled bool) *SimpleUI {
	return &SimpleUI{cmd: cmd, styled: styled}
}

// DisplayEntries prints the entries a goal would bundle.
func (s *SimpleUI) DisplayEntries(ctx context.Context, goal string, entries []m.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s\n", s.style(faintStyle, fmt.Sprintf("Goal %s", goal)))
	s.printf("%s", renderEntryTable(entries))

	return nil
}

func renderEntryTable(entries []m.Entry) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Origin", "Path", "Size"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	var total int64

	for _, entry := range entries {
		table.Append([]string{string(entry.Origin), string(entry.Path), fmt.Sprintf("%d", entry.Size)})
		total += entry.Size
	}

	table.SetFooter([]string{
		"",
		fmt.Sprintf("Total Files %d", len(entries)),
		fmt.Sprintf("%d", total),
	})

	table.Render()

	return tableBuffer.String()
}

// DisplayBundle prints a summary of a written bundle.
func (s *SimpleUI) DisplayBundle(ctx context.Context, manifest m.Manifest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s %s (%d files, %d bytes)\n",
		s.style(okStyle, "Bundled"), manifest.Output, len(manifest.Entries), manifest.Size)

	return nil
}

// DisplayVerify prints whether a bundle is up to date, with the diff when it is not.
func (s *SimpleUI) DisplayVerify(ctx context.Context, result VerifyResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if result.UpToDate {
		s.printf("%s %s\n", s.style(okStyle, "Up to date"), result.Output)
		return nil
	}

	s.printf("%s %s\n", s.style(warnStyle, "Stale"), result.Output)

	if result.Diff != "" {
		s.printf("%s", result.Diff)
	}

	return nil
}

// StartWatch prints the watched roots. Plain output has nothing to close, so
// ctx is returned as is.
func (s *SimpleUI) StartWatch(ctx context.Context, goal string, roots []m.Path) context.Context {
	if err := ctx.Err(); err != nil {
		return ctx
	}

	s.printf("Watching %d director(ies) for %s, press Ctrl+C to stop\n", len(roots), goal)

	for _, root := range roots {
		s.printf("  %s\n", s.style(faintStyle, string(root)))
	}

	return ctx
}

// StopWatch does nothing for plain output.
func (s *SimpleUI) StopWatch(context.Context) {}

// DisplayWatchEvent prints a batch of changed paths.
func (s *SimpleUI) DisplayWatchEvent(ctx context.Context, changed []m.Path) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%d change(s) detected, rebundling\n", len(changed))
}

// DisplayError prints a non-fatal error.
func (s *SimpleUI) DisplayError(_ context.Context, err error) {
	if err == nil {
		return
	}

	s.printf("%s %v\n", s.style(errorStyle, "Error"), err)
}

func (s *SimpleUI) style(style lipgloss.Style, text string) string {
	if !s.styled {
		return text
	}

	return style.Render(text)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
