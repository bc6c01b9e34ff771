package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	m "kjsbundle.dev/pkg/kjsbundle/internal/model"
)

const (
	maxChangeRows    = 10
	minChangeColumn  = 40
	timestampLayout  = "15:04:05"
	changeColumnName = "Changed"
)

var titleStyle = lipgloss.NewStyle().Bold(true)

// TUI implements UI using Bubble Tea while a watch is running. Everything
// else, and any output sent while no watch display is shown, goes through
// the embedded SimpleUI.
type TUI struct {
	*SimpleUI

	// interactive reads keys from the terminal. Without it the display only renders.
	interactive bool

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
	cancel  context.CancelFunc
}

// NewTUI creates a new TUI reading keys from the terminal.
func NewTUI(cmd *cobra.Command) *TUI {
	return newTUI(cmd, true)
}

func newTUI(cmd *cobra.Command, interactive bool) *TUI {
	return &TUI{SimpleUI: NewSimpleUI(cmd, true), interactive: interactive}
}

// StartWatch shows the watch display until StopWatch is called. The returned
// context is cancelled when the user quits the display.
func (t *TUI) StartWatch(ctx context.Context, goal string, roots []m.Path) context.Context {
	if err := ctx.Err(); err != nil {
		return ctx
	}

	watchCtx, cancel := context.WithCancel(ctx)

	opts := []tea.ProgramOption{tea.WithOutput(t.cmd.OutOrStdout()), tea.WithContext(watchCtx)}
	if !t.interactive {
		opts = append(opts, tea.WithInput(nil))
	}

	program := tea.NewProgram(newWatchModel(goal, roots), opts...)
	done := make(chan struct{})

	t.mu.Lock()
	t.program, t.done, t.cancel = program, done, cancel
	t.mu.Unlock()

	go t.run(program, done, cancel)

	return watchCtx
}

func (t *TUI) run(program *tea.Program, done chan struct{}, cancel context.CancelFunc) {
	defer close(done)

	final, err := program.Run()

	t.mu.Lock()
	if t.program == program {
		t.program = nil
	}
	t.mu.Unlock()

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		slog.Warn("watch display stopped, falling back to plain output", "error", err)
		return
	}

	if model, ok := final.(watchModel); ok && model.quitting {
		cancel()
	}
}

// StopWatch closes the watch display and waits for the terminal to be restored.
func (t *TUI) StopWatch(context.Context) {
	t.mu.Lock()
	program, done, cancel := t.program, t.done, t.cancel
	t.program, t.done, t.cancel = nil, nil, nil
	t.mu.Unlock()

	if program != nil {
		program.Quit()
	}

	if done != nil {
		<-done
	}

	if cancel != nil {
		cancel()
	}
}

// DisplayBundle updates the bundle summary of the watch display.
func (t *TUI) DisplayBundle(ctx context.Context, manifest m.Manifest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if t.send(bundleMsg{manifest: manifest, at: time.Now()}) {
		return nil
	}

	return t.SimpleUI.DisplayBundle(ctx, manifest)
}

// DisplayWatchEvent replaces the table of changed paths.
func (t *TUI) DisplayWatchEvent(ctx context.Context, changed []m.Path) {
	if ctx.Err() != nil {
		return
	}

	if t.send(changesMsg{changed: changed, at: time.Now()}) {
		return
	}

	t.SimpleUI.DisplayWatchEvent(ctx, changed)
}

// DisplayError shows the last failure in the watch display.
func (t *TUI) DisplayError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	if t.send(failureMsg{err: err, at: time.Now()}) {
		return
	}

	t.SimpleUI.DisplayError(ctx, err)
}

func (t *TUI) send(msg tea.Msg) bool {
	t.mu.Lock()
	program := t.program
	t.mu.Unlock()

	if program == nil {
		return false
	}

	program.Send(msg)

	return true
}

type changesMsg struct {
	changed []m.Path
	at      time.Time
}

type bundleMsg struct {
	manifest m.Manifest
	at       time.Time
}

type failureMsg struct {
	err error
	at  time.Time
}

// watchModel renders the state of a running watch.
type watchModel struct {
	goal    string
	roots   []m.Path
	spinner spinner.Model
	changes table.Model
	hidden  int

	bundling bool
	summary  string
	failure  string
	quitting bool
}

func newWatchModel(goal string, roots []m.Path) watchModel {
	return watchModel{
		goal:  goal,
		roots: roots,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(faintStyle),
		),
		changes: table.New(
			table.WithColumns([]table.Column{{Title: changeColumnName, Width: minChangeColumn}}),
			table.WithFocused(false),
			table.WithHeight(1),
		),
		bundling: true,
	}
}

func (wm watchModel) Init() tea.Cmd {
	return wm.spinner.Tick
}

func (wm watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			wm.quitting = true

			return wm, tea.Quit
		}

		return wm, nil
	case tea.WindowSizeMsg:
		wm.changes.SetColumns([]table.Column{{Title: changeColumnName, Width: max(minChangeColumn, msg.Width-4)}})

		return wm, nil
	case changesMsg:
		wm.setChanges(msg.changed, msg.at)
		wm.bundling = true

		return wm, nil
	case bundleMsg:
		wm.bundling = false
		wm.failure = ""
		wm.summary = fmt.Sprintf("%s %s (%d files, %d bytes) at %s",
			okStyle.Render("Bundled"), msg.manifest.Output, len(msg.manifest.Entries), msg.manifest.Size,
			msg.at.Format(timestampLayout))

		return wm, nil
	case failureMsg:
		wm.bundling = false
		wm.failure = fmt.Sprintf("%s %v at %s", errorStyle.Render("Error"), msg.err, msg.at.Format(timestampLayout))

		return wm, nil
	}

	var cmd tea.Cmd
	wm.spinner, cmd = wm.spinner.Update(msg)

	return wm, cmd
}

func (wm *watchModel) setChanges(changed []m.Path, at time.Time) {
	shown := changed[:min(len(changed), maxChangeRows)]
	wm.hidden = len(changed) - len(shown)

	rows := make([]table.Row, 0, len(shown))
	for _, path := range shown {
		rows = append(rows, table.Row{fmt.Sprintf("%s  %s", at.Format(timestampLayout), path)})
	}

	wm.changes.SetRows(rows)
	wm.changes.SetHeight(len(rows) + 1)
}

func (wm watchModel) View() string {
	if wm.quitting {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("kjsbundle watch"), wm.goal)

	for _, root := range wm.roots {
		fmt.Fprintf(&b, "  %s\n", faintStyle.Render(string(root)))
	}

	b.WriteString("\n")

	if wm.bundling {
		fmt.Fprintf(&b, "%s bundling\n", wm.spinner.View())
	} else {
		fmt.Fprintf(&b, "%s waiting for changes\n", wm.spinner.View())
	}

	if wm.summary != "" {
		fmt.Fprintf(&b, "%s\n", wm.summary)
	}

	if wm.failure != "" {
		fmt.Fprintf(&b, "%s\n", wm.failure)
	}

	if len(wm.changes.Rows()) > 0 {
		fmt.Fprintf(&b, "\n%s\n", wm.changes.View())

		if wm.hidden > 0 {
			fmt.Fprintf(&b, "%s\n", faintStyle.Render(fmt.Sprintf("and %d more", wm.hidden)))
		}
	}

	fmt.Fprintf(&b, "\n%s\n", faintStyle.Render("q quit"))

	return b.String()
}
