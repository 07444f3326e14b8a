package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUIRenderer draws an animated progress panel using bubbletea.
type TUIRenderer struct {
	mu        sync.Mutex
	cfg       Config
	program   *tea.Program
	model     *scanModel
	tracker   *Tracker
	started   bool
	done      chan struct{}
	interrupt func()
}

// NewTUIRenderer creates a TUI renderer. It fails when the output is not a
// terminal.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, errors.New("output is not a TTY")
	}

	tracker := NewTracker()
	model := newScanModel(tracker, cfg.Dir)
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:     cfg,
		tracker: tracker,
		model:   model,
		done:    make(chan struct{}),
	}, nil
}

// OnInterrupt sets the function called when the user presses ctrl+c or q.
// The terminal is in raw mode while the TUI runs, so SIGINT is not
// delivered to the process.
func (r *TUIRenderer) OnInterrupt(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interrupt = fn
	r.model.interrupt = fn
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}

	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

// UpdateProgress implements Renderer.
func (r *TUIRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.Update(event)
	if r.program != nil {
		r.program.Send(progressMsg(event))
	}
}

// AddError implements Renderer.
func (r *TUIRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.AddError(event)
	if r.program != nil {
		r.program.Send(errorMsg(event))
	}
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		r.program.Send(completeMsg(s))
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	program := r.program
	r.mu.Unlock()

	if program == nil {
		return nil
	}

	program.Quit()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		// An unresponsive program must not hang the CLI on exit.
	}
	return nil
}

type (
	progressMsg ProgressEvent
	errorMsg    ErrorEvent
	completeMsg Summary
	tickMsg     time.Time
)

// scanModel is the bubbletea model for a document scan.
type scanModel struct {
	tracker   *Tracker
	spinner   spinner.Model
	bar       progress.Model
	styles    Styles
	dir       string
	width     int
	quitting  bool
	complete  bool
	summary   Summary
	interrupt func()
}

func newScanModel(tracker *Tracker, dir string) *scanModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))

	return &scanModel{
		tracker: tracker,
		spinner: s,
		bar: progress.New(
			progress.WithSolidFill(ColorAccent),
			progress.WithWidth(40),
			progress.WithoutPercentage(),
		),
		styles: DefaultStyles(),
		dir:    dir,
		width:  80,
	}
}

// Init implements tea.Model.
func (m *scanModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *scanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			if m.interrupt != nil {
				m.interrupt()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(msg.Width-24, 20)

	case progressMsg, errorMsg:
		// The tracker is updated by the renderer; the next frame shows it.
		return m, nil

	case completeMsg:
		m.complete = true
		m.summary = Summary(msg)
		return m, tea.Quit

	case tickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m *scanModel) View() string {
	if m.quitting {
		return "Cancelled.\n"
	}
	if m.complete {
		return m.renderComplete()
	}

	snap := m.tracker.Snapshot()
	width := max(m.width-4, 40)

	lines := []string{m.renderProgress(snap)}
	if snap.File != "" {
		lines = append(lines, m.styles.Dim.Render(truncateName(snap.File, width-2)))
	}
	lines = append(lines, m.renderStatus(snap))

	title := "brainlib scan"
	if m.dir != "" {
		title = fmt.Sprintf("brainlib scan: %s", m.dir)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Header.Render(title),
		m.styles.Panel.Width(width).Render(strings.Join(lines, "\n")),
	) + "\n"
}

func (m *scanModel) renderProgress(snap Snapshot) string {
	if snap.Total == 0 {
		return fmt.Sprintf("%s %s", m.spinner.View(), m.styles.Dim.Render("Reading documents..."))
	}
	pct := m.styles.Active.Render(fmt.Sprintf("%3.0f%%", snap.Progress*100))
	count := m.styles.Label.Render(fmt.Sprintf("%d / %d files, %s", snap.Current, snap.Total, plural(snap.Chunks, "chunk")))
	return fmt.Sprintf("%s  %s\n%s", m.bar.ViewAs(snap.Progress), pct, count)
}

func (m *scanModel) renderStatus(snap Snapshot) string {
	var parts []string
	if snap.ETA > 0 {
		parts = append(parts, m.styles.Label.Render("ETA "+formatDuration(snap.ETA)))
	}
	if snap.WarnCount > 0 {
		parts = append(parts, m.styles.Warning.Render(fmt.Sprintf("%d warnings", snap.WarnCount)))
	}
	if snap.ErrorCount > 0 {
		parts = append(parts, m.styles.Error.Render(fmt.Sprintf("%d failed", snap.ErrorCount)))
	}
	parts = append(parts, m.styles.Dim.Render("q to quit"))
	return strings.Join(parts, m.styles.Dim.Render("  |  "))
}

func (m *scanModel) renderComplete() string {
	s := m.summary
	lines := []string{
		m.styles.Success.Render("Scan complete"),
		"",
		fmt.Sprintf("%s  %s", m.styles.Label.Render("Indexed: "), m.styles.Active.Render(fmt.Sprintf("%d of %d files", s.Indexed, s.Files))),
		fmt.Sprintf("%s  %s", m.styles.Label.Render("Chunks:  "), m.styles.Active.Render(fmt.Sprintf("%d", s.Chunks))),
		fmt.Sprintf("%s  %s", m.styles.Label.Render("Duration:"), m.styles.Active.Render(formatDuration(s.Duration))),
	}
	if s.Skipped > 0 {
		lines = append(lines, m.styles.Warning.Render(fmt.Sprintf("%d skipped", s.Skipped)))
	}
	if s.Failed > 0 {
		lines = append(lines, m.styles.Error.Render(fmt.Sprintf("%d failed", s.Failed)))
	}
	return m.styles.Panel.Width(max(m.width-4, 40)).Render(strings.Join(lines, "\n")) + "\n"
}

// formatDuration formats a duration for humans.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m, s := int(d.Minutes()), int(d.Seconds())%60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// truncateName shortens a file name to maxLen, keeping its end.
func truncateName(name string, maxLen int) string {
	if len(name) <= maxLen {
		return name
	}
	if maxLen <= 3 {
		return "..."
	}
	return "..." + name[len(name)-maxLen+3:]
}

var _ Renderer = (*TUIRenderer)(nil)
