package ui

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlainModel() (*scanModel, *Tracker) {
	tr := NewTracker()
	m := newScanModel(tr, "/docs")
	m.styles = NoColorStyles()
	return m, tr
}

func TestNewTUIRenderer_RejectsNonTTY(t *testing.T) {
	r, err := NewTUIRenderer(NewConfig(&bytes.Buffer{}))

	assert.Error(t, err)
	assert.Nil(t, r)
}

func TestScanModel_InitialView(t *testing.T) {
	m, _ := newPlainModel()

	view := m.View()

	assert.Contains(t, view, "brainlib scan: /docs")
	assert.Contains(t, view, "Reading documents...")
}

func TestScanModel_ProgressView(t *testing.T) {
	// Given: a model halfway through a scan
	m, tr := newPlainModel()
	tr.Update(ProgressEvent{Current: 2, Total: 4, File: "budget.pdf", Chunks: 7})

	// When: rendering
	view := m.View()

	// Then: counts and the current file are shown
	assert.Contains(t, view, "50%")
	assert.Contains(t, view, "2 / 4 files, 7 chunks")
	assert.Contains(t, view, "budget.pdf")
}

func TestScanModel_ErrorCount(t *testing.T) {
	m, tr := newPlainModel()
	tr.AddError(ErrorEvent{File: "x.pdf"})

	assert.Contains(t, m.View(), "1 failed")
}

func TestScanModel_Complete(t *testing.T) {
	// Given: a running model
	m, _ := newPlainModel()

	// When: the scan completes
	_, cmd := m.Update(completeMsg(Summary{Files: 3, Indexed: 2, Failed: 1, Chunks: 5, Duration: 2 * time.Second}))

	// Then: the program quits and the summary is shown
	require.NotNil(t, cmd)
	view := m.View()
	assert.Contains(t, view, "Scan complete")
	assert.Contains(t, view, "2 of 3 files")
	assert.Contains(t, view, "1 failed")
}

func TestScanModel_QuitCallsInterrupt(t *testing.T) {
	m, _ := newPlainModel()
	called := false
	m.interrupt = func() { called = true }

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	assert.True(t, called)
	assert.NotNil(t, cmd)
	assert.Equal(t, "Cancelled.\n", m.View())
}

func TestScanModel_WindowResize(t *testing.T) {
	m, _ := newPlainModel()

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Equal(t, 100, m.width)
	assert.Equal(t, 76, m.bar.Width)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{5 * time.Second, "5s"},
		{2 * time.Minute, "2m"},
		{2*time.Minute + 5*time.Second, "2m 5s"},
		{time.Hour + 3*time.Minute, "1h 3m"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDuration(tt.in))
		})
	}
}

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "short.md", truncateName("short.md", 20))
	assert.Equal(t, "...-report.pdf", truncateName("quarterly-report.pdf", 14))
	assert.Equal(t, "...", truncateName("abcdef", 2))
}
