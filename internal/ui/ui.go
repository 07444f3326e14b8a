// Package ui renders document scan progress in the terminal.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/brainlib/internal/library"
)

// ProgressEvent reports one processed file.
type ProgressEvent struct {
	Current int
	Total   int
	File    string
	Chunks  int
}

// ErrorEvent represents a file that could not be indexed.
type ErrorEvent struct {
	File   string
	Err    error
	IsWarn bool
}

// Summary contains the final scan statistics.
type Summary struct {
	Dir      string
	Files    int
	Indexed  int
	Skipped  int
	Failed   int
	Chunks   int
	Duration time.Duration
}

// SummaryFromStats converts the statistics of a completed scan.
func SummaryFromStats(s library.ScanStats) Summary {
	return Summary{
		Dir:      s.Dir,
		Files:    s.Files,
		Indexed:  s.Indexed,
		Skipped:  s.Skipped,
		Failed:   s.Failed,
		Chunks:   s.Chunks,
		Duration: s.Duration,
	}
}

// Renderer displays scan progress.
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// UpdateProgress records a processed file.
	UpdateProgress(event ProgressEvent)

	// AddError records a file that failed.
	AddError(event ErrorEvent)

	// Complete shows the final summary.
	Complete(summary Summary)

	// Stop stops the renderer and cleans up.
	Stop() error
}

// Observe adapts a Renderer to the index's progress callback.
func Observe(r Renderer) library.ProgressFunc {
	return func(p library.Progress) {
		r.UpdateProgress(ProgressEvent{
			Current: p.Current,
			Total:   p.Total,
			File:    p.File,
			Chunks:  p.Chunks,
		})
		if p.Err != nil {
			r.AddError(ErrorEvent{File: p.File, Err: p.Err})
		}
	}
}

// Config configures the UI renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	Dir        string // documents directory shown in the header
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// WithDir sets the documents directory shown in the header.
func WithDir(dir string) ConfigOption {
	return func(c *Config) {
		c.Dir = dir
	}
}

// NewConfig creates a new Config with the given output and options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer returns a TUI renderer for interactive terminals and a plain
// text renderer for CI, pipes, or when plain output is forced.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}

	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if the NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
