package ui

import (
	"sync"
	"time"
)

// etaSmoothingFactor is the weight of a new ETA sample against the previous
// estimate.
const etaSmoothingFactor = 0.3

// Tracker accumulates scan progress. It is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	current  int
	total    int
	file     string
	chunks   int
	start    time.Time
	lastETA  time.Duration
	errors   []ErrorEvent
	warnings []ErrorEvent
	now      func() time.Time
}

// Snapshot is a point-in-time view of a Tracker.
type Snapshot struct {
	Current    int
	Total      int
	File       string
	Chunks     int
	Progress   float64
	Rate       float64 // files per second
	ETA        time.Duration
	Elapsed    time.Duration
	ErrorCount int
	WarnCount  int
}

// NewTracker creates a tracker whose clock starts now.
func NewTracker() *Tracker {
	return &Tracker{start: time.Now(), now: time.Now}
}

// Update records a processed file.
func (t *Tracker) Update(event ProgressEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = event.Current
	t.total = event.Total
	t.chunks += event.Chunks
	if event.File != "" {
		t.file = event.File
	}
}

// AddError records an error or warning.
func (t *Tracker) AddError(event ErrorEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if event.IsWarn {
		t.warnings = append(t.warnings, event)
	} else {
		t.errors = append(t.errors, event)
	}
}

// Errors returns the recorded errors.
func (t *Tracker) Errors() []ErrorEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]ErrorEvent, len(t.errors))
	copy(out, t.errors)
	return out
}

// Snapshot returns the current progress.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := t.now().Sub(t.start)
	s := Snapshot{
		Current:    t.current,
		Total:      t.total,
		File:       t.file,
		Chunks:     t.chunks,
		Elapsed:    elapsed,
		ErrorCount: len(t.errors),
		WarnCount:  len(t.warnings),
	}
	if t.total > 0 {
		s.Progress = min(float64(t.current)/float64(t.total), 1.0)
	}
	if elapsed > 0 {
		s.Rate = float64(t.current) / elapsed.Seconds()
	}
	s.ETA = t.etaLocked(elapsed, s.Progress)
	return s
}

// etaLocked estimates the remaining time, smoothed against the previous
// estimate so batches of slow PDFs do not make it jump around.
func (t *Tracker) etaLocked(elapsed time.Duration, progress float64) time.Duration {
	if progress <= 0 || progress >= 1 {
		return 0
	}

	raw := time.Duration(float64(elapsed)/progress) - elapsed
	if raw < 0 {
		return 0
	}
	if t.lastETA == 0 {
		t.lastETA = raw
		return raw
	}

	t.lastETA = time.Duration(etaSmoothingFactor*float64(raw) + (1-etaSmoothingFactor)*float64(t.lastETA))
	return t.lastETA
}
