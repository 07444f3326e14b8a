package watcher

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid file events to prevent index thrashing.
// Events for the same path within the debounce window are merged according
// to these rules:
//   - CREATE + MODIFY = CREATE (file is still new)
//   - CREATE + DELETE = nothing (file never really existed)
//   - MODIFY + DELETE = DELETE (file is gone)
//   - DELETE + CREATE = MODIFY (file was replaced)
//
// Batches preserve the order in which paths were first seen. A batch is
// never dropped: flushing blocks until the consumer receives it or the
// debouncer is stopped.
type Debouncer struct {
	window  time.Duration
	mu      sync.Mutex
	flushMu sync.Mutex
	pending map[string]FileEvent
	order   []string
	timer   *time.Timer
	output  chan []FileEvent
	stopCh  chan struct{}
	stopped bool
	inFlush sync.WaitGroup
}

// NewDebouncer creates a new debouncer with the given window duration.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]FileEvent),
		output:  make(chan []FileEvent, 10),
		stopCh:  make(chan struct{}),
	}
}

// Add adds an event to be debounced.
func (d *Debouncer) Add(event FileEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if existing, ok := d.pending[event.Path]; ok {
		merged, keep := coalesce(existing, event)
		if keep {
			d.pending[event.Path] = merged
		} else {
			delete(d.pending, event.Path)
		}
	} else {
		d.pending[event.Path] = event
		d.order = append(d.order, event.Path)
	}

	d.scheduleFlush()
}

// coalesce merges a newer event into a pending one. It reports false when
// the two cancel out.
func coalesce(existing, next FileEvent) (FileEvent, bool) {
	if next.OldPath == "" {
		next.OldPath = existing.OldPath
	}

	switch existing.Operation {
	case OpCreate:
		switch next.Operation {
		case OpModify:
			existing.Timestamp = next.Timestamp
			return existing, true
		case OpDelete:
			if existing.OldPath != "" {
				// The old name still has to be reconciled.
				return next, true
			}
			return FileEvent{}, false
		}
	case OpDelete:
		if next.Operation == OpCreate || next.Operation == OpModify {
			next.Operation = OpModify
			return next, true
		}
	}
	return next, true
}

// scheduleFlush restarts the window. Must be called with d.mu held.
func (d *Debouncer) scheduleFlush() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// flush emits all pending events as one batch.
func (d *Debouncer) flush() {
	d.flushMu.Lock()
	defer d.flushMu.Unlock()

	d.mu.Lock()
	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	events := make([]FileEvent, 0, len(d.pending))
	for _, path := range d.order {
		if ev, ok := d.pending[path]; ok {
			events = append(events, ev)
			delete(d.pending, path)
		}
	}
	d.order = d.order[:0]
	d.inFlush.Add(1)
	d.mu.Unlock()
	defer d.inFlush.Done()

	select {
	case d.output <- events:
	case <-d.stopCh:
	}
}

// Pending returns the number of paths waiting for the window to elapse.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Output returns the channel of debounced batches.
func (d *Debouncer) Output() <-chan []FileEvent {
	return d.output
}

// Stop discards pending events and closes the output channel.
// Safe to call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.stopCh)
	d.mu.Unlock()

	d.inFlush.Wait()
	close(d.output)
}
