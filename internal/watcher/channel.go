package watcher

import (
	"context"
	"sync"
)

// ChannelSource is a Source fed by the caller. Events sent with Send are
// delivered unchanged, without debouncing.
type ChannelSource struct {
	events  chan []FileEvent
	errors  chan error
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	stopped bool
}

var _ Source = (*ChannelSource)(nil)

// NewChannelSource creates a source whose event channel holds up to buffer
// batches.
func NewChannelSource(buffer int) *ChannelSource {
	return &ChannelSource{
		events: make(chan []FileEvent, buffer),
		errors: make(chan error, buffer),
		done:   make(chan struct{}),
	}
}

// Start stops the source when ctx is cancelled. dir is ignored.
func (c *ChannelSource) Start(ctx context.Context, _ string) error {
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Stop()
		case <-c.done:
		}
	}()
	return nil
}

// Send delivers events as one batch. It blocks until the batch is accepted
// and reports false if the source has been stopped.
func (c *ChannelSource) Send(events ...FileEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return false
	}
	select {
	case c.events <- events:
		return true
	case <-c.done:
		return false
	}
}

// SendError delivers a watcher error.
func (c *ChannelSource) SendError(err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return false
	}
	select {
	case c.errors <- err:
		return true
	case <-c.done:
		return false
	}
}

// Events returns the channel of batches.
func (c *ChannelSource) Events() <-chan []FileEvent {
	return c.events
}

// Errors returns the channel of errors.
func (c *ChannelSource) Errors() <-chan error {
	return c.errors
}

// Stop closes both channels. Safe to call multiple times.
func (c *ChannelSource) Stop() error {
	c.once.Do(func() {
		close(c.done)
		c.mu.Lock()
		c.stopped = true
		close(c.events)
		close(c.errors)
		c.mu.Unlock()
	})
	return nil
}
