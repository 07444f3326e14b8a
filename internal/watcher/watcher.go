package watcher

import (
	"context"
	"time"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new file was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file was deleted.
	OpDelete
	// OpRename indicates a file was renamed. Path is the name the event was
	// reported for; OldPath is set when the previous name is known.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a change to one file of the watched directory.
type FileEvent struct {
	// Path is the absolute path of the file.
	Path string

	// OldPath is the previous path for rename events, if known.
	OldPath string

	// Operation is the reported operation.
	Operation Operation

	// Timestamp is when the event was detected.
	Timestamp time.Time
}

// Source produces batches of file events for one directory.
type Source interface {
	// Start begins watching dir. It returns once watching is set up;
	// events are delivered asynchronously until Stop is called or ctx is
	// cancelled.
	Start(ctx context.Context, dir string) error

	// Events returns the channel of event batches. It is closed when the
	// source stops.
	Events() <-chan []FileEvent

	// Errors returns non-fatal watcher errors. It is closed when the
	// source stops.
	Errors() <-chan error

	// Stop stops the source and releases resources. Safe to call multiple
	// times.
	Stop() error
}

// Options configures watcher behavior.
type Options struct {
	// DebounceWindow is the time to wait before emitting coalesced events.
	// Default: 200ms
	DebounceWindow time.Duration

	// PollInterval is the scan interval in polling mode.
	// Default: 2s
	PollInterval time.Duration

	// EventBufferSize is the size of the batch channel buffer.
	// Default: 64
	EventBufferSize int

	// ForcePolling skips fsnotify and always polls.
	ForcePolling bool
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  200 * time.Millisecond,
		PollInterval:    2 * time.Second,
		EventBufferSize: 64,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	return o
}
