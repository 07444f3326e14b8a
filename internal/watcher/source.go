package watcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	brainerrors "github.com/Aman-CERP/brainlib/internal/errors"
)

// FSNotifySource watches a single directory using fsnotify as the primary
// mechanism and polling as a fallback. Subdirectories are not watched.
type FSNotifySource struct {
	opts      Options
	debouncer *Debouncer
	fsw       *fsnotify.Watcher
	poller    *poller
	events    chan []FileEvent
	errors    chan error
	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	root      string
	started   bool
	stopped   bool
}

var _ Source = (*FSNotifySource)(nil)

// NewFSNotifySource creates an unstarted source with the given options.
func NewFSNotifySource(opts Options) *FSNotifySource {
	opts = opts.WithDefaults()
	return &FSNotifySource{
		opts:      opts,
		debouncer: NewDebouncer(opts.DebounceWindow),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}
}

// Start begins watching dir.
func (s *FSNotifySource) Start(ctx context.Context, dir string) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return brainerrors.New(brainerrors.ErrCodeWatchFailed, "resolve watch directory", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return brainerrors.New(brainerrors.ErrCodeWatchFailed, "stat watch directory", err).
			WithDetail("path", absPath)
	}
	if !info.IsDir() {
		return brainerrors.New(brainerrors.ErrCodeWatchFailed, "watch path is not a directory", nil).
			WithDetail("path", absPath)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return brainerrors.New(brainerrors.ErrCodeWatchFailed, "source already stopped", nil)
	}
	if s.started {
		return brainerrors.New(brainerrors.ErrCodeWatchFailed, "source already started", nil)
	}

	if !s.opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			if err = fsw.Add(absPath); err != nil {
				_ = fsw.Close()
			}
		}
		if err == nil {
			s.fsw = fsw
		} else {
			slog.Warn("fsnotify_unavailable",
				slog.String("path", absPath),
				slog.String("error", err.Error()),
				slog.String("fallback", "polling"))
		}
	}
	if s.fsw == nil {
		s.poller = newPoller(absPath)
		if err := s.poller.baseline(); err != nil {
			return brainerrors.New(brainerrors.ErrCodeWatchFailed, "initial directory listing", err).
				WithDetail("path", absPath)
		}
	}

	s.root = absPath
	s.started = true

	s.wg.Add(2)
	go s.forward()
	if s.fsw != nil {
		go s.watchLoop(ctx)
	} else {
		go s.pollLoop(ctx)
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = s.Stop()
		case <-s.stopCh:
		}
	}()

	slog.Debug("watcher_started",
		slog.String("path", absPath),
		slog.String("mode", s.modeLocked()),
		slog.Duration("debounce", s.opts.DebounceWindow))
	return nil
}

func (s *FSNotifySource) watchLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case event, ok := <-s.fsw.Events:
			if !ok {
				return
			}
			s.handleFsnotifyEvent(event)
		case err, ok := <-s.fsw.Errors:
			if !ok {
				return
			}
			s.handleFsnotifyError(err)
		}
	}
}

// handleFsnotifyError reports err. After a queue overflow the dropped
// events are unknown, so every file in the directory is queued as modified
// and the consumer re-reads them from disk.
func (s *FSNotifySource) handleFsnotifyError(err error) {
	s.emitError(brainerrors.New(brainerrors.ErrCodeWatchFailed, "fsnotify error", err))
	if !errors.Is(err, fsnotify.ErrEventOverflow) {
		return
	}

	files, listErr := newPoller(s.root).snapshot()
	if listErr != nil {
		s.emitError(brainerrors.New(brainerrors.ErrCodeWatchFailed, "rescan after overflow", listErr))
		return
	}
	now := time.Now()
	for path := range files {
		s.debouncer.Add(FileEvent{Path: path, Operation: OpModify, Timestamp: now})
	}
	slog.Warn("watcher_overflow_rescan",
		slog.String("path", s.root),
		slog.Int("files", len(files)))
}

func (s *FSNotifySource) pollLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			events, err := s.poller.detect()
			if err != nil {
				s.emitError(brainerrors.New(brainerrors.ErrCodeWatchFailed, "poll directory", err))
				continue
			}
			for _, ev := range events {
				s.debouncer.Add(ev)
			}
		}
	}
}

// handleFsnotifyEvent converts and filters fsnotify events.
func (s *FSNotifySource) handleFsnotifyEvent(event fsnotify.Event) {
	if filepath.Dir(event.Name) != s.root {
		return
	}

	var op Operation
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove):
		op = OpDelete
	case event.Has(fsnotify.Rename):
		op = OpRename
	default:
		// Chmod only
		return
	}

	if op == OpCreate || op == OpModify {
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
			return
		}
	}

	s.debouncer.Add(FileEvent{
		Path:      event.Name,
		Operation: op,
		Timestamp: time.Now(),
	})
}

// forward moves debounced batches to the events channel. It is the only
// sender on s.events and closes it on exit.
func (s *FSNotifySource) forward() {
	defer s.wg.Done()
	defer close(s.events)
	for {
		select {
		case <-s.stopCh:
			return
		case batch, ok := <-s.debouncer.Output():
			if !ok {
				return
			}
			if len(batch) == 0 {
				continue
			}
			select {
			case s.events <- batch:
			case <-s.stopCh:
				return
			}
		}
	}
}

func (s *FSNotifySource) emitError(err error) {
	select {
	case <-s.stopCh:
		return
	default:
	}
	select {
	case s.errors <- err:
	default:
		slog.Warn("watcher_error_dropped", slog.String("error", err.Error()))
	}
}

// Stop stops the source and releases resources.
func (s *FSNotifySource) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	started := s.started
	close(s.stopCh)
	s.mu.Unlock()

	s.debouncer.Stop()

	var err error
	if s.fsw != nil {
		err = s.fsw.Close()
	}
	s.wg.Wait()

	if !started {
		close(s.events)
	}
	close(s.errors)
	return err
}

// Events returns the channel of batched file events.
func (s *FSNotifySource) Events() <-chan []FileEvent {
	return s.events
}

// Errors returns the channel of errors.
func (s *FSNotifySource) Errors() <-chan error {
	return s.errors
}

// Mode returns "fsnotify" or "polling", or "" before Start.
func (s *FSNotifySource) Mode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modeLocked()
}

func (s *FSNotifySource) modeLocked() string {
	switch {
	case s.fsw != nil:
		return "fsnotify"
	case s.poller != nil:
		return "polling"
	default:
		return ""
	}
}

// Root returns the absolute directory being watched.
func (s *FSNotifySource) Root() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}
