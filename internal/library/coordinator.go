package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	brainerrors "github.com/Aman-CERP/brainlib/internal/errors"
	"github.com/Aman-CERP/brainlib/internal/watcher"
)

// Coordinator keeps an Index in step with the documents directory by
// reconciling change events against the files on disk.
type Coordinator struct {
	index *Index
}

// NewCoordinator creates a coordinator for ix.
func NewCoordinator(ix *Index) *Coordinator {
	return &Coordinator{index: ix}
}

// HandleEvents processes a batch of file events.
//
// The reported operation is only a hint. Each affected path is looked up on
// disk when it is handled: a file that exists is re-ingested and a file that
// is gone is removed. A late "modify" for a deleted file therefore removes
// it rather than bringing it back. Renames reconcile both names.
//
// Different paths are reconciled concurrently. A failure for one path is
// logged and does not affect the others.
func (c *Coordinator) HandleEvents(ctx context.Context, events []watcher.FileEvent) error {
	paths := c.affectedPaths(events)
	if len(paths) == 0 {
		return nil
	}

	var g errgroup.Group
	g.SetLimit(c.index.opts.Workers)
	for _, path := range paths {
		g.Go(func() error {
			if err := c.reconcileSafe(ctx, path); err != nil {
				slog.Warn("reconcile_failed",
					append([]any{slog.String("file", filepath.Base(path))}, brainerrors.FormatForLog(err)...)...)
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.Debug("event_batch_handled",
		slog.Int("events", len(events)),
		slog.Int("paths", len(paths)))
	return ctx.Err()
}

// affectedPaths returns the distinct supported paths named by events, in
// order of first appearance. Reconciliation reads the current state of a
// path, so handling it once after the batch is equivalent to handling each
// of its events in order.
func (c *Coordinator) affectedPaths(events []watcher.FileEvent) []string {
	seen := make(map[string]struct{})
	var paths []string
	add := func(p string) {
		if p == "" {
			return
		}
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok || !c.index.Supported(p) {
			return
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}

	for _, ev := range events {
		add(ev.OldPath)
		add(ev.Path)
	}
	return paths
}

// reconcileSafe runs reconcile, turning a panic into an error.
func (c *Coordinator) reconcileSafe(ctx context.Context, path string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("reconcile_panic",
				slog.String("file", filepath.Base(path)),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = brainerrors.New(brainerrors.ErrCodePanic, fmt.Sprintf("panic: %v", r), nil).
				WithDetail("path", path)
		}
	}()
	return c.reconcile(ctx, path)
}

// reconcile brings the index entry for path in line with the disk.
func (c *Coordinator) reconcile(ctx context.Context, path string) error {
	name := filepath.Base(path)

	_, err := os.Lstat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		removed := c.index.Remove(name)
		slog.Info("file_reconciled",
			slog.String("file", name),
			slog.String("action", "removed"),
			slog.Int("chunks", removed))
		return nil
	case err != nil:
		return brainerrors.New(brainerrors.ErrCodeIndexFailed, "stat file", err).WithDetail("path", path)
	}

	if err := c.index.Ingest(ctx, path); err != nil {
		return err
	}
	slog.Info("file_reconciled",
		slog.String("file", name),
		slog.String("action", "ingested"))
	return nil
}

// Run handles batches from src until ctx is cancelled or the source's
// event channel closes. Watcher errors are logged.
func (c *Coordinator) Run(ctx context.Context, src watcher.Source) error {
	events := src.Events()
	errs := src.Errors()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-events:
			if !ok {
				return nil
			}
			_ = c.HandleEvents(ctx, batch)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Warn("watcher_error", brainerrors.FormatForLog(err)...)
		}
	}
}

// watch is the change subscription of an Index.
type watch struct {
	src    watcher.Source
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Watch starts src on the documents directory and applies its events to
// the index in the background until ctx is cancelled or Close is called.
// Changes made before Watch is called are not seen; use Start to build the
// index and watch it without a gap.
func (ix *Index) Watch(ctx context.Context, src watcher.Source) error {
	w, err := ix.beginWatch(ctx, src)
	if err != nil {
		return err
	}
	ix.runWatch(w)
	return nil
}

// Start builds the index and keeps it current. The source is started
// before the directory is read, so a file created during the scan still
// produces an event. Events are held by the source until the scan's
// results are in and only then reconciled, which keeps a delete seen
// during the scan from being undone by the scan's own results.
//
// If src cannot be started the scan still runs; the returned error then
// has code ERR_209_WATCH_FAILED and the stats are valid.
func (ix *Index) Start(ctx context.Context, src watcher.Source) (ScanStats, error) {
	if err := ix.ensureDir(); err != nil {
		return ScanStats{Dir: ix.opts.Dir}, err
	}

	w, watchErr := ix.beginWatch(ctx, src)
	if watchErr != nil && brainerrors.GetCode(watchErr) != brainerrors.ErrCodeWatchFailed {
		watchErr = brainerrors.Wrap(brainerrors.ErrCodeWatchFailed, watchErr)
	}

	stats, err := ix.Initialize(ctx)
	if err != nil {
		if w != nil {
			ix.abortWatch(w)
		}
		return stats, err
	}
	if watchErr != nil {
		return stats, watchErr
	}

	ix.runWatch(w)
	return stats, nil
}

// beginWatch starts src and records it without consuming its events.
func (ix *Index) beginWatch(ctx context.Context, src watcher.Source) (*watch, error) {
	ix.watchMu.Lock()
	defer ix.watchMu.Unlock()

	if ix.watch != nil {
		return nil, brainerrors.New(brainerrors.ErrCodeWatchFailed, "index is already watching", nil)
	}

	ctx, cancel := context.WithCancel(ctx)
	if err := src.Start(ctx, ix.opts.Dir); err != nil {
		cancel()
		return nil, err
	}

	w := &watch{src: src, ctx: ctx, cancel: cancel, done: make(chan struct{})}
	ix.watch = w
	return w, nil
}

// runWatch starts the coordinator loop for w.
func (ix *Index) runWatch(w *watch) {
	go func() {
		defer close(w.done)
		if err := NewCoordinator(ix).Run(w.ctx, w.src); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("watch_stopped", slog.String("error", err.Error()))
		}
	}()
	slog.Info("watch_started", slog.String("dir", ix.opts.Dir))
}

// abortWatch stops a watch whose loop never ran.
func (ix *Index) abortWatch(w *watch) {
	ix.watchMu.Lock()
	if ix.watch == w {
		ix.watch = nil
	}
	ix.watchMu.Unlock()

	w.cancel()
	_ = w.src.Stop()
	close(w.done)
}

// Close stops the watch started by Watch or Start, if any. Indexed chunks
// remain searchable.
func (ix *Index) Close() error {
	ix.watchMu.Lock()
	w := ix.watch
	ix.watch = nil
	ix.watchMu.Unlock()

	if w == nil {
		return nil
	}
	w.cancel()
	err := w.src.Stop()
	<-w.done
	return err
}
