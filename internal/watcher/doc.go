// Package watcher reports changes to the files of a single documents
// directory.
//
// A Source delivers batches of FileEvent values. FSNotifySource watches the
// directory (non-recursively) with fsnotify and falls back to polling when
// the platform watcher cannot be created, for example on some network mounts
// and container volumes. Raw events pass through a Debouncer that coalesces
// bursts of writes for the same path before a batch is emitted.
//
// Events are hints only: consumers are expected to look at the file on disk
// when they handle an event rather than trust the reported operation.
//
// Usage:
//
//	src := watcher.NewFSNotifySource(watcher.DefaultOptions())
//	if err := src.Start(ctx, "./documents"); err != nil {
//	    return err
//	}
//	defer src.Stop()
//
//	for batch := range src.Events() {
//	    for _, ev := range batch {
//	        // reconcile ev.Path (and ev.OldPath for renames)
//	    }
//	}
//
// ChannelSource implements the same interface over plain channels so that
// consumers can be driven by synthetic events in tests.
package watcher
