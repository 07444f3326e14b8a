package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	brainerrors "github.com/Aman-CERP/brainlib/internal/errors"
	"github.com/Aman-CERP/brainlib/internal/extract"
	"github.com/Aman-CERP/brainlib/internal/watcher"
)

func event(path string, op watcher.Operation) watcher.FileEvent {
	return watcher.FileEvent{Path: path, Operation: op, Timestamp: time.Now()}
}

func TestCoordinator_CreateAndDelete(t *testing.T) {
	// Given: an empty index and a new file on disk
	dir := t.TempDir()
	ix := newTestIndex(t, Options{Dir: dir})
	c := NewCoordinator(ix)
	ctx := context.Background()
	path := writeFile(t, dir, "notes.txt", "fresh paragraph content")

	// When: a create event is handled
	require.NoError(t, c.HandleEvents(ctx, []watcher.FileEvent{event(path, watcher.OpCreate)}))

	// Then: the file is indexed
	assert.Equal(t, []string{"fresh paragraph content"}, contents(ix.Chunks()))

	// When: the file is deleted and the event handled
	require.NoError(t, os.Remove(path))
	require.NoError(t, c.HandleEvents(ctx, []watcher.FileEvent{event(path, watcher.OpDelete)}))

	// Then: its chunks are gone
	assert.Empty(t, ix.Chunks())
}

func TestCoordinator_StaleModifyAfterDeleteDoesNotResurrect(t *testing.T) {
	// Given: an indexed file that has since been deleted
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "paragraph about to vanish")
	ix := newTestIndex(t, Options{Dir: dir})
	require.NoError(t, ix.Ingest(context.Background(), path))
	require.NoError(t, os.Remove(path))

	// When: delete and a late modify arrive in the same batch
	err := NewCoordinator(ix).HandleEvents(context.Background(), []watcher.FileEvent{
		event(path, watcher.OpDelete),
		event(path, watcher.OpModify),
	})

	// Then: the file stays removed
	require.NoError(t, err)
	assert.Empty(t, ix.Chunks())
}

func TestCoordinator_DeleteEventForExistingFileReingests(t *testing.T) {
	// Given: a delete event for a file that was recreated before handling
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "recreated paragraph")
	ix := newTestIndex(t, Options{Dir: dir})

	// When: the stale delete is handled
	require.NoError(t, NewCoordinator(ix).HandleEvents(context.Background(),
		[]watcher.FileEvent{event(path, watcher.OpDelete)}))

	// Then: disk state wins
	assert.Equal(t, []string{"recreated paragraph"}, contents(ix.Chunks()))
}

func TestCoordinator_RenameReconcilesBothNames(t *testing.T) {
	// Given: old.txt indexed, then renamed to new.txt
	dir := t.TempDir()
	oldPath := writeFile(t, dir, "old.txt", "paragraph that moves")
	ix := newTestIndex(t, Options{Dir: dir})
	require.NoError(t, ix.Ingest(context.Background(), oldPath))
	newPath := filepath.Join(dir, "new.txt")
	require.NoError(t, os.Rename(oldPath, newPath))

	// When: the rename is handled
	err := NewCoordinator(ix).HandleEvents(context.Background(), []watcher.FileEvent{{
		Path:      newPath,
		OldPath:   oldPath,
		Operation: watcher.OpRename,
	}})

	// Then: only the new name is indexed
	require.NoError(t, err)
	assert.Equal(t, []string{"new.txt"}, ix.Sources())
}

func TestCoordinator_RenameToUnsupportedExtensionRemoves(t *testing.T) {
	dir := t.TempDir()
	oldPath := writeFile(t, dir, "draft.txt", "paragraph being archived")
	ix := newTestIndex(t, Options{Dir: dir})
	require.NoError(t, ix.Ingest(context.Background(), oldPath))
	require.NoError(t, os.Rename(oldPath, filepath.Join(dir, "draft.bak")))

	// fsnotify reports the old name only
	require.NoError(t, NewCoordinator(ix).HandleEvents(context.Background(),
		[]watcher.FileEvent{event(oldPath, watcher.OpRename)}))

	assert.Empty(t, ix.Chunks())
}

func TestCoordinator_IgnoresUnsupportedExtensions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "image.png", "binary-ish content here")
	ix := newTestIndex(t, Options{Dir: dir})

	require.NoError(t, NewCoordinator(ix).HandleEvents(context.Background(),
		[]watcher.FileEvent{event(path, watcher.OpCreate)}))

	assert.Empty(t, ix.Chunks())
	assert.Zero(t, ix.Stats().Generation)
}

func TestCoordinator_FailureIsContainedToOneFile(t *testing.T) {
	// Given: an extractor that panics for one file
	registry, err := extract.NewRegistry([]string{".txt"})
	require.NoError(t, err)
	registry.Register(".txt", extract.ExtractorFunc(func(ctx context.Context, path string) (string, error) {
		switch filepath.Base(path) {
		case "panics.txt":
			panic("extractor bug")
		case "fails.txt":
			return "", errors.New("unreadable")
		}
		return extract.TextExtractor{}.Extract(ctx, path)
	}))

	dir := t.TempDir()
	ix := newTestIndex(t, Options{Dir: dir, Registry: registry})
	batch := []watcher.FileEvent{
		event(writeFile(t, dir, "panics.txt", "never indexed"), watcher.OpCreate),
		event(writeFile(t, dir, "fails.txt", "never indexed"), watcher.OpCreate),
		event(writeFile(t, dir, "good.txt", "good paragraph content"), watcher.OpCreate),
	}

	// When: the batch is handled
	err = NewCoordinator(ix).HandleEvents(context.Background(), batch)

	// Then: the good file is indexed anyway
	require.NoError(t, err)
	assert.Equal(t, []string{"good.txt"}, ix.Sources())
}

func TestCoordinator_RunWithChannelSource(t *testing.T) {
	// Given: a coordinator running over a channel source
	dir := t.TempDir()
	ix := newTestIndex(t, Options{Dir: dir})
	src := watcher.NewChannelSource(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- NewCoordinator(ix).Run(ctx, src) }()

	// When: synthetic events are injected
	path := writeFile(t, dir, "a.md", "injected paragraph content")
	require.True(t, src.Send(event(path, watcher.OpCreate)))
	require.True(t, src.SendError(errors.New("transient watcher hiccup")))

	// Then: the index catches up
	assert.Eventually(t, func() bool { return len(ix.Search("injected")) == 1 },
		2*time.Second, 10*time.Millisecond)

	// And: closing the source ends Run cleanly
	require.NoError(t, src.Stop())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestIndex_WatchAndClose(t *testing.T) {
	// Given: a watching index
	dir := t.TempDir()
	ix := newTestIndex(t, Options{Dir: dir})
	src := watcher.NewChannelSource(4)
	require.NoError(t, ix.Watch(context.Background(), src))

	// Then: a second watch is refused
	assert.Error(t, ix.Watch(context.Background(), watcher.NewChannelSource(1)))

	// When: an event arrives
	path := writeFile(t, dir, "a.txt", "watched paragraph")
	require.True(t, src.Send(event(path, watcher.OpCreate)))
	assert.Eventually(t, func() bool { return len(ix.Chunks()) == 1 },
		2*time.Second, 10*time.Millisecond)

	// When: closed
	require.NoError(t, ix.Close())
	require.NoError(t, ix.Close())

	// Then: the source is stopped and chunks remain searchable
	assert.False(t, src.Send(event(path, watcher.OpDelete)))
	assert.Len(t, ix.Search("watched"), 1)
}

func TestIndex_WatchWithFilesystem(t *testing.T) {
	// Given: an initialized index watching a real directory
	dir := t.TempDir()
	writeFile(t, dir, "existing.txt", "existing paragraph content")
	ix := newTestIndex(t, Options{Dir: dir})
	_, err := ix.Initialize(context.Background())
	require.NoError(t, err)

	src := watcher.NewFSNotifySource(watcher.Options{DebounceWindow: 20 * time.Millisecond})
	require.NoError(t, ix.Watch(context.Background(), src))

	// When: a file is added
	writeFile(t, dir, "added.md", "freshly added paragraph")

	// Then: it becomes searchable
	assert.Eventually(t, func() bool { return len(ix.Search("freshly")) == 1 },
		3*time.Second, 20*time.Millisecond)

	// When: the original file is deleted
	require.NoError(t, os.Remove(filepath.Join(dir, "existing.txt")))

	// Then: it disappears from results
	assert.Eventually(t, func() bool { return len(ix.Search("existing")) == 0 },
		3*time.Second, 20*time.Millisecond)
}

func TestIndex_StartSeesFileCreatedDuringScan(t *testing.T) {
	// Given: a directory whose scan creates another file part way through
	dir := t.TempDir()
	writeFile(t, dir, "existing.txt", "existing paragraph content")
	var once sync.Once
	ix := newTestIndex(t, Options{
		Dir: dir,
		OnProgress: func(Progress) {
			once.Do(func() {
				assert.NoError(t, os.WriteFile(filepath.Join(dir, "late.txt"),
					[]byte("latecomer paragraph content"), 0o644))
			})
		},
	})
	src := watcher.NewFSNotifySource(watcher.Options{DebounceWindow: 20 * time.Millisecond})

	// When: the index is started
	stats, err := ix.Start(context.Background(), src)

	// Then: the scan only saw the first file
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)

	// And: the file written during the scan is indexed from its event
	assert.Eventually(t, func() bool { return len(ix.Search("latecomer")) == 1 },
		3*time.Second, 20*time.Millisecond)
}

func TestIndex_StartAppliesScanEventsAfterResults(t *testing.T) {
	// Given: a.txt is deleted, and its delete event sent, after the scan read it
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "paragraph deleted mid scan")
	writeFile(t, dir, "b.txt", "paragraph that stays put")
	src := watcher.NewChannelSource(4)
	ix := newTestIndex(t, Options{
		Dir:     dir,
		Workers: 1,
		OnProgress: func(p Progress) {
			if p.File == "a.txt" {
				assert.NoError(t, os.Remove(a))
				src.Send(event(a, watcher.OpDelete))
			}
		},
	})

	// When: the index is started
	stats, err := ix.Start(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Indexed)

	// Then: the delete wins over the scan's staged chunks
	assert.Eventually(t, func() bool {
		sources := ix.Sources()
		return len(sources) == 1 && sources[0] == "b.txt"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestIndex_StartScansWhenWatcherFails(t *testing.T) {
	// Given: a source that cannot start
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "paragraph indexed without a watcher")
	src := watcher.NewFSNotifySource(watcher.Options{})
	require.NoError(t, src.Stop())
	ix := newTestIndex(t, Options{Dir: dir})

	// When: the index is started
	stats, err := ix.Start(context.Background(), src)

	// Then: the scan still ran and the error names the watcher
	require.Error(t, err)
	assert.Equal(t, brainerrors.ErrCodeWatchFailed, brainerrors.GetCode(err))
	assert.Equal(t, 1, stats.Indexed)
	assert.Len(t, ix.Search("watcher"), 1)
}

func TestIndex_StartReleasesWatchWhenScanFails(t *testing.T) {
	// Given: a cancelled context
	ix := newTestIndex(t, Options{Dir: t.TempDir()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// When: the index is started
	_, err := ix.Start(ctx, watcher.NewChannelSource(1))

	// Then: the scan error is returned and the index can watch again
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, ix.Watch(context.Background(), watcher.NewChannelSource(1)))
}
