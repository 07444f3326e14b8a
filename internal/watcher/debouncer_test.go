package watcher

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveBatch(t *testing.T, ch <-chan []FileEvent, timeout time.Duration) []FileEvent {
	t.Helper()
	select {
	case batch, ok := <-ch:
		require.True(t, ok, "channel closed before a batch arrived")
		return batch
	case <-time.After(timeout):
		t.Fatal("timeout waiting for batch")
		return nil
	}
}

func TestCoalesce_Rules(t *testing.T) {
	tests := []struct {
		name     string
		first    Operation
		next     Operation
		wantKeep bool
		wantOp   Operation
	}{
		{"create then modify stays create", OpCreate, OpModify, true, OpCreate},
		{"create then delete cancels", OpCreate, OpDelete, false, 0},
		{"modify then delete is delete", OpModify, OpDelete, true, OpDelete},
		{"modify then modify is modify", OpModify, OpModify, true, OpModify},
		{"delete then create is modify", OpDelete, OpCreate, true, OpModify},
		{"delete then modify is modify", OpDelete, OpModify, true, OpModify},
		{"rename then delete is delete", OpRename, OpDelete, true, OpDelete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, keep := coalesce(
				FileEvent{Path: "/d/a.txt", Operation: tt.first},
				FileEvent{Path: "/d/a.txt", Operation: tt.next},
			)
			assert.Equal(t, tt.wantKeep, keep)
			if tt.wantKeep {
				assert.Equal(t, tt.wantOp, got.Operation)
			}
		})
	}
}

func TestCoalesce_CarriesOldPath(t *testing.T) {
	// Given: a pending rename that knows its previous name
	pending := FileEvent{Path: "/d/new.md", OldPath: "/d/old.md", Operation: OpRename}

	// When: a later modify for the new name arrives
	got, keep := coalesce(pending, FileEvent{Path: "/d/new.md", Operation: OpModify})

	// Then: the old name is still reported
	require.True(t, keep)
	assert.Equal(t, "/d/old.md", got.OldPath)
}

func TestDebouncer_SingleEvent_PassesThrough(t *testing.T) {
	// Given: a debouncer with a short window
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	// When: a single event is added
	d.Add(FileEvent{Path: "/docs/a.txt", Operation: OpCreate, Timestamp: time.Now()})

	// Then: it is emitted after the window
	batch := receiveBatch(t, d.Output(), time.Second)
	require.Len(t, batch, 1)
	assert.Equal(t, "/docs/a.txt", batch[0].Path)
	assert.Equal(t, OpCreate, batch[0].Operation)
	assert.Zero(t, d.Pending())
}

func TestDebouncer_BurstForSameFile_Coalesces(t *testing.T) {
	// Given: a debouncer
	d := NewDebouncer(80 * time.Millisecond)
	defer d.Stop()

	// When: several writes land in quick succession
	for i := 0; i < 5; i++ {
		d.Add(FileEvent{Path: "/docs/notes.md", Operation: OpModify, Timestamp: time.Now()})
		time.Sleep(5 * time.Millisecond)
	}

	// Then: one event comes out
	batch := receiveBatch(t, d.Output(), time.Second)
	require.Len(t, batch, 1)
	assert.Equal(t, OpModify, batch[0].Operation)
}

func TestDebouncer_CreateThenDelete_EmitsNothing(t *testing.T) {
	// Given: a debouncer
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	// When: a file appears and disappears within the window
	d.Add(FileEvent{Path: "/docs/tmp.txt", Operation: OpCreate})
	d.Add(FileEvent{Path: "/docs/tmp.txt", Operation: OpDelete})

	// Then: no batch is emitted
	select {
	case batch := <-d.Output():
		t.Fatalf("unexpected batch: %v", batch)
	case <-time.After(150 * time.Millisecond):
	}
	assert.Zero(t, d.Pending())
}

func TestDebouncer_DifferentFiles_KeepArrivalOrder(t *testing.T) {
	// Given: a debouncer
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	// When: events for three files arrive
	d.Add(FileEvent{Path: "/docs/c.txt", Operation: OpCreate})
	d.Add(FileEvent{Path: "/docs/a.txt", Operation: OpModify})
	d.Add(FileEvent{Path: "/docs/b.txt", Operation: OpDelete})
	d.Add(FileEvent{Path: "/docs/c.txt", Operation: OpModify})

	// Then: one batch in first-seen order
	batch := receiveBatch(t, d.Output(), time.Second)
	require.Len(t, batch, 3)
	assert.Equal(t, "/docs/c.txt", batch[0].Path)
	assert.Equal(t, OpCreate, batch[0].Operation)
	assert.Equal(t, "/docs/a.txt", batch[1].Path)
	assert.Equal(t, "/docs/b.txt", batch[2].Path)
}

func TestDebouncer_SlowConsumer_DoesNotDropEvents(t *testing.T) {
	// Given: a debouncer whose output buffer will overflow
	d := NewDebouncer(5 * time.Millisecond)
	defer d.Stop()

	const files = 15
	for i := 0; i < files; i++ {
		d.Add(FileEvent{Path: fmt.Sprintf("/docs/f%02d.txt", i), Operation: OpModify})
		time.Sleep(20 * time.Millisecond)
	}

	// When: the consumer drains late
	seen := make(map[string]bool)
	for len(seen) < files {
		for _, ev := range receiveBatch(t, d.Output(), time.Second) {
			seen[ev.Path] = true
		}
	}

	// Then: every path arrived
	assert.Len(t, seen, files)
}

func TestDebouncer_Stop_ClosesOutput(t *testing.T) {
	// Given: a debouncer with a pending event
	d := NewDebouncer(time.Hour)
	d.Add(FileEvent{Path: "/docs/a.txt", Operation: OpCreate})

	// When: stopped (twice)
	d.Stop()
	d.Stop()

	// Then: output is closed and later adds are ignored
	_, ok := <-d.Output()
	assert.False(t, ok)
	d.Add(FileEvent{Path: "/docs/b.txt", Operation: OpCreate})
}
