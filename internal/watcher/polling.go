package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// poller detects changes by comparing directory listings. Used as a
// fallback when fsnotify is not available.
type poller struct {
	root  string
	state map[string]fileSnapshot
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

func newPoller(root string) *poller {
	return &poller{root: root, state: make(map[string]fileSnapshot)}
}

// snapshot lists the regular files directly inside root.
func (p *poller) snapshot() (map[string]fileSnapshot, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	files := make(map[string]fileSnapshot, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		files[filepath.Join(p.root, entry.Name())] = fileSnapshot{
			modTime: info.ModTime(),
			size:    info.Size(),
		}
	}
	return files, nil
}

// baseline records the current state without emitting events.
func (p *poller) baseline() error {
	files, err := p.snapshot()
	if err != nil {
		return err
	}
	p.state = files
	return nil
}

// detect returns the events needed to move from the previous listing to the
// current one.
func (p *poller) detect() ([]FileEvent, error) {
	current, err := p.snapshot()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var events []FileEvent
	for path, snap := range current {
		prev, ok := p.state[path]
		switch {
		case !ok:
			events = append(events, FileEvent{Path: path, Operation: OpCreate, Timestamp: now})
		case !prev.modTime.Equal(snap.modTime) || prev.size != snap.size:
			events = append(events, FileEvent{Path: path, Operation: OpModify, Timestamp: now})
		}
	}
	for path := range p.state {
		if _, ok := current[path]; !ok {
			events = append(events, FileEvent{Path: path, Operation: OpDelete, Timestamp: now})
		}
	}

	p.state = current
	return events, nil
}
