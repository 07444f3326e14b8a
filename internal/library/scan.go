package library

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	brainerrors "github.com/Aman-CERP/brainlib/internal/errors"
)

// ScanStats summarizes one Initialize run.
type ScanStats struct {
	Dir      string        `json:"dir"`
	Files    int           `json:"files"`
	Indexed  int           `json:"indexed"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Chunks   int           `json:"chunks"`
	Duration time.Duration `json:"duration"`
}

// Progress reports one processed file during Initialize.
type Progress struct {
	Current int
	Total   int
	File    string
	Chunks  int
	Err     error
}

// ProgressFunc receives Initialize progress. Calls are serialized.
type ProgressFunc func(Progress)

type scanResult struct {
	chunks  []Chunk
	skipped bool
	err     error
}

// ensureDir creates the documents directory if it does not exist.
func (ix *Index) ensureDir() error {
	if err := os.MkdirAll(ix.opts.Dir, 0o755); err != nil {
		return brainerrors.New(brainerrors.ErrCodeDocumentsDir, "create documents directory", err).
			WithDetail("path", ix.opts.Dir).
			WithSuggestion("Set BRAINLIB_DOCUMENTS_DIR or documents.dir to a writable directory")
	}
	return nil
}

// Initialize creates the documents directory if needed and indexes every
// supported file directly inside it. Extraction runs concurrently, but
// chunks are added in directory listing order. A file that cannot be read
// is logged and counted in ScanStats.Failed; it does not stop the scan.
func (ix *Index) Initialize(ctx context.Context) (ScanStats, error) {
	start := time.Now()
	dir := ix.opts.Dir
	stats := ScanStats{Dir: dir}

	if err := ix.ensureDir(); err != nil {
		return stats, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return stats, brainerrors.New(brainerrors.ErrCodeDocumentsDir, "read documents directory", err).
			WithDetail("path", dir)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !ix.registry.Supported(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	stats.Files = len(paths)

	results := make([]scanResult, len(paths))
	progress := make(chan Progress, len(paths))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			if ix.opts.OnProgress != nil {
				ix.opts.OnProgress(p)
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Workers)
	var (
		mu        sync.Mutex
		completed int
	)
	for i, path := range paths {
		g.Go(func() error {
			staged, skipped, err := ix.load(gctx, path)
			results[i] = scanResult{chunks: staged, skipped: skipped, err: err}

			mu.Lock()
			completed++
			progress <- Progress{
				Current: completed,
				Total:   len(paths),
				File:    filepath.Base(path),
				Chunks:  len(staged),
				Err:     err,
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	close(progress)
	<-done

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	for i, res := range results {
		name := filepath.Base(paths[i])
		switch {
		case res.err != nil:
			stats.Failed++
			slog.Warn("ingest_failed",
				append([]any{slog.String("file", name)}, brainerrors.FormatForLog(res.err)...)...)
		case res.skipped:
			stats.Skipped++
		default:
			ix.replace(name, res.chunks)
			stats.Indexed++
			stats.Chunks += len(res.chunks)
		}
	}

	stats.Duration = time.Since(start)
	slog.Info("index_initialized",
		slog.String("dir", dir),
		slog.Int("files", stats.Files),
		slog.Int("indexed", stats.Indexed),
		slog.Int("skipped", stats.Skipped),
		slog.Int("failed", stats.Failed),
		slog.Int("chunks", stats.Chunks),
		slog.Duration("duration", stats.Duration))

	return stats, nil
}
