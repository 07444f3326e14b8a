// Package library holds the live, in-memory index of a personal documents
// directory.
//
// An Index is populated from a full scan of the directory (Initialize),
// kept current by a Coordinator that reconciles file change events against
// the files on disk, and queried with Search. Each file's chunks are
// replaced in one step, so readers never observe a file half re-indexed.
// Nothing is persisted between runs.
package library

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/brainlib/internal/chunk"
	brainerrors "github.com/Aman-CERP/brainlib/internal/errors"
	"github.com/Aman-CERP/brainlib/internal/extract"
)

const (
	// DefaultTopK is the number of results returned by Search.
	DefaultTopK = 3

	// DefaultMaxFileSize is the largest file that will be extracted (50MB).
	DefaultMaxFileSize int64 = 50 * 1024 * 1024

	// DefaultDir is the documents directory used when none is configured.
	DefaultDir = "./documents"
)

// Chunk is one paragraph of a document.
type Chunk struct {
	// Content is the trimmed paragraph text.
	Content string

	// Source is the base name of the file the paragraph came from.
	Source string
}

// Stats describes the current contents of an index.
type Stats struct {
	Files      int    `json:"files"`
	Chunks     int    `json:"chunks"`
	Generation uint64 `json:"generation"`
}

// Options configures an Index. Zero values select defaults.
type Options struct {
	// Dir is the documents directory. Default: ./documents
	Dir string

	// Registry extracts text by extension. Default: .txt, .md and .pdf.
	Registry *extract.Registry

	// MinChunkLength is the shortest paragraph kept, in characters.
	MinChunkLength int

	// TopK bounds the number of search results.
	TopK int

	// CacheSize is the number of memoized queries. Zero or negative
	// disables the cache.
	CacheSize int

	// MaxFileSize is the largest file extracted, in bytes.
	MaxFileSize int64

	// Workers bounds concurrent extraction during Initialize.
	Workers int

	// Retry controls re-reading files whose extraction failed transiently.
	// Default: errors.DefaultRetryConfig()
	Retry *brainerrors.RetryConfig

	// OnProgress, if set, is called from Initialize as files are processed.
	OnProgress ProgressFunc
}

// Index is an in-memory collection of document chunks, safe for concurrent
// use. Chunks are kept in insertion order.
type Index struct {
	opts     Options
	registry *extract.Registry
	retry    brainerrors.RetryConfig

	mu     sync.RWMutex
	chunks []Chunk

	generation atomic.Uint64
	cache      *lru.Cache[cacheKey, []Result]

	watchMu sync.Mutex
	watch   *watch
}

// New creates an empty index.
func New(opts Options) (*Index, error) {
	if opts.Dir == "" {
		opts.Dir = DefaultDir
	}
	if opts.MinChunkLength <= 0 {
		opts.MinChunkLength = chunk.DefaultMinLength
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	registry := opts.Registry
	if registry == nil {
		var err error
		registry, err = extract.NewRegistry(extract.DefaultExtensions)
		if err != nil {
			return nil, err
		}
	}

	retry := brainerrors.DefaultRetryConfig()
	if opts.Retry != nil {
		retry = *opts.Retry
	}

	ix := &Index{
		opts:     opts,
		registry: registry,
		retry:    retry,
	}

	if opts.CacheSize > 0 {
		cache, err := lru.New[cacheKey, []Result](opts.CacheSize)
		if err != nil {
			return nil, brainerrors.InternalError("create query cache", err)
		}
		ix.cache = cache
	}

	return ix, nil
}

// Dir returns the documents directory.
func (ix *Index) Dir() string {
	return ix.opts.Dir
}

// Supported reports whether path has an extension the index reads.
func (ix *Index) Supported(path string) bool {
	return ix.registry.Supported(path)
}

// Ingest (re)indexes one file. Files with unsupported extensions are
// ignored. Extraction happens before the index is locked; if it fails the
// file's previous chunks are left in place and an ERR_EXTRACT_FAILED error
// is returned. On success the file's chunks are replaced in one step.
func (ix *Index) Ingest(ctx context.Context, path string) error {
	if !ix.registry.Supported(path) {
		return nil
	}
	name := filepath.Base(path)

	staged, skipped, err := ix.load(ctx, path)
	if err != nil {
		slog.Warn("ingest_failed",
			append([]any{slog.String("file", name)}, brainerrors.FormatForLog(err)...)...)
		return err
	}
	if skipped {
		if n := ix.Remove(name); n > 0 {
			slog.Info("file_unindexed", slog.String("file", name), slog.Int("removed", n))
		}
		return nil
	}

	removed := ix.replace(name, staged)
	slog.Debug("file_indexed",
		slog.String("file", name),
		slog.Int("chunks", len(staged)),
		slog.Int("replaced", removed))
	return nil
}

// load extracts and splits path. skipped is true for files that exist but
// must not be indexed (not regular, or too large).
func (ix *Index) load(ctx context.Context, path string) (staged []Chunk, skipped bool, err error) {
	info, err := os.Lstat(path)
	if err != nil {
		code := brainerrors.ErrCodeExtractFailed
		if os.IsNotExist(err) {
			code = brainerrors.ErrCodeFileNotFound
		}
		return nil, false, brainerrors.New(code, "stat file", err).WithDetail("path", path)
	}
	if !admit(path, info, ix.opts.MaxFileSize) {
		return nil, true, nil
	}

	text, err := brainerrors.RetryWithResult(ctx, ix.retry, func() (string, error) {
		return ix.registry.Extract(ctx, path)
	})
	if err != nil {
		return nil, false, brainerrors.ExtractError(path, err)
	}

	return toChunks(filepath.Base(path), chunk.Split(text, ix.opts.MinChunkLength)), false, nil
}

// admit reports whether a file may be indexed, logging why not.
func admit(path string, info fs.FileInfo, maxSize int64) bool {
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		slog.Debug("symlink_skipped", slog.String("path", path))
		return false
	case !info.Mode().IsRegular():
		return false
	case info.Size() > maxSize:
		slog.Warn("oversized_file_skipped",
			slog.String("path", path),
			slog.Int64("size", info.Size()),
			slog.Int64("max", maxSize))
		return false
	}
	return true
}

func toChunks(source string, pieces []string) []Chunk {
	chunks := make([]Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = Chunk{Content: p, Source: source}
	}
	return chunks
}

// replace swaps every chunk of source for staged and returns how many were
// removed.
func (ix *Index) replace(source string, staged []Chunk) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	removed := ix.removeLocked(source)
	ix.chunks = append(ix.chunks, staged...)
	if removed > 0 || len(staged) > 0 {
		ix.bumpLocked()
	}
	return removed
}

// Remove deletes every chunk whose source is name (the base name is used if
// a path is given) and returns the number removed.
func (ix *Index) Remove(name string) int {
	name = filepath.Base(name)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	removed := ix.removeLocked(name)
	if removed > 0 {
		ix.bumpLocked()
	}
	return removed
}

// removeLocked filters source out in place. Must be called with mu held.
func (ix *Index) removeLocked(source string) int {
	kept := ix.chunks[:0]
	for _, c := range ix.chunks {
		if c.Source != source {
			kept = append(kept, c)
		}
	}
	removed := len(ix.chunks) - len(kept)
	// Release references held by the tail.
	clear(ix.chunks[len(kept):])
	ix.chunks = kept
	return removed
}

// bumpLocked invalidates memoized search results. Must be called with mu
// held for writing.
func (ix *Index) bumpLocked() {
	ix.generation.Add(1)
	if ix.cache != nil {
		ix.cache.Purge()
	}
}

// Chunks returns a copy of every chunk in insertion order.
func (ix *Index) Chunks() []Chunk {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]Chunk(nil), ix.chunks...)
}

// Sources returns the distinct sources in order of first appearance.
func (ix *Index) Sources() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	seen := make(map[string]struct{})
	var sources []string
	for _, c := range ix.chunks {
		if _, ok := seen[c.Source]; ok {
			continue
		}
		seen[c.Source] = struct{}{}
		sources = append(sources, c.Source)
	}
	return sources
}

// Stats returns counts describing the index.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	files := make(map[string]struct{})
	for _, c := range ix.chunks {
		files[c.Source] = struct{}{}
	}
	return Stats{
		Files:      len(files),
		Chunks:     len(ix.chunks),
		Generation: ix.generation.Load(),
	}
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	return fmt.Sprintf("%d files, %d chunks", s.Files, s.Chunks)
}
