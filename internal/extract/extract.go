// Package extract turns document files into plain text.
//
// Each format has an Extractor; a Registry picks one by file extension and
// is the only thing the document index talks to. Extractors are stateless
// and safe for concurrent use.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	brainerrors "github.com/Aman-CERP/brainlib/internal/errors"
)

// Extractor returns the plain text of one file.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, path string) (string, error)

// Extract implements Extractor.
func (f ExtractorFunc) Extract(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// DefaultExtensions are enabled when no extension list is configured.
var DefaultExtensions = []string{".txt", ".md", ".pdf"}

// builtins lists every format brainlib can read.
func builtins() map[string]Extractor {
	md := &MarkdownExtractor{}
	html := &HTMLExtractor{}
	return map[string]Extractor{
		".txt":      &TextExtractor{},
		".md":       md,
		".markdown": md,
		".pdf":      &PDFExtractor{},
		".html":     html,
		".htm":      html,
		".docx":     &DOCXExtractor{},
	}
}

// BuiltinExtensions returns every extension with a built-in extractor.
func BuiltinExtensions() []string {
	exts := make([]string, 0, len(builtins()))
	for ext := range builtins() {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Registry dispatches extraction by lower-cased file extension.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry enables the built-in extractors for exts. An extension with
// no built-in extractor is an error.
func NewRegistry(exts []string) (*Registry, error) {
	all := builtins()
	r := &Registry{extractors: make(map[string]Extractor, len(exts))}
	for _, ext := range exts {
		ext = normalizeExt(ext)
		e, ok := all[ext]
		if !ok {
			return nil, brainerrors.New(brainerrors.ErrCodeUnsupportedFormat,
				fmt.Sprintf("no extractor for %q", ext), nil).
				WithSuggestion("Supported extensions: " + strings.Join(BuiltinExtensions(), ", "))
		}
		r.extractors[ext] = e
	}
	return r, nil
}

// Register installs or replaces the extractor for ext.
func (r *Registry) Register(ext string, e Extractor) {
	r.extractors[normalizeExt(ext)] = e
}

// Supported reports whether path has an enabled extension.
func (r *Registry) Supported(path string) bool {
	_, ok := r.extractors[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extensions returns the enabled extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract returns the text of path using the extractor for its extension.
func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.extractors[ext]
	if !ok {
		return "", brainerrors.New(brainerrors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("unsupported format %q", ext), nil).WithDetail("path", path)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.Extract(ctx, path)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// readFile reads path, classifying failures with brainlib error codes.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, openError(path, err)
	}
	return data, nil
}

func openError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return brainerrors.New(brainerrors.ErrCodeFileNotFound, "file not found", err).WithDetail("path", path)
	case errors.Is(err, fs.ErrPermission):
		return brainerrors.New(brainerrors.ErrCodeFilePermission, "permission denied", err).WithDetail("path", path)
	default:
		return brainerrors.ExtractError(path, err)
	}
}
