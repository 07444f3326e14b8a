package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	brainerrors "github.com/Aman-CERP/brainlib/internal/errors"
)

// DOCXExtractor returns the paragraph text of a Word document.
type DOCXExtractor struct{}

// Extract implements Extractor.
func (DOCXExtractor) Extract(_ context.Context, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = brainerrors.New(brainerrors.ErrCodeFileCorrupt,
				fmt.Sprintf("malformed docx: %v", r), nil).WithDetail("path", path)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return "", openError(path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", brainerrors.ExtractError(path, err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", brainerrors.ExtractError(path, fmt.Errorf("parse docx: %w", err))
	}

	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		if t := paragraphText(para); t != "" {
			paragraphs = append(paragraphs, t)
		}
	}
	return strings.Join(paragraphs, "\n\n"), nil
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
