package extract

import (
	"context"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	brainerrors "github.com/Aman-CERP/brainlib/internal/errors"
)

// PDFExtractor reads the text layer of a PDF. Scanned pages without a text
// layer yield no text.
type PDFExtractor struct{}

// Extract implements Extractor. Pages are separated by a blank line.
func (PDFExtractor) Extract(ctx context.Context, path string) (text string, err error) {
	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = brainerrors.New(brainerrors.ErrCodeFileCorrupt,
				fmt.Sprintf("malformed pdf: %v", r), nil).WithDetail("path", path)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		if oe := openError(path, err); brainerrors.GetCode(oe) != brainerrors.ErrCodeExtractFailed {
			return "", oe
		}
		return "", brainerrors.ExtractError(path, fmt.Errorf("open pdf: %w", err))
	}
	defer func() { _ = f.Close() }()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", brainerrors.ExtractError(path, fmt.Errorf("page %d: %w", i, err))
		}
		if content = strings.TrimSpace(content); content != "" {
			pages = append(pages, content)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}
