package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	brainerrors "github.com/Aman-CERP/brainlib/internal/errors"
)

// HTMLExtractor returns the visible text of an HTML page, one paragraph per
// block element.
type HTMLExtractor struct{}

// Extract implements Extractor.
func (HTMLExtractor) Extract(_ context.Context, path string) (string, error) {
	data, err := readFile(path)
	if err != nil {
		return "", err
	}
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", brainerrors.ExtractError(path, fmt.Errorf("parse html: %w", err))
	}
	return HTMLText(doc), nil
}

var htmlBlocks = map[string]bool{
	"p": true, "li": true, "td": true, "th": true, "blockquote": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"dt": true, "dd": true, "figcaption": true,
}

var htmlSkipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "head": true,
}

// HTMLText collects the text of block elements in document order.
func HTMLText(doc *html.Node) string {
	var blocks []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if htmlSkipped[n.Data] {
				return
			}
			if htmlBlocks[n.Data] {
				if t := nodeText(n); t != "" {
					blocks = append(blocks, t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(blocks, "\n\n")
}

// nodeText joins descendant text, collapsing runs of whitespace.
func nodeText(n *html.Node) string {
	var buf strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && htmlSkipped[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}
