package extract

import (
	"bytes"
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// MarkdownExtractor strips YAML front matter and Markdown markup, keeping
// one paragraph per top-level block so blank-line chunking still applies.
type MarkdownExtractor struct{}

// Extract implements Extractor.
func (MarkdownExtractor) Extract(_ context.Context, path string) (string, error) {
	data, err := readFile(path)
	if err != nil {
		return "", err
	}
	return MarkdownText(data), nil
}

// MarkdownText renders Markdown source as plain text. Top-level blocks are
// separated by a blank line; lines inside a block (list items, code lines,
// soft breaks) are separated by a single newline.
func MarkdownText(src []byte) string {
	src = StripFrontMatter(src)

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var blocks []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if t := strings.TrimSpace(blockText(n, src)); t != "" {
			blocks = append(blocks, t)
		}
	}
	return strings.Join(blocks, "\n\n")
}

// StripFrontMatter removes a leading "---" fenced YAML mapping. Anything
// that does not parse as a YAML mapping is left in place.
func StripFrontMatter(src []byte) []byte {
	body := bytes.TrimPrefix(src, []byte("\xef\xbb\xbf"))
	body = bytes.ReplaceAll(body, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(body, []byte("---\n")) {
		return src
	}

	rest := body[len("---\n"):]
	end := -1
	for offset := 0; offset <= len(rest); {
		line := rest[offset:]
		if i := bytes.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}
		trimmed := string(bytes.TrimRight(line, " \t"))
		if trimmed == "---" || trimmed == "..." {
			end = offset
			break
		}
		offset += len(line) + 1
	}
	if end < 0 {
		return src
	}

	var meta map[string]any
	if err := yaml.Unmarshal(rest[:end], &meta); err != nil {
		return src
	}

	after := rest[end:]
	if i := bytes.IndexByte(after, '\n'); i >= 0 {
		return after[i+1:]
	}
	return nil
}

func blockText(n ast.Node, src []byte) string {
	switch n.Kind() {
	case ast.KindThematicBreak:
		return ""
	case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindHTMLBlock:
		return rawLines(n, src)
	}

	if n.Type() == ast.TypeBlock && n.FirstChild() != nil && n.FirstChild().Type() == ast.TypeInline {
		return inlineText(n, src)
	}

	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := strings.TrimSpace(blockText(c, src)); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

func rawLines(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return strings.TrimRight(buf.String(), "\n")
}

func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch v := c.(type) {
			case *ast.Text:
				buf.Write(v.Segment.Value(src))
				if v.SoftLineBreak() || v.HardLineBreak() {
					buf.WriteByte('\n')
				}
			case *ast.String:
				buf.Write(v.Value)
			case *ast.AutoLink:
				buf.Write(v.Label(src))
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return buf.String()
}
