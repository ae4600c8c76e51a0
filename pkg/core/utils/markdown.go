package utils

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// CleanMarkdown strips surrounding whitespace and an outer ```markdown fence.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)
	if !strings.HasPrefix(cleaned, "```") || !strings.HasSuffix(cleaned, "```") || len(cleaned) < 6 {
		return cleaned
	}
	cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "```"), "```")
	cleaned = strings.TrimPrefix(cleaned, "markdown")
	cleaned = strings.TrimPrefix(cleaned, "md")
	return strings.TrimSpace(cleaned)
}

// ValidateMarkdown reports whether input parses into a document with at least
// one block. Goldmark accepts almost anything, so this mainly rejects blanks.
func ValidateMarkdown(input string) bool {
	if strings.TrimSpace(input) == "" {
		return false
	}
	doc := goldmark.DefaultParser().Parse(text.NewReader([]byte(input)))
	return doc != nil && doc.ChildCount() > 0
}

// Headings lists the text of every heading in document order.
func Headings(input string) []string {
	src := []byte(input)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var out []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering {
			var buf bytes.Buffer
			for c := h.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					buf.Write(t.Segment.Value(src))
				}
			}
			out = append(out, buf.String())
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return out
}

var gfm = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

// RenderHTML converts GitHub-flavoured markdown (tables included) to HTML.
func RenderHTML(input string) (string, error) {
	var buf bytes.Buffer
	if err := gfm.Convert([]byte(input), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
