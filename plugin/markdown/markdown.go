// Package markdown renders chapter content. Chapters are authored in
// markdown; the reader endpoint serves rendered HTML and the derived
// statistics need the plain text for word counting.
package markdown

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Service renders markdown content.
type Service interface {
	RenderHTML(content string) (string, error)
	PlainText(content string) string
	WordCount(content string) int
}

type service struct {
	md goldmark.Markdown
}

// NewService creates a markdown service with GFM extensions enabled.
func NewService() Service {
	return &service{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}
}

// RenderHTML converts markdown content to HTML.
func (s *service) RenderHTML(content string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(content), &buf); err != nil {
		return "", errors.Wrap(err, "failed to render markdown")
	}
	return buf.String(), nil
}

// PlainText extracts the readable text of markdown content, dropping
// formatting markers, links targets and code fences.
func (s *service) PlainText(content string) string {
	source := []byte(content)
	doc := s.md.Parser().Parse(text.NewReader(source))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				segment := lines.At(i)
				sb.Write(segment.Value(source))
			}
		case *ast.Paragraph, *ast.Heading, *ast.ListItem, *ast.Blockquote:
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// WordCount counts words in the plain text of markdown content.
// Counting is whitespace-delimited, which matches reader expectations for
// latin scripts; CJK text counts runs, not characters.
func (s *service) WordCount(content string) int {
	plain := s.PlainText(content)
	count := 0
	inWord := false
	for _, r := range plain {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}
