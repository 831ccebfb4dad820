package ai

import (
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// PlainText renders model Markdown as speakable prose: emphasis markers, link
// targets, images and code blocks are dropped, headings become sentences and
// each block ends on its own line.
func PlainText(md string) string {
	src := []byte(stripCodeFences(md))
	doc := markdown.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	newline := func() {
		s := b.String()
		if s != "" && !strings.HasSuffix(s, "\n") {
			b.WriteByte('\n')
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML, *ast.Image:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				b.Write(n.Segment.Value(src))
				if n.SoftLineBreak() || n.HardLineBreak() {
					b.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				b.Write(n.Value)
			}
		case *ast.AutoLink:
			if entering {
				b.Write(n.Label(src))
			}
		case *ast.Heading:
			if !entering {
				endSentence(&b)
				newline()
			}
		case *ast.Paragraph, *ast.TextBlock, *ast.ThematicBreak:
			if !entering {
				newline()
			}
		}
		return ast.WalkContinue, nil
	})

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// endSentence appends a full stop unless the text already ends in punctuation.
func endSentence(b *strings.Builder) {
	s := strings.TrimRight(b.String(), " ")
	if s == "" || strings.HasSuffix(s, "\n") {
		return
	}
	r := []rune(s)
	if !unicode.IsPunct(r[len(r)-1]) {
		b.WriteByte('.')
	}
}
