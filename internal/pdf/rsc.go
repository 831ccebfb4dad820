package pdf

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	rpdf "rsc.io/pdf"
)

// RSCExtractor reads the text layer with rsc.io/pdf, rebuilding lines from
// glyph positions.
type RSCExtractor struct{}

func (RSCExtractor) Name() string { return ExtractorRSC }

func (RSCExtractor) Extract(ctx context.Context, path string) (text string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat pdf: %w", err)
	}

	defer recoverPanic(path, &err)

	doc, err := rpdf.NewReader(f, fi.Size())
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := doc.Page(i)
		if p.V.IsNull() {
			continue
		}
		if pageText := joinGlyphs(p.Content().Text); pageText != "" {
			b.WriteString(pageText)
			b.WriteByte('\n')
		}
	}
	return Normalize(b.String()), nil
}

// joinGlyphs stitches positioned text runs back into lines. A vertical jump
// starts a new line; a horizontal gap wider than a fifth of the font size
// becomes a space.
func joinGlyphs(runs []rpdf.Text) string {
	var b strings.Builder
	var prev *rpdf.Text
	for i := range runs {
		t := &runs[i]
		if prev != nil {
			size := math.Max(t.FontSize, 1)
			switch {
			case math.Abs(t.Y-prev.Y) > size/2:
				b.WriteByte('\n')
			case t.X-(prev.X+prev.W) > size/5:
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
		prev = t
	}
	return strings.TrimSpace(b.String())
}
