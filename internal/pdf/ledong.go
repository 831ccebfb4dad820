package pdf

import (
	"context"
	"fmt"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
)

// LedongExtractor uses github.com/ledongthuc/pdf's plain-text pass, which
// copes better with some font encodings than the glyph walker.
type LedongExtractor struct{}

func (LedongExtractor) Name() string { return ExtractorLedong }

func (LedongExtractor) Extract(ctx context.Context, path string) (text string, err error) {
	f, r, err := lpdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	defer recoverPanic(path, &err)

	fonts := make(map[string]*lpdf.Font)
	var parts []string
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				fnt := p.Font(name)
				fonts[name] = &fnt
			}
		}
		pageText, err := p.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		if trimmed := strings.TrimSpace(pageText); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return Normalize(strings.Join(parts, "\n")), nil
}
