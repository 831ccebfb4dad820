// Package pdf extracts plain text from uploaded PDF documents.
package pdf

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Extractor pulls the text layer out of a PDF file.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
	Name() string
}

// Extractor names accepted by New.
const (
	ExtractorRSC    = "rsc"
	ExtractorLedong = "ledongthuc"
)

// New returns the extractor registered under name.
func New(name string) (Extractor, error) {
	switch strings.ToLower(name) {
	case "", ExtractorRSC:
		return RSCExtractor{}, nil
	case ExtractorLedong:
		return LedongExtractor{}, nil
	default:
		return nil, fmt.Errorf("unknown pdf extractor %q", name)
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize applies NFKC (folding ligatures such as "ﬁ") and collapses every
// whitespace run, newlines included, to a single space.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	return whitespaceRun.ReplaceAllString(s, " ")
}

// Truncate keeps at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// recoverPanic turns reader panics on malformed files into errors.
func recoverPanic(path string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("malformed pdf %s: %v", path, r)
	}
}
