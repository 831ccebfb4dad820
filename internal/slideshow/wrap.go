package slideshow

import (
	"strings"
	"unicode"
)

// wrapText fills lines of at most width characters. Words are split after
// inner hyphens ("state-" / "of-the-art"), and a word longer than width fills
// the rest of the current line before continuing on the next, breaking after
// a hyphen when one fits. Whitespace runs collapse to one space.
func wrapText(s string, width int) []string {
	if width < 1 {
		width = 1
	}
	chunks := splitChunks(s)
	var lines []string

	for len(chunks) > 0 {
		if len(lines) > 0 && isSpaceChunk(chunks[0]) {
			chunks = chunks[1:]
		}
		var line []rune
		for len(chunks) > 0 && len(line)+len(chunks[0]) <= width {
			line = append(line, chunks[0]...)
			chunks = chunks[1:]
		}
		if len(chunks) > 0 && len(chunks[0]) > width {
			chunk := chunks[0]
			end := width - len(line)
			if h := lastIndexRune(chunk[:end], '-'); h > 0 && hasNonHyphen(chunk[:h]) {
				end = h + 1
			}
			line = append(line, chunk[:end]...)
			chunks[0] = chunk[end:]
		}
		if n := len(line); n > 0 && line[n-1] == ' ' {
			line = line[:n-1]
		}
		if len(line) > 0 {
			lines = append(lines, string(line))
		}
	}
	return lines
}

// splitChunks returns words and single-space separators, with words split
// after hyphens that join letters.
func splitChunks(s string) [][]rune {
	var chunks [][]rune
	for i, w := range strings.Fields(s) {
		if i > 0 {
			chunks = append(chunks, []rune{' '})
		}
		r := []rune(w)
		start := 0
		for j := range r {
			if r[j] == '-' && hyphenBreak(r, j) {
				chunks = append(chunks, r[start:j+1])
				start = j + 1
			}
		}
		chunks = append(chunks, r[start:])
	}
	return chunks
}

// hyphenBreak reports whether a line may break after r[i]: the hyphen follows
// two letters (or letter-hyphen-letter) and precedes a letter, an optional
// hyphen, and another letter.
func hyphenBreak(r []rune, i int) bool {
	before := i >= 2 && isWordLetter(r[i-1]) &&
		(isWordLetter(r[i-2]) || (r[i-2] == '-' && i >= 3 && isWordLetter(r[i-3])))
	if !before || i+2 >= len(r) || !isWordLetter(r[i+1]) {
		return false
	}
	return isWordLetter(r[i+2]) || (r[i+2] == '-' && i+3 < len(r) && isWordLetter(r[i+3]))
}

func isWordLetter(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isSpaceChunk(c []rune) bool { return len(c) == 1 && c[0] == ' ' }

func lastIndexRune(rs []rune, r rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == r {
			return i
		}
	}
	return -1
}

func hasNonHyphen(rs []rune) bool {
	for _, r := range rs {
		if r != '-' {
			return true
		}
	}
	return false
}
