package slideshow

import (
	"strings"
	"unicode/utf8"
)

// placeholderText is shown when the narration has no words at all.
const placeholderText = "No content"

// Slide is one visual segment of the output video.
type Slide struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
}

// AudioTrack is the caller-owned narration audio. The composer only reads it.
type AudioTrack struct {
	Path     string
	Duration float64 // seconds
}

// Segment splits narration into slide texts of wordsPerSlide words each, where
// wordsPerSlide = max(1, words/maxSlides). The trailing group may be shorter,
// so the slide count can exceed maxSlides when the division is uneven.
// Returns nil when the narration has no words.
func Segment(narration string, maxSlides int) []string {
	words := strings.Fields(narration)
	if len(words) == 0 {
		return nil
	}
	if maxSlides < 1 {
		maxSlides = 1
	}
	perSlide := max(1, len(words)/maxSlides)

	texts := make([]string, 0, (len(words)+perSlide-1)/perSlide)
	for i := 0; i < len(words); i += perSlide {
		end := min(i+perSlide, len(words))
		texts = append(texts, strings.Join(words[i:end], " "))
	}
	return texts
}

// Allocate gives each slide a share of total proportional to its character
// count within the full narration, clamped to capSeconds. Remaining time lost
// to the cap is not redistributed.
func Allocate(narration string, texts []string, total, capSeconds float64) []Slide {
	narrationLen := utf8.RuneCountInString(narration)
	slides := make([]Slide, 0, len(texts))
	for _, t := range texts {
		d := float64(utf8.RuneCountInString(t)) / float64(narrationLen) * total
		if capSeconds > 0 && d > capSeconds {
			d = capSeconds
		}
		slides = append(slides, Slide{Text: t, Duration: d})
	}
	return slides
}

// Plan runs segmentation and duration allocation. Empty narration yields a
// single placeholder slide spanning the whole audio.
func Plan(narration string, total float64, maxSlides int, capSeconds float64) []Slide {
	texts := Segment(narration, maxSlides)
	if len(texts) == 0 {
		return []Slide{{Text: placeholderText, Duration: total}}
	}
	return Allocate(narration, texts, total, capSeconds)
}
