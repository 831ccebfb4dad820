// Package tts synthesizes narration audio from explanation text.
package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// Provider names accepted by New.
const (
	ProviderOpenAI = "openai"
	ProviderSilent = "silent"
)

// DefaultMaxChars is the longest text sent to a synthesizer before truncation.
const DefaultMaxChars = 4000

const truncationSuffix = "... (content truncated for audio)"

// Synthesizer writes speech for text to outPath as MP3.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outPath string) error
	Name() string
}

// Options configures a Synthesizer built by New.
type Options struct {
	Provider   string
	Model      string
	Voice      string
	APIKey     string
	BaseURL    string
	FFmpegPath string
}

// New returns the Synthesizer selected by opts.Provider.
func New(opts Options, log logrus.FieldLogger) (Synthesizer, error) {
	switch strings.ToLower(opts.Provider) {
	case ProviderOpenAI, "":
		return NewOpenAI(opts.APIKey, opts.BaseURL, opts.Model, opts.Voice)
	case ProviderSilent:
		return NewSilent(opts.FFmpegPath, log), nil
	default:
		return nil, fmt.Errorf("unknown tts provider %q", opts.Provider)
	}
}

// PrepareText caps text at maxChars runes, marking the cut so listeners know
// the narration stops early.
func PrepareText(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	return string([]rune(text)[:maxChars]) + truncationSuffix
}

// writeAtomic creates outPath's directory and moves the finished file into
// place so readers never see a partial MP3.
func writeAtomic(outPath string, write func(f *os.File) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".tts-*.mp3")
	if err != nil {
		return fmt.Errorf("create temp audio file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("close temp audio file: %w", err)
	}
	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return fmt.Errorf("move audio into place: %w", err)
	}
	return nil
}
