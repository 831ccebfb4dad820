package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// wordsPerSecond approximates conversational speech.
const wordsPerSecond = 2.5

// Silent writes a silent MP3 as long as the text would take to read aloud.
// It keeps the pipeline usable offline and in tests.
type Silent struct {
	FFmpegPath string
	log        logrus.FieldLogger
}

func NewSilent(ffmpegPath string, log logrus.FieldLogger) *Silent {
	if ffmpegPath == "" {
		if p, err := exec.LookPath("ffmpeg"); err == nil {
			ffmpegPath = p
		} else {
			ffmpegPath = "ffmpeg"
		}
	}
	return &Silent{FFmpegPath: ffmpegPath, log: log}
}

func (s *Silent) Name() string { return ProviderSilent }

// SpokenDuration estimates reading time in seconds, never below one second.
func SpokenDuration(text string) float64 {
	return math.Max(1, float64(len(strings.Fields(text)))/wordsPerSecond)
}

func (s *Silent) Synthesize(ctx context.Context, text, outPath string) error {
	if text == "" {
		return errors.New("no text to synthesize")
	}
	seconds := SpokenDuration(text)
	s.log.WithFields(logrus.Fields{"seconds": seconds, "output": outPath}).Debug("Writing silent narration")

	return writeAtomic(outPath, func(f *os.File) error {
		// ffmpeg writes the file itself, so only the reserved temp path is used.
		f.Close()
		args := []string{
			"-y", "-loglevel", "error",
			"-f", "lavfi", "-i", "anullsrc=r=24000:cl=mono",
			"-t", strconv.FormatFloat(seconds, 'f', 3, 64),
			"-c:a", "libmp3lame", "-q:a", "9",
			"-f", "mp3", f.Name(),
		}
		var stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, s.FFmpegPath, args...)
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("ffmpeg silent audio: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil
	})
}
