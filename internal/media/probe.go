// Package media reads facts about generated media files.
package media

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/simonhull/audiometa"
	"github.com/sirupsen/logrus"
)

// ErrNoDuration is returned when no prober could find a positive duration.
var ErrNoDuration = errors.New("audio duration unavailable")

// Prober reports the duration of an audio file in seconds.
type Prober struct {
	FFprobePath string
	log         logrus.FieldLogger
}

// NewProber creates a Prober. An empty ffprobe path is looked up on PATH when needed.
func NewProber(ffprobePath string, log logrus.FieldLogger) *Prober {
	return &Prober{FFprobePath: ffprobePath, log: log}
}

// Duration tries the embedded tag parser first, then ffprobe.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	d, err := metaDuration(ctx, path)
	if err == nil && d > 0 {
		return d, nil
	}
	p.log.WithError(err).WithField("path", path).Debug("audiometa could not read duration, trying ffprobe")

	d, perr := p.ffprobeDuration(ctx, path)
	if perr != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrNoDuration, path, errors.Join(err, perr))
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s reports %.3fs", ErrNoDuration, path, d)
	}
	return d, nil
}

func metaDuration(ctx context.Context, path string) (float64, error) {
	file, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close() //nolint:errcheck // read-only handle
	return file.Audio.Duration.Seconds(), nil
}

func (p *Prober) ffprobeDuration(ctx context.Context, path string) (float64, error) {
	ffprobe := p.FFprobePath
	if ffprobe == "" {
		var err error
		if ffprobe, err = exec.LookPath("ffprobe"); err != nil {
			return 0, err
		}
	}

	cmd := exec.CommandContext(ctx, ffprobe, //nolint:gosec // ffprobe path is from config or exec.LookPath
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseSeconds(string(output))
}

func parseSeconds(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return 0, fmt.Errorf("no duration in ffprobe output")
	}
	return strconv.ParseFloat(s, 64)
}
