package slideshow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Frame is one still image shown for Duration seconds.
type Frame struct {
	Path     string
	Duration float64
}

// EncodeJob describes one video to encode.
type EncodeJob struct {
	Frames     []Frame
	AudioPath  string
	OutputPath string
	FPS        int
}

// Encoder turns ordered frames plus an audio track into a video file.
type Encoder interface {
	Encode(ctx context.Context, job EncodeJob) error
}

// FFmpeg encodes with the ffmpeg concat demuxer. The concat list is written
// next to the first frame, so it is cleaned up with the frames.
type FFmpeg struct {
	Path  string // ffmpeg binary
	Codec string // video codec, e.g. libx264
	log   logrus.FieldLogger
}

// NewFFmpeg resolves the ffmpeg binary. An empty path means look it up on PATH.
func NewFFmpeg(path, codec string, log logrus.FieldLogger) (*FFmpeg, error) {
	if path == "" {
		p, err := exec.LookPath("ffmpeg")
		if err != nil {
			return nil, fmt.Errorf("ffmpeg not found: %w", err)
		}
		path = p
	}
	if codec == "" {
		codec = "libx264"
	}
	return &FFmpeg{Path: path, Codec: codec, log: log}, nil
}

func (f *FFmpeg) Encode(ctx context.Context, job EncodeJob) error {
	if len(job.Frames) == 0 {
		return errors.New("no frames to encode")
	}
	if job.FPS <= 0 {
		job.FPS = 24
	}

	listPath := filepath.Join(filepath.Dir(job.Frames[0].Path), "slides.ffconcat")
	if err := os.WriteFile(listPath, []byte(concatList(job.Frames, job.FPS)), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}

	args := f.buildArgs(listPath, job)
	f.log.WithFields(logrus.Fields{
		"output": job.OutputPath,
		"frames": len(job.Frames),
	}).Debug("executing ffmpeg")

	cmd := exec.CommandContext(ctx, f.Path, args...) //nolint:gosec // binary path comes from config or LookPath
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLines(stderr.String(), 5))
	}
	return nil
}

func (f *FFmpeg) buildArgs(listPath string, job EncodeJob) []string {
	total := 0.0
	for _, fr := range job.Frames {
		total += fr.Duration
	}
	return []string{
		"-y",
		"-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-i", job.AudioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-vf", fmt.Sprintf("fps=%d,format=yuv420p", job.FPS),
		"-c:v", f.Codec,
		"-c:a", "aac",
		"-t", formatSeconds(total),
		"-movflags", "+faststart",
		job.OutputPath,
	}
}

// concatList renders an ffconcat script. The last frame is listed twice
// because the demuxer ignores the duration of the final entry. No entry is
// shorter than one frame at fps, so every slide stays on screen.
func concatList(frames []Frame, fps int) string {
	minDur := 0.0
	if fps > 0 {
		minDur = 1 / float64(fps)
	}
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for _, fr := range frames {
		fmt.Fprintf(&b, "file '%s'\nduration %s\n", filepath.Base(fr.Path), formatSeconds(max(fr.Duration, minDur)))
	}
	fmt.Fprintf(&b, "file '%s'\n", filepath.Base(frames[len(frames)-1].Path))
	return b.String()
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 6, 64)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "; ")
}
