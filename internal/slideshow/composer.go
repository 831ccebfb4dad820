// Package slideshow turns narration text and its audio into a slideshow video:
// the text is split into slides, each slide gets a share of the audio's
// duration, slides are rasterized, and the stills are encoded with the audio.
package slideshow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"
)

// Options configures a Composer.
type Options struct {
	MaxSlides   int
	PerSlideCap float64 // seconds
	FPS         int
	ScratchDir  string
	OutputDir   string
	Render      RenderOptions
}

// DefaultOptions returns 10 slides max, 10s per slide, 24fps.
func DefaultOptions() Options {
	return Options{
		MaxSlides:   10,
		PerSlideCap: 10,
		FPS:         24,
		ScratchDir:  filepath.Join("static", "temp"),
		OutputDir:   filepath.Join("static", "videos"),
		Render:      DefaultRenderOptions(),
	}
}

// Composer builds slideshow videos. It is safe for concurrent use: each
// Compose call renders into its own scratch sub-directory with its own font face.
type Composer struct {
	opts     Options
	renderer *Renderer
	encoder  Encoder
	log      logrus.FieldLogger
}

// New creates a Composer. Zero-valued numeric options take their defaults.
func New(opts Options, encoder Encoder, log logrus.FieldLogger) (*Composer, error) {
	if encoder == nil {
		return nil, errors.New("slideshow: encoder is required")
	}
	def := DefaultOptions()
	if opts.MaxSlides <= 0 {
		opts.MaxSlides = def.MaxSlides
	}
	if opts.PerSlideCap <= 0 {
		opts.PerSlideCap = def.PerSlideCap
	}
	if opts.FPS <= 0 {
		opts.FPS = def.FPS
	}
	if opts.ScratchDir == "" {
		opts.ScratchDir = def.ScratchDir
	}
	if opts.OutputDir == "" {
		opts.OutputDir = def.OutputDir
	}
	opts.Render = opts.Render.withDefaults()
	return &Composer{
		opts:     opts,
		renderer: NewRenderer(opts.Render, log),
		encoder:  encoder,
		log:      log,
	}, nil
}

// Compose renders narration as slides, encodes them with audio, and returns
// the path of the written video. Every failure is a *CompositionError.
func (c *Composer) Compose(ctx context.Context, narration string, audio AudioTrack, outputID string) (string, error) {
	if outputID == "" || strings.ContainsAny(outputID, `/\`) || outputID == "." || outputID == ".." {
		return "", compositionError(outputID, "invalid output id %q", outputID)
	}
	if audio.Duration <= 0 {
		return "", compositionError(outputID, "audio %s has non-positive duration %.3f", audio.Path, audio.Duration)
	}
	if _, err := os.Stat(audio.Path); err != nil {
		return "", &CompositionError{OutputID: outputID, Err: fmt.Errorf("read audio: %w", err)}
	}

	slides := Plan(narration, audio.Duration, c.opts.MaxSlides, c.opts.PerSlideCap)
	log := c.log.WithFields(logrus.Fields{"id": outputID, "slides": len(slides)})
	log.Debug("planned slides")

	scratch, err := c.scratchDir(outputID)
	if err != nil {
		return "", &CompositionError{OutputID: outputID, Err: err}
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			log.WithError(err).Warn("failed to remove slide scratch directory")
		}
	}()

	frames := make([]Frame, 0, len(slides))
	for i, s := range slides {
		p := filepath.Join(scratch, fmt.Sprintf("slide_%03d.png", i))
		if err := c.renderer.WritePNG(p, s.Text); err != nil {
			return "", &CompositionError{OutputID: outputID, Err: err}
		}
		frames = append(frames, Frame{Path: p, Duration: s.Duration})
	}

	if err := os.MkdirAll(c.opts.OutputDir, 0o755); err != nil {
		return "", &CompositionError{OutputID: outputID, Err: fmt.Errorf("create output dir: %w", err)}
	}
	out := filepath.Join(c.opts.OutputDir, outputID+".mp4")

	err = c.encoder.Encode(ctx, EncodeJob{
		Frames:     frames,
		AudioPath:  audio.Path,
		OutputPath: out,
		FPS:        c.opts.FPS,
	})
	if err != nil {
		_ = os.Remove(out)
		return "", &CompositionError{OutputID: outputID, Err: err}
	}

	log.WithField("path", out).Info("video written")
	return out, nil
}

func (c *Composer) scratchDir(outputID string) (string, error) {
	suffix, err := gonanoid.New(8)
	if err != nil {
		return "", fmt.Errorf("generate scratch name: %w", err)
	}
	dir := filepath.Join(c.opts.ScratchDir, outputID+"-"+suffix)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	return dir, nil
}
