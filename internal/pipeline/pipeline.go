// Package pipeline turns an uploaded PDF into an explanation, a narration MP3
// and a slideshow MP4.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/thywilljoshua/pdf-explainer/internal/ai"
	"github.com/thywilljoshua/pdf-explainer/internal/pdf"
	"github.com/thywilljoshua/pdf-explainer/internal/slideshow"
	"github.com/thywilljoshua/pdf-explainer/internal/store"
	"github.com/thywilljoshua/pdf-explainer/internal/tts"
)

// DefaultPrompt is used when a request carries no prompt.
const DefaultPrompt = "Explain this content in simple terms with practical examples"

// Composer renders a narration and its audio into a video.
type Composer interface {
	Compose(ctx context.Context, narration string, audio slideshow.AudioTrack, outputID string) (string, error)
}

// Prober measures audio length in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Deps are the collaborators a Service drives. Jobs may be nil.
type Deps struct {
	Extractor   pdf.Extractor
	Explainer   ai.Explainer
	Synthesizer tts.Synthesizer
	Prober      Prober
	Composer    Composer
	Jobs        store.JobStore
}

// Options configures a Service.
type Options struct {
	AudioDir      string
	DefaultPrompt string
	MaxTTSChars   int
	MaxConcurrent int
}

// Request describes one upload to process.
type Request struct {
	PDFPath  string
	Filename string
	Prompt   string
	FileID   string // generated when empty
}

// Result is what a successful run produced.
type Result struct {
	FileID      string  `json:"file_id"`
	Explanation string  `json:"explanation"`
	AudioURL    string  `json:"audio_url"`
	VideoURL    string  `json:"video_url"`
	AudioPath   string  `json:"-"`
	VideoPath   string  `json:"-"`
	Pages       int     `json:"pages"`
	Duration    float64 `json:"duration_seconds"`
}

// Service runs the pipeline. At most Options.MaxConcurrent runs proceed at
// once; the rest wait for a slot or for their context to end.
type Service struct {
	deps    Deps
	opts    Options
	sem     chan struct{}
	inspect func(path string) (int, error)
	log     logrus.FieldLogger
}

// New validates deps and returns a Service.
func New(deps Deps, opts Options, log logrus.FieldLogger) (*Service, error) {
	switch {
	case deps.Extractor == nil:
		return nil, errors.New("pipeline: extractor is required")
	case deps.Explainer == nil:
		return nil, errors.New("pipeline: explainer is required")
	case deps.Synthesizer == nil:
		return nil, errors.New("pipeline: synthesizer is required")
	case deps.Prober == nil:
		return nil, errors.New("pipeline: prober is required")
	case deps.Composer == nil:
		return nil, errors.New("pipeline: composer is required")
	}
	if deps.Jobs == nil {
		deps.Jobs = store.Noop{}
	}
	if opts.AudioDir == "" {
		opts.AudioDir = filepath.Join("static", "audio")
	}
	if opts.DefaultPrompt == "" {
		opts.DefaultPrompt = DefaultPrompt
	}
	if opts.MaxTTSChars <= 0 {
		opts.MaxTTSChars = tts.DefaultMaxChars
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	return &Service{
		deps:    deps,
		opts:    opts,
		sem:     make(chan struct{}, opts.MaxConcurrent),
		inspect: pdf.Inspect,
		log:     log,
	}, nil
}

// AudioURL and VideoURL are the public paths for a file id's outputs.
func AudioURL(id string) string { return "/audio/" + id + ".mp3" }
func VideoURL(id string) string { return "/video/" + id + ".mp4" }

// Process runs every stage for req. Failures are *StageError values and are
// recorded on the job.
func (s *Service) Process(ctx context.Context, req Request) (*Result, error) {
	if req.FileID == "" {
		req.FileID = uuid.NewString()
	}
	if strings.TrimSpace(req.Prompt) == "" {
		req.Prompt = s.opts.DefaultPrompt
	}
	if req.Filename == "" {
		req.Filename = filepath.Base(req.PDFPath)
	}

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	log := s.log.WithFields(logrus.Fields{"file_id": req.FileID, "filename": req.Filename})
	start := time.Now()

	if err := s.deps.Jobs.CreateJob(ctx, &store.Job{
		ID:       req.FileID,
		Filename: req.Filename,
		Prompt:   req.Prompt,
		Status:   store.StatusProcessing,
	}); err != nil {
		if errors.Is(err, store.ErrExists) {
			return nil, stageError(StageValidate, "", fmt.Errorf("file id %q already used: %w", req.FileID, err))
		}
		return nil, fmt.Errorf("record job: %w", err)
	}

	res, err := s.run(ctx, req, log)
	if err != nil {
		log.WithError(err).Error("Processing failed")
		if ferr := s.deps.Jobs.FailJob(context.WithoutCancel(ctx), req.FileID, err.Error()); ferr != nil {
			log.WithError(ferr).Warn("Failed to record job failure")
		}
		return nil, err
	}

	if err := s.deps.Jobs.CompleteJob(context.WithoutCancel(ctx), req.FileID, store.Outcome{
		Pages:       res.Pages,
		Explanation: res.Explanation,
		AudioPath:   res.AudioPath,
		VideoPath:   res.VideoPath,
		Duration:    res.Duration,
	}); err != nil {
		log.WithError(err).Warn("Failed to record job completion")
	}
	log.WithFields(logrus.Fields{
		"pages":    res.Pages,
		"duration": res.Duration,
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}).Info("Processing complete")
	return res, nil
}

func (s *Service) run(ctx context.Context, req Request, log logrus.FieldLogger) (*Result, error) {
	pages, err := s.inspect(req.PDFPath)
	if err != nil {
		return nil, stageError(StageValidate, "pdfcpu", err)
	}

	text, err := s.deps.Extractor.Extract(ctx, req.PDFPath)
	if err != nil {
		return nil, stageError(StageExtract, s.deps.Extractor.Name(), err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, stageError(StageExtract, s.deps.Extractor.Name(), ErrNoText)
	}
	log.WithFields(logrus.Fields{"pages": pages, "chars": len(text)}).Debug("Text extracted")

	explanation, err := s.deps.Explainer.Explain(ctx, text, req.Prompt)
	if err != nil {
		return nil, stageError(StageExplain, s.deps.Explainer.Name(), err)
	}
	narration := ai.PlainText(explanation)
	if narration == "" {
		narration = strings.TrimSpace(explanation)
	}
	if narration == "" {
		return nil, stageError(StageExplain, s.deps.Explainer.Name(), errors.New("empty explanation"))
	}

	audioPath := filepath.Join(s.opts.AudioDir, req.FileID+".mp3")
	spoken := tts.PrepareText(narration, s.opts.MaxTTSChars)
	if err := s.deps.Synthesizer.Synthesize(ctx, spoken, audioPath); err != nil {
		return nil, stageError(StageSynthesize, s.deps.Synthesizer.Name(), err)
	}

	duration, err := s.deps.Prober.Duration(ctx, audioPath)
	if err != nil {
		return nil, stageError(StageProbe, "audiometa/ffprobe", err)
	}
	log.WithField("seconds", duration).Debug("Narration synthesized")

	videoPath, err := s.deps.Composer.Compose(ctx, narration,
		slideshow.AudioTrack{Path: audioPath, Duration: duration}, req.FileID)
	if err != nil {
		return nil, stageError(StageCompose, "ffmpeg", err)
	}

	return &Result{
		FileID:      req.FileID,
		Explanation: explanation,
		AudioURL:    AudioURL(req.FileID),
		VideoURL:    VideoURL(req.FileID),
		AudioPath:   audioPath,
		VideoPath:   videoPath,
		Pages:       pages,
		Duration:    duration,
	}, nil
}
