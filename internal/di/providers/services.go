package providers

import (
	"context"

	"github.com/samber/do/v2"
	"github.com/sirupsen/logrus"

	"github.com/thywilljoshua/pdf-explainer/internal/ai"
	"github.com/thywilljoshua/pdf-explainer/internal/config"
	"github.com/thywilljoshua/pdf-explainer/internal/media"
	"github.com/thywilljoshua/pdf-explainer/internal/pdf"
	"github.com/thywilljoshua/pdf-explainer/internal/pipeline"
	"github.com/thywilljoshua/pdf-explainer/internal/slideshow"
	"github.com/thywilljoshua/pdf-explainer/internal/tts"
)

// ProvideExtractor provides the configured PDF text extractor.
func ProvideExtractor(i do.Injector) (pdf.Extractor, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return pdf.New(cfg.PDF.Extractor)
}

// ProvideExplainer provides the configured text-generation backend.
func ProvideExplainer(i do.Injector) (ai.Explainer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logrus.Logger](i)

	opts := ai.Options{
		Provider:      cfg.LLM.Provider,
		Model:         cfg.LLM.Model,
		MaxInputChars: cfg.LLM.MaxInputChars,
	}
	switch cfg.LLM.Provider {
	case ai.ProviderGemini:
		opts.APIKey = cfg.Credentials.GeminiAPIKey
	case ai.ProviderOpenAI:
		opts.APIKey = cfg.Credentials.OpenAIAPIKey
		opts.BaseURL = cfg.Credentials.OpenAIBaseURL
	}
	e, err := ai.New(context.Background(), opts)
	if err != nil {
		return nil, err
	}
	log.WithField("explainer", e.Name()).Info("Explainer ready")
	return e, nil
}

// ProvideSynthesizer provides the configured speech backend.
func ProvideSynthesizer(i do.Injector) (tts.Synthesizer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logrus.Logger](i)

	s, err := tts.New(tts.Options{
		Provider:   cfg.TTS.Provider,
		Model:      cfg.TTS.Model,
		Voice:      cfg.TTS.Voice,
		APIKey:     cfg.Credentials.OpenAIAPIKey,
		BaseURL:    cfg.Credentials.OpenAIBaseURL,
		FFmpegPath: cfg.Video.FFmpegPath,
	}, log)
	if err != nil {
		return nil, err
	}
	log.WithField("synthesizer", s.Name()).Info("Synthesizer ready")
	return s, nil
}

// ProvideProber provides the audio duration prober.
func ProvideProber(i do.Injector) (*media.Prober, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logrus.Logger](i)
	return media.NewProber(cfg.Video.FFprobePath, log), nil
}

// ProvideComposer provides the slideshow composer backed by ffmpeg.
func ProvideComposer(i do.Injector) (*slideshow.Composer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logrus.Logger](i)

	enc, err := slideshow.NewFFmpeg(cfg.Video.FFmpegPath, cfg.Video.Codec, log)
	if err != nil {
		return nil, err
	}
	return slideshow.New(ComposerOptions(cfg), enc, log)
}

// ComposerOptions maps configuration onto slideshow options.
func ComposerOptions(cfg *config.Config) slideshow.Options {
	render := slideshow.DefaultRenderOptions()
	render.Width = cfg.Video.Width
	render.Height = cfg.Video.Height
	render.FontPath = cfg.Video.FontPath
	render.FontSize = cfg.Video.FontSize
	return slideshow.Options{
		MaxSlides:   cfg.Video.MaxSlides,
		PerSlideCap: cfg.Video.SlideCap,
		FPS:         cfg.Video.FPS,
		ScratchDir:  cfg.Storage.ScratchDir,
		OutputDir:   cfg.Storage.VideoDir,
		Render:      render,
	}
}

// ProvidePipeline provides the upload processing service.
func ProvidePipeline(i do.Injector) (*pipeline.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logrus.Logger](i)

	return pipeline.New(pipeline.Deps{
		Extractor:   do.MustInvoke[pdf.Extractor](i),
		Explainer:   do.MustInvoke[ai.Explainer](i),
		Synthesizer: do.MustInvoke[tts.Synthesizer](i),
		Prober:      do.MustInvoke[*media.Prober](i),
		Composer:    do.MustInvoke[*slideshow.Composer](i),
		Jobs:        do.MustInvoke[*StoreHandle](i).Store,
	}, pipeline.Options{
		AudioDir:      cfg.Storage.AudioDir,
		DefaultPrompt: cfg.LLM.DefaultPrompt,
		MaxTTSChars:   cfg.TTS.MaxChars,
		MaxConcurrent: cfg.Server.MaxConcurrentJobs,
	}, log)
}
