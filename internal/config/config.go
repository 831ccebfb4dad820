// Package config loads application configuration from defaults, an optional
// YAML file, a .env file, and environment variables, in increasing precedence.
// Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	App         AppConfig         `yaml:"app"`
	Log         LogConfig         `yaml:"log"`
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	PDF         PDFConfig         `yaml:"pdf"`
	LLM         LLMConfig         `yaml:"llm"`
	TTS         TTSConfig         `yaml:"tts"`
	Video       VideoConfig       `yaml:"video"`
	Credentials CredentialsConfig `yaml:"credentials"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `yaml:"environment" validate:"oneof=development staging production"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr              string        `yaml:"addr" validate:"required"`
	ReadTimeout       time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout      time.Duration `yaml:"write_timeout" validate:"gt=0"`
	IdleTimeout       time.Duration `yaml:"idle_timeout" validate:"gt=0"`
	ProcessTimeout    time.Duration `yaml:"process_timeout" validate:"gt=0"`
	MaxUploadMB       int64         `yaml:"max_upload_mb" validate:"min=1"`
	RateLimitRPS      float64       `yaml:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst    int           `yaml:"rate_limit_burst" validate:"min=1"`
	MaxConcurrentJobs int           `yaml:"max_concurrent_jobs" validate:"min=1"`
}

// StorageConfig holds on-disk locations.
type StorageConfig struct {
	UploadDir    string `yaml:"upload_dir" validate:"required"`
	AudioDir     string `yaml:"audio_dir" validate:"required"`
	VideoDir     string `yaml:"video_dir" validate:"required"`
	ScratchDir   string `yaml:"scratch_dir" validate:"required"`
	DatabasePath string `yaml:"database_path" validate:"required"`
}

// PDFConfig selects the text extractor.
type PDFConfig struct {
	Extractor string `yaml:"extractor" validate:"oneof=rsc ledongthuc"`
}

// LLMConfig configures the explanation step.
type LLMConfig struct {
	Provider      string `yaml:"provider" validate:"oneof=gemini openai stub"`
	Model         string `yaml:"model"` // empty picks the provider default
	MaxInputChars int    `yaml:"max_input_chars" validate:"min=1"`
	DefaultPrompt string `yaml:"default_prompt" validate:"required"`
}

// TTSConfig configures speech synthesis.
type TTSConfig struct {
	Provider string `yaml:"provider" validate:"oneof=openai silent"`
	Model    string `yaml:"model"`
	Voice    string `yaml:"voice"`
	MaxChars int    `yaml:"max_chars" validate:"min=1"`
}

// VideoConfig configures the slideshow composer.
type VideoConfig struct {
	MaxSlides   int     `yaml:"max_slides" validate:"min=1"`
	SlideCap    float64 `yaml:"slide_cap_seconds" validate:"gt=0"`
	Width       int     `yaml:"width" validate:"min=16"`
	Height      int     `yaml:"height" validate:"min=16"`
	FPS         int     `yaml:"fps" validate:"min=1,max=120"`
	Codec       string  `yaml:"codec" validate:"required"`
	FontPath    string  `yaml:"font_path"`
	FontSize    float64 `yaml:"font_size" validate:"gt=0"`
	FFmpegPath  string  `yaml:"ffmpeg_path"`
	FFprobePath string  `yaml:"ffprobe_path"`
}

// CredentialsConfig holds API keys. They are only ever read from here, never
// from process-wide state.
type CredentialsConfig struct {
	GeminiAPIKey  string `yaml:"gemini_api_key"`
	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		App: AppConfig{Environment: "development"},
		Log: LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{
			Addr:              ":8000",
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      10 * time.Minute,
			IdleTimeout:       60 * time.Second,
			ProcessTimeout:    10 * time.Minute,
			MaxUploadMB:       50,
			RateLimitRPS:      0.2,
			RateLimitBurst:    3,
			MaxConcurrentJobs: 1,
		},
		Storage: StorageConfig{
			UploadDir:    "uploads",
			AudioDir:     filepath.Join("static", "audio"),
			VideoDir:     filepath.Join("static", "videos"),
			ScratchDir:   filepath.Join("static", "temp"),
			DatabasePath: filepath.Join("data", "jobs.db"),
		},
		PDF: PDFConfig{Extractor: "rsc"},
		LLM: LLMConfig{
			Provider:      "gemini",
			MaxInputChars: 4000,
			DefaultPrompt: "Explain this content in simple terms with practical examples",
		},
		TTS: TTSConfig{
			Provider: "openai",
			Model:    "tts-1",
			Voice:    "alloy",
			MaxChars: 4000,
		},
		Video: VideoConfig{
			MaxSlides: 10,
			SlideCap:  10,
			Width:     1280,
			Height:    720,
			FPS:       24,
			Codec:     "libx264",
			FontSize:  30,
		},
	}
}

// LoadOptions points Load at optional files.
type LoadOptions struct {
	File    string // YAML config file; missing is an error only when set explicitly
	EnvFile string // .env file; missing is ignored
}

// Load builds configuration with precedence: environment > .env > YAML > defaults.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	if opts.File != "" {
		if err := cfg.loadYAML(opts.File); err != nil {
			return nil, err
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv.Load never overrides variables that are already set.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	envString(&c.App.Environment, "ENV")
	envString(&c.Log.Level, "LOG_LEVEL")
	envString(&c.Log.Format, "LOG_FORMAT")

	envString(&c.Server.Addr, "SERVER_ADDR")
	envString(&c.Storage.UploadDir, "UPLOAD_DIR")
	envString(&c.Storage.AudioDir, "AUDIO_DIR")
	envString(&c.Storage.VideoDir, "VIDEO_DIR")
	envString(&c.Storage.ScratchDir, "SCRATCH_DIR")
	envString(&c.Storage.DatabasePath, "DATABASE_PATH")

	envString(&c.PDF.Extractor, "PDF_EXTRACTOR")

	envString(&c.LLM.Provider, "LLM_PROVIDER")
	envString(&c.LLM.Model, "LLM_MODEL")
	envString(&c.LLM.DefaultPrompt, "LLM_DEFAULT_PROMPT")

	envString(&c.TTS.Provider, "TTS_PROVIDER")
	envString(&c.TTS.Model, "TTS_MODEL")
	envString(&c.TTS.Voice, "TTS_VOICE")

	envString(&c.Video.Codec, "VIDEO_CODEC")
	envString(&c.Video.FontPath, "FONT_PATH")
	envString(&c.Video.FFmpegPath, "FFMPEG_PATH")
	envString(&c.Video.FFprobePath, "FFPROBE_PATH")

	envString(&c.Credentials.GeminiAPIKey, "GEMINI_API_KEY")
	envString(&c.Credentials.OpenAIAPIKey, "OPENAI_API_KEY")
	envString(&c.Credentials.OpenAIBaseURL, "OPENAI_BASE_URL")

	return errors.Join(
		envDuration(&c.Server.ReadTimeout, "SERVER_READ_TIMEOUT"),
		envDuration(&c.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT"),
		envDuration(&c.Server.IdleTimeout, "SERVER_IDLE_TIMEOUT"),
		envDuration(&c.Server.ProcessTimeout, "PROCESS_TIMEOUT"),
		envInt64(&c.Server.MaxUploadMB, "MAX_UPLOAD_MB"),
		envFloat(&c.Server.RateLimitRPS, "RATE_LIMIT_RPS"),
		envInt(&c.Server.RateLimitBurst, "RATE_LIMIT_BURST"),
		envInt(&c.Server.MaxConcurrentJobs, "MAX_CONCURRENT_JOBS"),
		envInt(&c.LLM.MaxInputChars, "LLM_MAX_INPUT_CHARS"),
		envInt(&c.TTS.MaxChars, "TTS_MAX_CHARS"),
		envInt(&c.Video.MaxSlides, "VIDEO_MAX_SLIDES"),
		envFloat(&c.Video.SlideCap, "VIDEO_SLIDE_CAP"),
		envInt(&c.Video.Width, "VIDEO_WIDTH"),
		envInt(&c.Video.Height, "VIDEO_HEIGHT"),
		envInt(&c.Video.FPS, "VIDEO_FPS"),
		envFloat(&c.Video.FontSize, "FONT_SIZE"),
	)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and provider credentials.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.LLM.Provider == "gemini" && c.Credentials.GeminiAPIKey == "" {
		return errors.New("llm provider gemini requires GEMINI_API_KEY")
	}
	if c.LLM.Provider == "openai" && c.Credentials.OpenAIAPIKey == "" {
		return errors.New("llm provider openai requires OPENAI_API_KEY")
	}
	if c.TTS.Provider == "openai" && c.Credentials.OpenAIAPIKey == "" {
		return errors.New("tts provider openai requires OPENAI_API_KEY")
	}
	if c.Video.Width%2 != 0 || c.Video.Height%2 != 0 {
		return fmt.Errorf("video size %dx%d must have even dimensions", c.Video.Width, c.Video.Height)
	}
	return nil
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func envInt64(dst *int64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func envFloat(dst *float64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = f
	return nil
}

func envDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}
