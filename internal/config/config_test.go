package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory so no stray .env is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Empty(t, cfg.LLM.Model)
	assert.Equal(t, 4000, cfg.LLM.MaxInputChars)
	assert.Equal(t, 4000, cfg.TTS.MaxChars)
	assert.Equal(t, 10, cfg.Video.MaxSlides)
	assert.Equal(t, 10.0, cfg.Video.SlideCap)
	assert.Equal(t, 24, cfg.Video.FPS)
	assert.Equal(t, "Explain this content in simple terms with practical examples", cfg.LLM.DefaultPrompt)
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
server:
  addr: ":9000"
  read_timeout: 5s
video:
  max_slides: 6
  fps: 30
llm:
  provider: stub
`), 0o644))

	envPath := filepath.Join(dir, "custom.env")
	require.NoError(t, os.WriteFile(envPath, []byte("VIDEO_FPS=25\nTTS_VOICE=nova\n"), 0o644))

	// godotenv exports the keys it loads into the process environment.
	t.Cleanup(func() { os.Unsetenv("VIDEO_FPS") })
	t.Setenv("VIDEO_MAX_SLIDES", "8")
	t.Setenv("TTS_VOICE", "echo")

	cfg, err := Load(LoadOptions{File: yamlPath, EnvFile: envPath})
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr, "yaml over default")
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "stub", cfg.LLM.Provider)
	assert.Equal(t, 25, cfg.Video.FPS, ".env over yaml")
	assert.Equal(t, 8, cfg.Video.MaxSlides, "env over yaml")
	assert.Equal(t, "echo", cfg.TTS.Voice, "env over .env")
	assert.Equal(t, 1280, cfg.Video.Width, "default kept")
}

func TestLoad_MissingFiles(t *testing.T) {
	isolate(t)

	_, err := Load(LoadOptions{File: "nope.yaml"})
	assert.Error(t, err)

	cfg, err := Load(LoadOptions{EnvFile: "nope.env"})
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Addr)
}

func TestLoad_BadEnvValue(t *testing.T) {
	isolate(t)
	t.Setenv("VIDEO_FPS", "fast")
	t.Setenv("SERVER_READ_TIMEOUT", "soon")

	_, err := Load(LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VIDEO_FPS")
	assert.Contains(t, err.Error(), "SERVER_READ_TIMEOUT")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Credentials.GeminiAPIKey = "g"
		cfg.Credentials.OpenAIAPIKey = "o"
		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown llm provider", func(c *Config) { c.LLM.Provider = "claude" }},
		{"unknown tts provider", func(c *Config) { c.TTS.Provider = "gtts" }},
		{"gemini without key", func(c *Config) { c.Credentials.GeminiAPIKey = "" }},
		{"openai tts without key", func(c *Config) { c.Credentials.OpenAIAPIKey = "" }},
		{"zero slides", func(c *Config) { c.Video.MaxSlides = 0 }},
		{"zero cap", func(c *Config) { c.Video.SlideCap = 0 }},
		{"odd width", func(c *Config) { c.Video.Width = 1281 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"no jobs", func(c *Config) { c.Server.MaxConcurrentJobs = 0 }},
		{"bad extractor", func(c *Config) { c.PDF.Extractor = "pypdf2" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_StubProvidersNeedNoKeys(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = "stub"
	cfg.TTS.Provider = "silent"
	assert.NoError(t, cfg.Validate())
}
