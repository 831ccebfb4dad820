// Package providers contains dependency injection providers for pdf-explainer.
package providers

import (
	"os"
	"time"

	"github.com/samber/do/v2"
	"github.com/sirupsen/logrus"

	"github.com/thywilljoshua/pdf-explainer/internal/config"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server.
const shutdownTimeout = 30 * time.Second

// NewLogger builds the application logger from configuration.
func NewLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logrus.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := NewLogger(cfg.Log)
	log.WithFields(logrus.Fields{
		"environment":  cfg.App.Environment,
		"llm_provider": cfg.LLM.Provider,
		"tts_provider": cfg.TTS.Provider,
		"extractor":    cfg.PDF.Extractor,
	}).Debug("Logger initialized")
	return log, nil
}
