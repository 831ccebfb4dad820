// Package server exposes the explainer pipeline over HTTP.
package server

import (
	"context"
	"embed"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/thywilljoshua/pdf-explainer/internal/pipeline"
	"github.com/thywilljoshua/pdf-explainer/internal/store"
)

//go:embed web/index.html
var webFS embed.FS

// Processor runs the pipeline for one upload.
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Options configures the HTTP layer.
type Options struct {
	UploadDir      string
	AudioDir       string
	VideoDir       string
	MaxUploadBytes int64
	ProcessTimeout time.Duration
	RateLimitRPS   float64 // zero disables limiting
	RateLimitBurst int
	DefaultPrompt  string
}

// Server is the HTTP handler for the API and the upload page.
type Server struct {
	router  *chi.Mux
	proc    Processor
	jobs    store.JobStore
	opts    Options
	limiter *keyedLimiter
	log     logrus.FieldLogger
}

// New creates a Server. A nil jobs store serves 404 for job lookups.
func New(proc Processor, jobs store.JobStore, opts Options, log logrus.FieldLogger) *Server {
	if jobs == nil {
		jobs = store.Noop{}
	}
	if opts.UploadDir == "" {
		opts.UploadDir = "uploads"
	}
	if opts.AudioDir == "" {
		opts.AudioDir = filepath.Join("static", "audio")
	}
	if opts.VideoDir == "" {
		opts.VideoDir = filepath.Join("static", "videos")
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	if opts.DefaultPrompt == "" {
		opts.DefaultPrompt = pipeline.DefaultPrompt
	}

	s := &Server{
		router: chi.NewRouter(),
		proc:   proc,
		jobs:   jobs,
		opts:   opts,
		log:    log,
	}
	if opts.RateLimitRPS > 0 {
		burst := opts.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = newKeyedLimiter(opts.RateLimitRPS, burst)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/api", s.handleStatus)
	s.router.Get("/healthz", s.handleHealth)

	s.router.With(s.rateLimit).Post("/process-pdf/", s.handleProcess)
	s.router.With(s.rateLimit).Post("/process-pdf", s.handleProcess)

	s.router.Get("/audio/{fileID}", s.handleAudio)
	s.router.Get("/video/{fileID}", s.handleVideo)

	s.router.Get("/jobs", s.handleListJobs)
	s.router.Get("/jobs/{fileID}", s.handleGetJob)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger logs one line per request with logrus.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).Round(time.Millisecond),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("HTTP request")
	})
}
