package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/thywilljoshua/pdf-explainer/internal/pdf"
	"github.com/thywilljoshua/pdf-explainer/internal/pipeline"
	"github.com/thywilljoshua/pdf-explainer/internal/store"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "upload page unavailable", s.log)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "PDF Explainer API is running"}, s.log)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.log)
}

// handleProcess accepts a multipart upload with a "file" part and an optional
// "prompt" (form field or query parameter) and runs the pipeline synchronously.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	tooLarge := func() {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File exceeds the %d MB upload limit", s.opts.MaxUploadBytes>>20), s.log)
	}
	if r.ContentLength > s.opts.MaxUploadBytes {
		tooLarge()
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			tooLarge()
			return
		}
		writeError(w, http.StatusBadRequest, "Expected a multipart form with a PDF file", s.log)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded", s.log)
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "Only PDF files are supported", s.log)
		return
	}

	prompt := r.FormValue("prompt")
	if strings.TrimSpace(prompt) == "" {
		prompt = s.opts.DefaultPrompt
	}

	fileID := uuid.NewString()
	path, err := s.saveUpload(fileID, filename, file)
	if err != nil {
		s.log.WithError(err).Error("Failed to save upload")
		writeError(w, http.StatusInternalServerError, "Failed to save upload", s.log)
		return
	}

	ctx := r.Context()
	if s.opts.ProcessTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ProcessTimeout)
		defer cancel()
	}

	res, err := s.proc.Process(ctx, pipeline.Request{
		PDFPath:  path,
		Filename: filename,
		Prompt:   prompt,
		FileID:   fileID,
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error(), s.log)
		return
	}
	writeJSON(w, http.StatusOK, res, s.log)
}

func (s *Server) saveUpload(fileID, filename string, src io.Reader) (string, error) {
	if err := os.MkdirAll(s.opts.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(s.opts.UploadDir, fileID+"_"+filename)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path, dst.Close()
}

// statusFor maps pipeline failures to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrExists):
		return http.StatusConflict
	case errors.Is(err, pdf.ErrNotPDF), errors.Is(err, pipeline.ErrValidate):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNoText):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, pipeline.ErrExplain), errors.Is(err, pipeline.ErrSynthesize):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	s.serveMedia(w, r, s.opts.AudioDir, ".mp3", "audio/mpeg", "Audio not found")
}

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	s.serveMedia(w, r, s.opts.VideoDir, ".mp4", "video/mp4", "Video not found")
}

// serveMedia serves <dir>/<id><ext>. The id may carry the extension already.
func (s *Server) serveMedia(w http.ResponseWriter, r *http.Request, dir, ext, contentType, notFound string) {
	id := strings.TrimSuffix(chi.URLParam(r, "fileID"), ext)
	if !validID(id) {
		writeError(w, http.StatusNotFound, notFound, s.log)
		return
	}

	f, err := os.Open(filepath.Join(dir, id+ext))
	if err != nil {
		writeError(w, http.StatusNotFound, notFound, s.log)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		writeError(w, http.StatusNotFound, notFound, s.log)
		return
	}
	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, id+ext, fi.ModTime(), f)
}

func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.GetJob(r.Context(), chi.URLParam(r, "fileID"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Job not found", s.log)
		return
	}
	if err != nil {
		s.log.WithError(err).Error("Failed to load job")
		writeError(w, http.StatusInternalServerError, "Failed to load job", s.log)
		return
	}
	writeJSON(w, http.StatusOK, jobView(job), s.log)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500", s.log)
			return
		}
		limit = n
	}
	jobs, err := s.jobs.ListJobs(r.Context(), limit)
	if err != nil {
		s.log.WithError(err).Error("Failed to list jobs")
		writeError(w, http.StatusInternalServerError, "Failed to list jobs", s.log)
		return
	}
	views := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, jobView(j))
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": views}, s.log)
}

type jobResponse struct {
	*store.Job
	AudioURL string `json:"audio_url,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
}

func jobView(j *store.Job) jobResponse {
	v := jobResponse{Job: j}
	if j.Status == store.StatusCompleted {
		v.AudioURL = pipeline.AudioURL(j.ID)
		v.VideoURL = pipeline.VideoURL(j.ID)
	}
	return v
}
