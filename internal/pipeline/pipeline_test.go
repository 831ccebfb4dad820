package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/pdf-explainer/internal/slideshow"
	"github.com/thywilljoshua/pdf-explainer/internal/store"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) Name() string { return "fake-pdf" }
func (f fakeExtractor) Extract(context.Context, string) (string, error) {
	return f.text, f.err
}

type fakeExplainer struct {
	out     string
	err     error
	gotText string
	gotPr   string
	block   chan struct{}
}

func (f *fakeExplainer) Name() string { return "fake-llm" }
func (f *fakeExplainer) Explain(ctx context.Context, text, prompt string) (string, error) {
	f.gotText, f.gotPr = text, prompt
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.out, f.err
}

type fakeSynth struct {
	err  error
	text string
}

func (f *fakeSynth) Name() string { return "fake-tts" }
func (f *fakeSynth) Synthesize(_ context.Context, text, out string) error {
	f.text = text
	if f.err != nil {
		return f.err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	return os.WriteFile(out, []byte("mp3"), 0o644)
}

type fakeProber struct {
	seconds float64
	err     error
}

func (f fakeProber) Duration(context.Context, string) (float64, error) { return f.seconds, f.err }

type fakeComposer struct {
	narration string
	audio     slideshow.AudioTrack
	err       error
}

func (f *fakeComposer) Compose(_ context.Context, narration string, audio slideshow.AudioTrack, id string) (string, error) {
	f.narration, f.audio = narration, audio
	if f.err != nil {
		return "", f.err
	}
	return filepath.Join("videos", id+".mp4"), nil
}

type memJobs struct {
	mu   sync.Mutex
	jobs map[string]*store.Job
}

func newMemJobs() *memJobs { return &memJobs{jobs: map[string]*store.Job{}} }

func (m *memJobs) CreateJob(_ context.Context, j *store.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[j.ID]; ok {
		return store.ErrExists
	}
	cp := *j
	m.jobs[j.ID] = &cp
	return nil
}

func (m *memJobs) CompleteJob(_ context.Context, id string, out store.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return store.ErrNotFound
	}
	j.Status, j.Explanation, j.VideoPath, j.AudioPath = store.StatusCompleted, out.Explanation, out.VideoPath, out.AudioPath
	return nil
}

func (m *memJobs) FailJob(_ context.Context, id, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return store.ErrNotFound
	}
	j.Status, j.Error = store.StatusFailed, reason
	return nil
}

func (m *memJobs) GetJob(_ context.Context, id string) (*store.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobs) ListJobs(context.Context, int) ([]*store.Job, error) { return nil, nil }

type harness struct {
	svc      *Service
	explain  *fakeExplainer
	synth    *fakeSynth
	composer *fakeComposer
	jobs     *memJobs
	audioDir string
}

func newHarness(t *testing.T, mutate func(*Deps)) *harness {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	h := &harness{
		explain:  &fakeExplainer{out: "# Plants\n\nPlants use **light** to grow."},
		synth:    &fakeSynth{},
		composer: &fakeComposer{},
		jobs:     newMemJobs(),
		audioDir: t.TempDir(),
	}
	deps := Deps{
		Extractor:   fakeExtractor{text: "Photosynthesis converts light energy into chemical energy."},
		Explainer:   h.explain,
		Synthesizer: h.synth,
		Prober:      fakeProber{seconds: 7.5},
		Composer:    h.composer,
		Jobs:        h.jobs,
	}
	if mutate != nil {
		mutate(&deps)
	}
	svc, err := New(deps, Options{AudioDir: h.audioDir, MaxTTSChars: 4000}, log)
	require.NoError(t, err)
	svc.inspect = func(string) (int, error) { return 2, nil }
	h.svc = svc
	return h
}

func TestProcess(t *testing.T) {
	h := newHarness(t, nil)

	res, err := h.svc.Process(context.Background(), Request{PDFPath: "/tmp/in.pdf", Filename: "in.pdf", FileID: "abc"})
	require.NoError(t, err)

	assert.Equal(t, "abc", res.FileID)
	assert.Equal(t, "# Plants\n\nPlants use **light** to grow.", res.Explanation)
	assert.Equal(t, "/audio/abc.mp3", res.AudioURL)
	assert.Equal(t, "/video/abc.mp4", res.VideoURL)
	assert.Equal(t, filepath.Join(h.audioDir, "abc.mp3"), res.AudioPath)
	assert.Equal(t, filepath.Join("videos", "abc.mp4"), res.VideoPath)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, 7.5, res.Duration)

	assert.Equal(t, DefaultPrompt, h.explain.gotPr)
	assert.Equal(t, "Plants.\nPlants use light to grow.", h.synth.text)
	assert.Equal(t, "Plants.\nPlants use light to grow.", h.composer.narration)
	assert.Equal(t, slideshow.AudioTrack{Path: res.AudioPath, Duration: 7.5}, h.composer.audio)

	job, err := h.jobs.GetJob(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, job.Status)
	assert.Equal(t, "in.pdf", job.Filename)
	assert.Equal(t, DefaultPrompt, job.Prompt)
}

func TestProcess_ReusedID(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.svc.Process(ctx, Request{PDFPath: "/tmp/in.pdf", FileID: "abc"})
	require.NoError(t, err)
	h.explain.gotText = ""

	_, err = h.svc.Process(ctx, Request{PDFPath: "/tmp/other.pdf", FileID: "abc"})
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageValidate, se.Stage)
	assert.ErrorIs(t, err, ErrValidate)
	assert.ErrorIs(t, err, store.ErrExists)
	assert.Empty(t, h.explain.gotText, "no stage runs for a reused id")

	job, err := h.jobs.GetJob(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, job.Status, "first job untouched")
}

func TestProcess_GeneratesID(t *testing.T) {
	h := newHarness(t, nil)
	res, err := h.svc.Process(context.Background(), Request{PDFPath: "/tmp/in.pdf", Prompt: "Summarize"})
	require.NoError(t, err)
	assert.Len(t, res.FileID, 36)
	assert.Equal(t, "Summarize", h.explain.gotPr)
}

func TestProcess_TruncatesSpokenText(t *testing.T) {
	h := newHarness(t, nil)
	h.explain.out = strings.Repeat("a", 50)
	h.svc.opts.MaxTTSChars = 10

	_, err := h.svc.Process(context.Background(), Request{PDFPath: "x.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaaaaa... (content truncated for audio)", h.synth.text)
	assert.Equal(t, strings.Repeat("a", 50), h.composer.narration)
}

func TestProcess_StageErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name     string
		mutate   func(*Deps)
		setup    func(*harness)
		sentinel error
		provider string
	}{
		{
			name:     "validate",
			setup:    func(h *harness) { h.svc.inspect = func(string) (int, error) { return 0, boom } },
			sentinel: ErrValidate,
			provider: "pdfcpu",
		},
		{
			name:     "extract",
			mutate:   func(d *Deps) { d.Extractor = fakeExtractor{err: boom} },
			sentinel: ErrExtract,
			provider: "fake-pdf",
		},
		{
			name:     "explain",
			setup:    func(h *harness) { h.explain.err = boom },
			sentinel: ErrExplain,
			provider: "fake-llm",
		},
		{
			name:     "synthesize",
			setup:    func(h *harness) { h.synth.err = boom },
			sentinel: ErrSynthesize,
			provider: "fake-tts",
		},
		{
			name:     "probe",
			mutate:   func(d *Deps) { d.Prober = fakeProber{err: boom} },
			sentinel: ErrProbe,
			provider: "audiometa/ffprobe",
		},
		{
			name:     "compose",
			setup:    func(h *harness) { h.composer.err = &slideshow.CompositionError{OutputID: "id", Err: boom} },
			sentinel: ErrCompose,
			provider: "ffmpeg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.mutate)
			if tt.setup != nil {
				tt.setup(h)
			}

			_, err := h.svc.Process(context.Background(), Request{PDFPath: "x.pdf", FileID: "id"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.ErrorIs(t, err, boom)

			var se *StageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.provider, se.Provider)

			for _, other := range []error{ErrValidate, ErrExtract, ErrExplain, ErrSynthesize, ErrProbe, ErrCompose} {
				if other != tt.sentinel {
					assert.NotErrorIs(t, err, other)
				}
			}

			job, err := h.jobs.GetJob(context.Background(), "id")
			require.NoError(t, err)
			assert.Equal(t, store.StatusFailed, job.Status)
			assert.Contains(t, job.Error, "boom")
		})
	}
}

func TestProcess_NoText(t *testing.T) {
	h := newHarness(t, func(d *Deps) { d.Extractor = fakeExtractor{text: "   "} })
	_, err := h.svc.Process(context.Background(), Request{PDFPath: "x.pdf"})
	assert.ErrorIs(t, err, ErrNoText)
	assert.ErrorIs(t, err, ErrExtract)
}

func TestProcess_EmptyExplanation(t *testing.T) {
	h := newHarness(t, nil)
	h.explain.out = "  "
	_, err := h.svc.Process(context.Background(), Request{PDFPath: "x.pdf"})
	assert.ErrorIs(t, err, ErrExplain)
}

func TestProcess_ConcurrencyGate(t *testing.T) {
	h := newHarness(t, nil)
	h.explain.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.Process(context.Background(), Request{PDFPath: "x.pdf", FileID: "first"})
		done <- err
	}()

	// Wait until the first run holds the only slot.
	require.Eventually(t, func() bool { return len(h.svc.sem) == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.svc.Process(ctx, Request{PDFPath: "x.pdf", FileID: "second"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = h.jobs.GetJob(context.Background(), "second")
	assert.ErrorIs(t, err, store.ErrNotFound, "queued request must not create a job")

	close(h.explain.block)
	require.NoError(t, <-done)
}

func TestNew_RequiresDeps(t *testing.T) {
	log := logrus.New()
	_, err := New(Deps{}, Options{}, log)
	assert.Error(t, err)
}

func TestStageError(t *testing.T) {
	err := stageError(StageExplain, "gemini:gemini-2.5-flash", errors.New("quota"))
	assert.Equal(t, "explain (gemini:gemini-2.5-flash): quota", err.Error())
	assert.Equal(t, "compose: x", stageError(StageCompose, "", errors.New("x")).Error())
}
