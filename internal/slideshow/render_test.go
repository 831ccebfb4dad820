package slideshow

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countForeground(img *image.RGBA, fg color.RGBA) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) == fg {
				n++
			}
		}
	}
	return n
}

func TestRender_BackgroundAndText(t *testing.T) {
	opts := DefaultRenderOptions()
	r := NewRenderer(opts, testLogger())

	img := r.Render("Hello slideshow")
	assert.Equal(t, image.Rect(0, 0, 1280, 720), img.Bounds())
	assert.Equal(t, opts.Background, img.RGBAAt(0, 0))
	assert.Equal(t, opts.Background, img.RGBAAt(1279, 719))
	assert.Greater(t, countForeground(img, opts.Foreground), 0)

	// nothing is drawn above the top margin
	for x := 0; x < opts.Width; x++ {
		assert.Equal(t, opts.Background, img.RGBAAt(x, opts.Margin-1))
	}
}

func TestRender_EmptyTextIsPlainBackground(t *testing.T) {
	opts := DefaultRenderOptions()
	r := NewRenderer(opts, testLogger())
	assert.Zero(t, countForeground(r.Render(""), opts.Foreground))
}

func TestRender_TruncatesAtBottomMargin(t *testing.T) {
	opts := DefaultRenderOptions()
	r := NewRenderer(opts, testLogger())

	img := r.Render(strings.Repeat("overflowing text ", 400))
	for y := opts.Height - opts.Margin + opts.LineHeight; y < opts.Height; y++ {
		for x := 0; x < opts.Width; x++ {
			require.Equal(t, opts.Background, img.RGBAAt(x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestNewRenderer_FontFallback(t *testing.T) {
	opts := DefaultRenderOptions()
	opts.FontPath = filepath.Join(t.TempDir(), "arial.ttf")
	r := NewRenderer(opts, testLogger())
	assert.Equal(t, "goregular", r.FontName())

	bad := filepath.Join(t.TempDir(), "broken.ttf")
	require.NoError(t, os.WriteFile(bad, []byte("not a font"), 0o644))
	opts.FontPath = bad
	r = NewRenderer(opts, testLogger())
	assert.Equal(t, "goregular", r.FontName())
}

func TestRender_ParallelMatchesSequential(t *testing.T) {
	opts := DefaultRenderOptions()
	opts.Width, opts.Height = 320, 180
	r := NewRenderer(opts, testLogger())
	text := "The quick brown fox jumps over the lazy dog"
	want := r.Render(text)

	var wg sync.WaitGroup
	got := make([]*image.RGBA, 8)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = r.Render(text)
		}()
	}
	wg.Wait()

	for i, img := range got {
		assert.Equal(t, want.Pix, img.Pix, "render %d", i)
	}
}

func TestRender_NilFaceSkipsText(t *testing.T) {
	opts := DefaultRenderOptions()
	r := &Renderer{opts: opts, log: testLogger()}
	img := r.Render("invisible")
	assert.Zero(t, countForeground(img, opts.Foreground))
}

func TestWritePNG(t *testing.T) {
	opts := DefaultRenderOptions()
	opts.Width, opts.Height = 200, 100
	r := NewRenderer(opts, testLogger())

	p := filepath.Join(t.TempDir(), "slide.png")
	require.NoError(t, r.WritePNG(p, "hi"))

	f, err := os.Open(p)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 100), img.Bounds())
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  []string
	}{
		{"empty", "", 10, nil},
		{"fits", "one two", 10, []string{"one two"}},
		{"breaks on space", "one two three", 7, []string{"one two", "three"}},
		{"long word", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"long word fills current line", "ab abcdefgh", 4, []string{"ab a", "bcde", "fgh"}},
		{"long word breaks after hyphen", "ab x-rayyyyy", 5, []string{"ab x-", "rayyy", "yy"}},
		{"breaks after hyphens", "state-of-the-art", 8, []string{"state-", "of-the-", "art"}},
		{"hyphen chunks fill line", "state-of-the-art", 10, []string{"state-of-", "the-art"}},
		{"no break between digits", "pages 10-20", 8, []string{"pages", "10-20"}},
		{"exact fit then space", "abcd efgh", 4, []string{"abcd", "efgh"}},
		{"collapses whitespace", "a   b\n\nc", 10, []string{"a b c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapText(tt.in, tt.width))
		})
	}
}
