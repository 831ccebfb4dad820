package slideshow

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// RenderOptions controls slide rasterization.
type RenderOptions struct {
	Width      int
	Height     int
	Margin     int
	LineHeight int
	WrapWidth  int // characters per line
	FontPath   string
	FontSize   float64
	Background color.RGBA
	Foreground color.RGBA
}

// DefaultRenderOptions matches the 1280x720 navy slide with white 30pt text.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Width:      1280,
		Height:     720,
		Margin:     50,
		LineHeight: 40,
		WrapWidth:  60,
		FontSize:   30,
		Background: color.RGBA{R: 30, G: 30, B: 60, A: 255},
		Foreground: color.RGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

func (o RenderOptions) withDefaults() RenderOptions {
	def := DefaultRenderOptions()
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = def.Width, def.Height
	}
	if o.Margin <= 0 {
		o.Margin = def.Margin
	}
	if o.LineHeight <= 0 {
		o.LineHeight = def.LineHeight
	}
	if o.WrapWidth <= 0 {
		o.WrapWidth = def.WrapWidth
	}
	if o.FontSize <= 0 {
		o.FontSize = def.FontSize
	}
	if o.Background == (color.RGBA{}) {
		o.Background = def.Background
	}
	if o.Foreground == (color.RGBA{}) {
		o.Foreground = def.Foreground
	}
	return o
}

// Renderer draws slide text onto solid-color images. It is safe for
// concurrent use: the parsed font is shared, but every Render call draws with
// its own face because opentype faces keep per-face glyph buffers.
type Renderer struct {
	opts     RenderOptions
	font     *opentype.Font
	bitmap   font.Face // used when font is nil; stateless
	faceName string
	log      logrus.FieldLogger
}

// NewRenderer resolves the font once. A missing or broken font never fails:
// the preferred file falls back to Go Regular, then the bitmap face.
func NewRenderer(opts RenderOptions, log logrus.FieldLogger) *Renderer {
	opts.FontSize = fontSize(opts.FontSize)
	r := &Renderer{opts: opts, log: log}
	r.font, r.faceName = loadFont(opts.FontPath, opts.FontSize, log)
	if r.font == nil {
		r.bitmap = basicfont.Face7x13
	}
	log.WithField("font", r.faceName).Debug("slide renderer ready")
	return r
}

// FontName reports which face the renderer ended up with.
func (r *Renderer) FontName() string { return r.faceName }

func (r *Renderer) newFace() font.Face {
	if r.font == nil {
		return r.bitmap
	}
	face, err := opentype.NewFace(r.font, faceOptions(r.opts.FontSize))
	if err != nil {
		r.log.WithError(err).Warn("font face creation failed, using bitmap face")
		return basicfont.Face7x13
	}
	return face
}

// Render rasterizes one slide. Lines that would run past the bottom margin are dropped.
func (r *Renderer) Render(text string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.opts.Width, r.opts.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: r.opts.Background}, image.Point{}, draw.Src)
	face := r.newFace()
	if face == nil {
		return img
	}
	defer face.Close()

	d := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: r.opts.Foreground},
		Face: face,
	}
	ascent := face.Metrics().Ascent.Ceil()

	y := r.opts.Margin
	for _, line := range wrapText(text, r.opts.WrapWidth) {
		d.Dot = fixed.P(r.opts.Margin, y+ascent)
		if !r.drawLine(d, line) {
			break
		}
		y += r.opts.LineHeight
		if y > r.opts.Height-r.opts.Margin {
			break
		}
	}
	return img
}

// drawLine reports false if the glyph rasterizer panicked; the slide keeps
// whatever was drawn so far.
func (r *Renderer) drawLine(d *font.Drawer, line string) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.WithField("panic", rec).Warn("text drawing failed, leaving slide partially drawn")
			ok = false
		}
	}()
	d.DrawString(line)
	return true
}

// WritePNG renders text and writes it to path.
func (r *Renderer) WritePNG(path, text string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create slide image: %w", err)
	}
	if err := png.Encode(f, r.Render(text)); err != nil {
		f.Close()
		return fmt.Errorf("encode slide image: %w", err)
	}
	return f.Close()
}

func fontSize(size float64) float64 {
	if size <= 0 {
		return 30
	}
	return size
}

func faceOptions(size float64) *opentype.FaceOptions {
	return &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}
}

// loadFont returns nil when neither the preferred file nor Go Regular can be
// turned into a face; the renderer then uses the bitmap face.
func loadFont(path string, size float64, log logrus.FieldLogger) (*opentype.Font, string) {
	if path != "" {
		b, err := os.ReadFile(path)
		if err == nil {
			var f *opentype.Font
			if f, err = parseFont(b, size); err == nil {
				return f, path
			}
		}
		log.WithError(err).WithField("path", path).Warn("preferred font unavailable, using built-in face")
	}
	f, err := parseFont(goregular.TTF, size)
	if err == nil {
		return f, "goregular"
	}
	log.WithError(err).Warn("built-in TrueType face unavailable, using bitmap face")
	return nil, "basicfont"
}

// parseFont also builds a throwaway face so a font that parses but cannot be
// sized is rejected up front.
func parseFont(b []byte, size float64) (*opentype.Font, error) {
	f, err := opentype.Parse(b)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(f, faceOptions(size))
	if err != nil {
		return nil, err
	}
	face.Close()
	return f, nil
}
