// Package ggrender implements the render engine on the gg drawing
// library: background, karaoke text with a per-word highlight sweep, and
// the effect passes, composited into an off-screen RGBA target.
package ggrender

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
	"github.com/vietthanhnv/create-karaoke-video/pkg/timeline"
)

var (
	ErrNotInitialized = errors.New("ggrender: engine not initialized")
	ErrInvalidSize    = errors.New("ggrender: invalid render target size")
	ErrFontLoad       = errors.New("ggrender: cannot load font face")
)

// Options configures the text style. Zero values select the defaults.
type Options struct {
	// FontPath is a TTF file. Empty selects gg's built-in face, which is
	// only useful for tests and thumbnails.
	FontPath string
	FontSize float64

	// BaseColor paints not-yet-sung text, HighlightColor sung text.
	BaseColor      color.RGBA
	HighlightColor color.RGBA

	// LineSpacing is a multiple of the font size.
	LineSpacing float64

	// BottomMargin is the distance from the canvas bottom to the last
	// line's baseline, as a fraction of the canvas height.
	BottomMargin float64
}

func (o *Options) applyDefaults() {
	if o.FontSize <= 0 {
		o.FontSize = 48
	}
	if o.BaseColor == (color.RGBA{}) {
		o.BaseColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	if o.HighlightColor == (color.RGBA{}) {
		o.HighlightColor = color.RGBA{R: 255, G: 215, B: 0, A: 255}
	}
	if o.LineSpacing <= 0 {
		o.LineSpacing = 1.4
	}
	if o.BottomMargin <= 0 {
		o.BottomMargin = 0.12
	}
}

// Engine implements ports.RenderEngine. It is bound to the goroutine
// that calls Initialize; see the executor package.
type Engine struct {
	opts   Options
	width  int
	height int
	dc     *gg.Context

	// scaled background cache, keyed by the source image identity
	bgSrc    image.Image
	bgScaled image.Image
}

// New creates an engine with the given text style.
func New(opts Options) *Engine {
	opts.applyDefaults()
	return &Engine{opts: opts}
}

// Initialize binds the off-screen target and loads the font face. Font
// problems surface here, never per frame.
func (e *Engine) Initialize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	dc := gg.NewContext(width, height)
	if e.opts.FontPath != "" {
		if err := dc.LoadFontFace(e.opts.FontPath, e.opts.FontSize); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrFontLoad, e.opts.FontPath, err)
		}
	}
	e.dc = dc
	e.width = width
	e.height = height
	return nil
}

// Render composites the scene and returns the target as an RGBA image.
// The returned image is reused by the next Render call; the caller must
// consume or copy it before rendering again.
func (e *Engine) Render(ts timeline.FrameTimestamp, scene ports.SceneState) (*image.RGBA, error) {
	if e.dc == nil {
		return nil, ErrNotInitialized
	}

	e.drawBackground(scene.Background)

	if len(scene.Lines) > 0 {
		e.drawScene(ts, scene)
	}

	img, ok := e.dc.Image().(*image.RGBA)
	if !ok {
		// gg contexts are always RGBA-backed; this is unreachable with
		// the current library but cheap to keep honest.
		return nil, fmt.Errorf("ggrender: unexpected canvas image type %T", e.dc.Image())
	}
	return img, nil
}

// Close releases the render target.
func (e *Engine) Close() {
	e.dc = nil
	e.bgSrc = nil
	e.bgScaled = nil
}

func (e *Engine) drawBackground(bg ports.Background) {
	if bg.Image == nil {
		// Solid-color degraded mode. A fully transparent color still
		// needs an opaque canvas for the encoder.
		c := bg.Color
		if c.A == 0 {
			c = color.RGBA{A: 255}
		}
		e.dc.SetColor(c)
		e.dc.Clear()
		return
	}
	if bg.Image != e.bgSrc {
		dst := image.NewRGBA(image.Rect(0, 0, e.width, e.height))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), bg.Image, bg.Image.Bounds(), xdraw.Src, nil)
		e.bgSrc = bg.Image
		e.bgScaled = dst
	}
	e.dc.DrawImage(e.bgScaled, 0, 0)
}

var _ ports.RenderEngine = (*Engine)(nil)
