package ggrender

import (
	"image"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/vietthanhnv/create-karaoke-video/pkg/effects"
	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
	"github.com/vietthanhnv/create-karaoke-video/pkg/timeline"
)

// drawGlowLayer paints all text in the glow color on a transparent
// layer, blurs it, and composites it at the pass's position in the
// chain. The blur is a downscale/upscale pyramid, which reads close
// enough to a gaussian at video resolution and is far cheaper.
func (e *Engine) drawGlowLayer(ts timeline.FrameTimestamp, scene ports.SceneState, p *effects.GlowParams,
	fades []*effects.FadeParams, transforms []*effects.TransformParams) {
	layer := gg.NewContext(e.width, e.height)
	if e.opts.FontPath != "" {
		// Same face as the main context; load errors were already caught
		// in Initialize.
		_ = layer.LoadFontFace(e.opts.FontPath, e.opts.FontSize)
	}

	c := p.Color
	c.A = uint8(255 * p.Intensity)
	e.wordPass(layer, ts, scene, fades, transforms, func(dc *gg.Context, box wordBox, alpha float64) {
		e.drawWordFlat(dc, box, withAlpha(c, alpha))
	})

	src, ok := layer.Image().(*image.RGBA)
	if !ok {
		return
	}
	e.dc.DrawImage(blur(src, p.Radius), 0, 0)
}

// blur approximates a gaussian of the given radius by scaling the image
// down and back up with bilinear filtering.
func blur(src *image.RGBA, radius int) *image.RGBA {
	if radius < 1 {
		return src
	}
	b := src.Bounds()
	// Shrink factor grows with the radius; keep at least a few pixels.
	factor := radius/2 + 2
	sw, sh := b.Dx()/factor, b.Dy()/factor
	if sw < 2 {
		sw = 2
	}
	if sh < 2 {
		sh = 2
	}

	small := image.NewRGBA(image.Rect(0, 0, sw, sh))
	xdraw.ApproxBiLinear.Scale(small, small.Bounds(), src, b, xdraw.Src, nil)

	out := image.NewRGBA(b)
	xdraw.BiLinear.Scale(out, b, small, small.Bounds(), xdraw.Src, nil)
	return out
}
