package ggrender

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/vietthanhnv/create-karaoke-video/pkg/effects"
	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
	"github.com/vietthanhnv/create-karaoke-video/pkg/timeline"
)

// wordBox is a measured word placed on the canvas.
type wordBox struct {
	text     string
	progress float64
	x        float64 // left edge
	y        float64 // baseline
	width    float64
}

// layoutLine centers the line horizontally at the given baseline.
func (e *Engine) layoutLine(dc *gg.Context, line ports.LineState, baseline float64) []wordBox {
	space, _ := dc.MeasureString(" ")

	var total float64
	widths := make([]float64, len(line.Words))
	for i, w := range line.Words {
		widths[i], _ = dc.MeasureString(w.Text)
		total += widths[i]
	}
	if n := len(line.Words); n > 1 {
		total += space * float64(n-1)
	}

	x := (float64(e.width) - total) / 2
	boxes := make([]wordBox, len(line.Words))
	for i, w := range line.Words {
		boxes[i] = wordBox{
			text:     w.Text,
			progress: w.Progress,
			x:        x,
			y:        baseline,
			width:    widths[i],
		}
		x += widths[i] + space
	}
	return boxes
}

// baselines stacks lines upward from the bottom margin.
func (e *Engine) baselines(n int) []float64 {
	lineHeight := e.opts.FontSize * e.opts.LineSpacing
	bottom := float64(e.height) * (1 - e.opts.BottomMargin)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = bottom - float64(n-1-i)*lineHeight
	}
	return out
}

// drawScene paints the subtitle layer: one pass per chain entry, in the
// chain's configured order, then the karaoke sweep on top. Fade and
// transform entries modulate every pass instead of painting one of
// their own; duplicate entries each apply.
func (e *Engine) drawScene(ts timeline.FrameTimestamp, scene ports.SceneState) {
	fades, transforms := modifiers(scene.Effects)

	for _, d := range scene.Effects {
		switch d.Kind {
		case effects.KindGlow:
			e.drawGlowLayer(ts, scene, d.Glow, fades, transforms)
		case effects.KindShadow:
			p := d.Shadow
			e.wordPass(e.dc, ts, scene, fades, transforms, func(dc *gg.Context, box wordBox, alpha float64) {
				e.drawWordFlat(dc, offsetBox(box, float64(p.OffsetX), float64(p.OffsetY)),
					withAlpha(p.Color, alpha))
			})
		case effects.KindOutline:
			p := d.Outline
			e.wordPass(e.dc, ts, scene, fades, transforms, func(dc *gg.Context, box wordBox, alpha float64) {
				e.drawWordOutline(dc, box, p, alpha)
			})
		}
	}

	e.wordPass(e.dc, ts, scene, fades, transforms, e.drawWordSweep)
}

// wordPainter paints one word stamp of an effect pass.
type wordPainter func(dc *gg.Context, box wordBox, alpha float64)

// wordPass walks every visible line once, applies the shared fade and
// transform modifiers, and invokes paint per word. Each effect pass is
// one wordPass, so chain order decides what paints over what.
func (e *Engine) wordPass(dc *gg.Context, ts timeline.FrameTimestamp, scene ports.SceneState,
	fades []*effects.FadeParams, transforms []*effects.TransformParams, paint wordPainter) {
	bases := e.baselines(len(scene.Lines))
	for li, line := range scene.Lines {
		alpha := lineAlpha(ts.TimeSeconds, line, fades)
		if alpha <= 0 {
			continue
		}

		dc.Push()
		if scale := lineScale(ts.TimeSeconds, line, transforms); scale != 1 {
			cx := float64(e.width) / 2
			cy := bases[li] - e.opts.FontSize/2
			dc.Translate(cx, cy)
			dc.Scale(scale, scale)
			dc.Translate(-cx, -cy)
		}

		for _, box := range e.layoutLine(dc, line, bases[li]) {
			paint(dc, box, alpha)
		}
		dc.Pop()
	}
}

// modifiers splits the layer-wide modifiers out of the chain, in chain
// order.
func modifiers(c effects.Chain) ([]*effects.FadeParams, []*effects.TransformParams) {
	var fades []*effects.FadeParams
	var transforms []*effects.TransformParams
	for _, d := range c {
		switch d.Kind {
		case effects.KindFade:
			fades = append(fades, d.Fade)
		case effects.KindTransform:
			transforms = append(transforms, d.Transform)
		}
	}
	return fades, transforms
}

// lineAlpha composes every fade entry multiplicatively.
func lineAlpha(t float64, line ports.LineState, fades []*effects.FadeParams) float64 {
	alpha := 1.0
	for _, p := range fades {
		alpha *= fadeAlpha(t, line, p)
	}
	return alpha
}

// lineScale composes every transform entry multiplicatively.
func lineScale(t float64, line ports.LineState, transforms []*effects.TransformParams) float64 {
	scale := 1.0
	for _, p := range transforms {
		scale *= pulseScale(t, line, p)
	}
	return scale
}

// drawWordSweep paints the word twice: base color, then highlight color
// clipped to the left progress fraction of its box. Progress 0 and 1
// skip the redundant pass.
func (e *Engine) drawWordSweep(dc *gg.Context, box wordBox, alpha float64) {
	top := box.y - e.opts.FontSize*1.2
	height := e.opts.FontSize * 1.6

	if box.progress < 1 {
		dc.SetColor(withAlpha(e.opts.BaseColor, alpha))
		dc.DrawString(box.text, box.x, box.y)
	}
	if box.progress <= 0 {
		return
	}
	if box.progress >= 1 {
		dc.SetColor(withAlpha(e.opts.HighlightColor, alpha))
		dc.DrawString(box.text, box.x, box.y)
		return
	}

	dc.Push()
	dc.DrawRectangle(box.x, top, box.width*box.progress, height)
	dc.Clip()
	dc.SetColor(withAlpha(e.opts.HighlightColor, alpha))
	dc.DrawString(box.text, box.x, box.y)
	dc.ResetClip()
	dc.Pop()
}

func (e *Engine) drawWordFlat(dc *gg.Context, box wordBox, c color.RGBA) {
	dc.SetColor(c)
	dc.DrawString(box.text, box.x, box.y)
}

// drawWordOutline approximates a text stroke by stamping the word at
// eight offsets around its position.
func (e *Engine) drawWordOutline(dc *gg.Context, box wordBox, p *effects.OutlineParams, alpha float64) {
	w := float64(p.Width)
	c := withAlpha(p.Color, alpha)
	for _, d := range [][2]float64{
		{-w, 0}, {w, 0}, {0, -w}, {0, w},
		{-w, -w}, {-w, w}, {w, -w}, {w, w},
	} {
		e.drawWordFlat(dc, offsetBox(box, d[0], d[1]), c)
	}
}

func offsetBox(b wordBox, dx, dy float64) wordBox {
	b.x += dx
	b.y += dy
	return b
}

func withAlpha(c color.RGBA, alpha float64) color.RGBA {
	if alpha >= 1 {
		return c
	}
	c.A = uint8(float64(c.A) * alpha)
	return c
}

// fadeAlpha ramps opacity over the line's entry and exit windows.
func fadeAlpha(t float64, line ports.LineState, p *effects.FadeParams) float64 {
	alpha := 1.0
	if p.InSec > 0 {
		if a := (t - line.StartSec) / p.InSec; a < alpha {
			alpha = a
		}
	}
	if p.OutSec > 0 {
		if a := (line.EndSec - t) / p.OutSec; a < alpha {
			alpha = a
		}
	}
	if alpha < 0 {
		return 0
	}
	if alpha > 1 {
		return 1
	}
	return alpha
}

// pulseScale is a gentle sine pulse anchored at the line start so every
// line begins at scale 1.
func pulseScale(t float64, line ports.LineState, p *effects.TransformParams) float64 {
	if p.PeriodSec <= 0 {
		return 1
	}
	phase := 2 * math.Pi * (t - line.StartSec) / p.PeriodSec
	return 1 + p.ScaleAmplitude*math.Sin(phase)
}
