// Package effects defines the composable visual effect descriptors applied
// to the subtitle layer. Each descriptor is a (kind, validated parameters)
// pair; a Chain applies them in configured order.
package effects

import (
	"errors"
	"fmt"
	"image/color"
)

// Errors returned by descriptor validation.
var (
	ErrUnknownKind   = errors.New("effects: unknown effect kind")
	ErrMissingParams = errors.New("effects: missing parameters for effect kind")
)

// Kind identifies an effect pass.
type Kind string

const (
	KindGlow      Kind = "glow"
	KindOutline   Kind = "outline"
	KindShadow    Kind = "shadow"
	KindFade      Kind = "fade"
	KindTransform Kind = "transform"
)

// GlowParams configures a soft halo behind the text.
type GlowParams struct {
	Radius    int     // blur radius in pixels
	Intensity float64 // 0..1 halo opacity
	Color     color.RGBA
}

// Validate checks parameter ranges.
func (p GlowParams) Validate() error {
	if p.Radius < 1 || p.Radius > 64 {
		return fmt.Errorf("effects: glow radius %d out of range [1, 64]", p.Radius)
	}
	if p.Intensity < 0 || p.Intensity > 1 {
		return fmt.Errorf("effects: glow intensity %v out of range [0, 1]", p.Intensity)
	}
	return nil
}

// OutlineParams configures a solid border around glyphs.
type OutlineParams struct {
	Width int // outline thickness in pixels
	Color color.RGBA
}

// Validate checks parameter ranges.
func (p OutlineParams) Validate() error {
	if p.Width < 1 || p.Width > 16 {
		return fmt.Errorf("effects: outline width %d out of range [1, 16]", p.Width)
	}
	return nil
}

// ShadowParams configures a drop shadow.
type ShadowParams struct {
	OffsetX int
	OffsetY int
	Color   color.RGBA
}

// Validate checks parameter ranges.
func (p ShadowParams) Validate() error {
	if p.OffsetX < -64 || p.OffsetX > 64 || p.OffsetY < -64 || p.OffsetY > 64 {
		return fmt.Errorf("effects: shadow offset (%d, %d) out of range [-64, 64]", p.OffsetX, p.OffsetY)
	}
	return nil
}

// FadeParams fades the subtitle layer in and out at the cue boundaries.
type FadeParams struct {
	InSec  float64
	OutSec float64
}

// Validate checks parameter ranges.
func (p FadeParams) Validate() error {
	if p.InSec < 0 || p.OutSec < 0 {
		return fmt.Errorf("effects: fade durations must be non-negative, got in=%v out=%v", p.InSec, p.OutSec)
	}
	return nil
}

// TransformParams applies a periodic scale pulse to the subtitle layer.
type TransformParams struct {
	ScaleAmplitude float64 // peak deviation from 1.0, e.g. 0.05
	PeriodSec      float64
}

// Validate checks parameter ranges.
func (p TransformParams) Validate() error {
	if p.ScaleAmplitude < 0 || p.ScaleAmplitude > 1 {
		return fmt.Errorf("effects: transform amplitude %v out of range [0, 1]", p.ScaleAmplitude)
	}
	if p.PeriodSec <= 0 {
		return fmt.Errorf("effects: transform period %v must be positive", p.PeriodSec)
	}
	return nil
}

// Descriptor is a tagged variant: Kind selects which parameter struct is
// set. Exactly the field matching Kind must be non-nil.
type Descriptor struct {
	Kind      Kind
	Glow      *GlowParams
	Outline   *OutlineParams
	Shadow    *ShadowParams
	Fade      *FadeParams
	Transform *TransformParams
}

// Validate checks that the descriptor carries parameters for its kind and
// that they are in range.
func (d Descriptor) Validate() error {
	switch d.Kind {
	case KindGlow:
		if d.Glow == nil {
			return fmt.Errorf("%w: %s", ErrMissingParams, d.Kind)
		}
		return d.Glow.Validate()
	case KindOutline:
		if d.Outline == nil {
			return fmt.Errorf("%w: %s", ErrMissingParams, d.Kind)
		}
		return d.Outline.Validate()
	case KindShadow:
		if d.Shadow == nil {
			return fmt.Errorf("%w: %s", ErrMissingParams, d.Kind)
		}
		return d.Shadow.Validate()
	case KindFade:
		if d.Fade == nil {
			return fmt.Errorf("%w: %s", ErrMissingParams, d.Kind)
		}
		return d.Fade.Validate()
	case KindTransform:
		if d.Transform == nil {
			return fmt.Errorf("%w: %s", ErrMissingParams, d.Kind)
		}
		return d.Transform.Validate()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, d.Kind)
	}
}

// Chain is an ordered list of effect passes, applied first to last.
type Chain []Descriptor

// Validate checks every descriptor in the chain.
func (c Chain) Validate() error {
	for i, d := range c {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("effect %d: %w", i, err)
		}
	}
	return nil
}

// DefaultGlow returns the preset used when a glow effect is enabled with no
// explicit parameters.
func DefaultGlow() *GlowParams {
	return &GlowParams{Radius: 8, Intensity: 0.6, Color: color.RGBA{R: 255, G: 220, B: 80, A: 255}}
}

// DefaultOutline returns the preset outline.
func DefaultOutline() *OutlineParams {
	return &OutlineParams{Width: 2, Color: color.RGBA{A: 255}}
}

// DefaultShadow returns the preset drop shadow.
func DefaultShadow() *ShadowParams {
	return &ShadowParams{OffsetX: 3, OffsetY: 3, Color: color.RGBA{A: 160}}
}
