package effects

import (
	"errors"
	"testing"
)

func TestDescriptor_Validate(t *testing.T) {
	valid := []Descriptor{
		{Kind: KindGlow, Glow: DefaultGlow()},
		{Kind: KindOutline, Outline: DefaultOutline()},
		{Kind: KindShadow, Shadow: DefaultShadow()},
		{Kind: KindFade, Fade: &FadeParams{InSec: 0.2, OutSec: 0.2}},
		{Kind: KindTransform, Transform: &TransformParams{ScaleAmplitude: 0.05, PeriodSec: 1}},
	}
	for _, d := range valid {
		if err := d.Validate(); err != nil {
			t.Errorf("%s: unexpected error %v", d.Kind, err)
		}
	}
}

func TestDescriptor_Validate_MissingParams(t *testing.T) {
	d := Descriptor{Kind: KindGlow}
	if err := d.Validate(); !errors.Is(err, ErrMissingParams) {
		t.Errorf("got %v, want ErrMissingParams", err)
	}
}

func TestDescriptor_Validate_UnknownKind(t *testing.T) {
	d := Descriptor{Kind: "sparkle"}
	if err := d.Validate(); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("got %v, want ErrUnknownKind", err)
	}
}

func TestDescriptor_Validate_OutOfRange(t *testing.T) {
	bad := []Descriptor{
		{Kind: KindGlow, Glow: &GlowParams{Radius: 0}},
		{Kind: KindGlow, Glow: &GlowParams{Radius: 4, Intensity: 1.5}},
		{Kind: KindOutline, Outline: &OutlineParams{Width: 99}},
		{Kind: KindShadow, Shadow: &ShadowParams{OffsetX: 200}},
		{Kind: KindFade, Fade: &FadeParams{InSec: -1}},
		{Kind: KindTransform, Transform: &TransformParams{ScaleAmplitude: 0.1, PeriodSec: 0}},
	}
	for i, d := range bad {
		if err := d.Validate(); err == nil {
			t.Errorf("case %d (%s): expected validation error", i, d.Kind)
		}
	}
}

func TestChain_Validate(t *testing.T) {
	chain := Chain{
		{Kind: KindShadow, Shadow: DefaultShadow()},
		{Kind: KindOutline, Outline: DefaultOutline()},
		{Kind: KindGlow, Glow: DefaultGlow()},
	}
	if err := chain.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chain = append(chain, Descriptor{Kind: KindFade})
	if err := chain.Validate(); err == nil {
		t.Fatal("expected error for descriptor missing params")
	}
}
