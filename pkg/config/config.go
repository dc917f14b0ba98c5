// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"image/color"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vietthanhnv/create-karaoke-video/pkg/effects"
	"github.com/vietthanhnv/create-karaoke-video/pkg/pixconv"
	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
	"github.com/vietthanhnv/create-karaoke-video/pkg/subtitle"
)

// Config represents the full configuration for an export.
type Config struct {
	// Input/Output
	OutputPath string `yaml:"output"`

	// Video
	Width          int     `yaml:"width"`
	Height         int     `yaml:"height"`
	FPS            float64 `yaml:"fps"`
	DurationSec    float64 `yaml:"duration_sec"` // 0 derives the duration from the cues
	AudioOffsetSec float64 `yaml:"audio_offset_sec"`
	QueueSize      int     `yaml:"queue_size"`

	Encoder    EncoderConfig    `yaml:"encoder"`
	Audio      AudioConfig      `yaml:"audio"`
	Background BackgroundConfig `yaml:"background"`
	Font       FontConfig       `yaml:"font"`
	Cues       []CueConfig      `yaml:"cues"`
	Effects    []EffectConfig   `yaml:"effects"`

	// Tooling
	FFmpegPath string `yaml:"ffmpeg_path"`
	LogLevel   string `yaml:"log_level"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// EncoderConfig represents video encoding settings.
type EncoderConfig struct {
	Container      string `yaml:"container"`
	Codec          string `yaml:"codec"`
	CRF            *int   `yaml:"crf"`
	BitrateKbps    int    `yaml:"bitrate_kbps"`
	MaxBitrateKbps int    `yaml:"max_bitrate_kbps"`
	Preset         string `yaml:"preset"`
	PixelFormat    string `yaml:"pixel_format"`
}

// AudioConfig represents the optional audio track muxed into the output.
type AudioConfig struct {
	Path        string `yaml:"path"`
	Codec       string `yaml:"codec"`
	BitrateKbps int    `yaml:"bitrate_kbps"`
	SampleRate  int    `yaml:"sample_rate"`
}

// BackgroundConfig selects the backdrop: an image file, or a solid color
// when no image is given.
type BackgroundConfig struct {
	Color     string `yaml:"color"`
	ImagePath string `yaml:"image"`
}

// FontConfig represents subtitle typography.
type FontConfig struct {
	Path           string  `yaml:"path"`
	Size           float64 `yaml:"size"`
	Color          string  `yaml:"color"`
	HighlightColor string  `yaml:"highlight_color"`
	LineSpacing    float64 `yaml:"line_spacing"`
	BottomMargin   float64 `yaml:"bottom_margin"`
}

// CueConfig is one subtitle line with its time window. Word timings are
// optional; without them the words are distributed evenly over the window.
type CueConfig struct {
	Text     string       `yaml:"text"`
	StartSec float64      `yaml:"start"`
	EndSec   float64      `yaml:"end"`
	Words    []WordConfig `yaml:"words"`
}

// WordConfig is an explicit per-word timing inside a cue.
type WordConfig struct {
	Text     string  `yaml:"text"`
	StartSec float64 `yaml:"start"`
	EndSec   float64 `yaml:"end"`
}

// EffectConfig is one pass of the effect chain. Only the fields relevant
// to the kind are read; zero values fall back to the pass presets.
type EffectConfig struct {
	Kind string `yaml:"kind"`

	// glow
	Radius    int     `yaml:"radius"`
	Intensity float64 `yaml:"intensity"`

	// outline
	Width int `yaml:"width"`

	// shadow
	OffsetX int `yaml:"offset_x"`
	OffsetY int `yaml:"offset_y"`

	// glow, outline, shadow
	Color string `yaml:"color"`

	// fade
	InSec  float64 `yaml:"in_sec"`
	OutSec float64 `yaml:"out_sec"`

	// transform
	ScaleAmplitude float64 `yaml:"scale_amplitude"`
	PeriodSec      float64 `yaml:"period_sec"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		OutputPath: "karaoke.mp4",

		Width:  1280,
		Height: 720,
		FPS:    30.0,

		Encoder: EncoderConfig{
			Container:   "mp4",
			Codec:       "libx264",
			Preset:      "medium",
			PixelFormat: string(pixconv.RGBA),
		},

		Background: BackgroundConfig{
			Color: "#1a1a2e",
		},

		Font: FontConfig{
			Size:           48,
			Color:          "#ffffff",
			HighlightColor: "#ffd700",
			LineSpacing:    1.4,
			BottomMargin:   0.12,
		},

		LogLevel: "info",
		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file on top of the
// defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the fields the pipeline cannot default away.
func (c Config) Validate() error {
	if c.OutputPath == "" {
		return fmt.Errorf("config: output path is empty")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("config: dimensions %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("config: fps %v", c.FPS)
	}
	if len(c.Cues) == 0 {
		return fmt.Errorf("config: no cues")
	}
	for i, cue := range c.Cues {
		if cue.EndSec <= cue.StartSec {
			return fmt.Errorf("config: cue %d window [%v, %v)", i, cue.StartSec, cue.EndSec)
		}
		if cue.Text == "" && len(cue.Words) == 0 {
			return fmt.Errorf("config: cue %d has no text", i)
		}
	}
	if _, err := c.EffectChain(); err != nil {
		return err
	}
	return nil
}

// EncoderSettings converts the configuration to the encoder's settings
// struct.
func (c Config) EncoderSettings() ports.EncoderSettings {
	pf := pixconv.PixelFormat(c.Encoder.PixelFormat)
	if pf == "" {
		pf = pixconv.RGBA
	}
	return ports.EncoderSettings{
		Container:        c.Encoder.Container,
		VideoCodec:       c.Encoder.Codec,
		CRF:              c.Encoder.CRF,
		BitrateKbps:      c.Encoder.BitrateKbps,
		MaxBitrateKbps:   c.Encoder.MaxBitrateKbps,
		Preset:           c.Encoder.Preset,
		Width:            c.Width,
		Height:           c.Height,
		FPS:              c.FPS,
		PixelFormat:      pf,
		AudioPath:        c.Audio.Path,
		AudioCodec:       c.Audio.Codec,
		AudioBitrateKbps: c.Audio.BitrateKbps,
		AudioSampleRate:  c.Audio.SampleRate,
		OutputPath:       c.OutputPath,
	}
}

// SubtitleCues builds the cue list, distributing word timings over the
// cue window where the configuration carries line timing only.
func (c Config) SubtitleCues() []subtitle.Cue {
	cues := make([]subtitle.Cue, 0, len(c.Cues))
	for _, cc := range c.Cues {
		cue := subtitle.Cue{StartSec: cc.StartSec, EndSec: cc.EndSec}
		if len(cc.Words) > 0 {
			cue.Words = make([]subtitle.WordTiming, len(cc.Words))
			for i, w := range cc.Words {
				cue.Words[i] = subtitle.WordTiming{Text: w.Text, StartSec: w.StartSec, EndSec: w.EndSec}
			}
		} else {
			cue.Words = subtitle.DistributeWords(cc.Text, cc.StartSec, cc.EndSec)
		}
		cues = append(cues, cue)
	}
	return cues
}

// Duration returns the configured duration, or the end of the last cue
// when none is set.
func (c Config) Duration() float64 {
	if c.DurationSec > 0 {
		return c.DurationSec
	}
	var max float64
	for _, cue := range c.Cues {
		if cue.EndSec > max {
			max = cue.EndSec
		}
	}
	return max
}

// EffectChain builds and validates the configured effect passes.
func (c Config) EffectChain() (effects.Chain, error) {
	chain := make(effects.Chain, 0, len(c.Effects))
	for i, e := range c.Effects {
		d, err := e.descriptor()
		if err != nil {
			return nil, fmt.Errorf("config: effect %d: %w", i, err)
		}
		chain = append(chain, d)
	}
	if err := chain.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return chain, nil
}

func (e EffectConfig) descriptor() (effects.Descriptor, error) {
	switch effects.Kind(e.Kind) {
	case effects.KindGlow:
		p := effects.DefaultGlow()
		if e.Radius > 0 {
			p.Radius = e.Radius
		}
		if e.Intensity > 0 {
			p.Intensity = e.Intensity
		}
		if e.Color != "" {
			p.Color = ParseColor(e.Color)
		}
		return effects.Descriptor{Kind: effects.KindGlow, Glow: p}, nil
	case effects.KindOutline:
		p := effects.DefaultOutline()
		if e.Width > 0 {
			p.Width = e.Width
		}
		if e.Color != "" {
			p.Color = ParseColor(e.Color)
		}
		return effects.Descriptor{Kind: effects.KindOutline, Outline: p}, nil
	case effects.KindShadow:
		p := effects.DefaultShadow()
		if e.OffsetX != 0 || e.OffsetY != 0 {
			p.OffsetX, p.OffsetY = e.OffsetX, e.OffsetY
		}
		if e.Color != "" {
			p.Color = ParseColor(e.Color)
		}
		return effects.Descriptor{Kind: effects.KindShadow, Shadow: p}, nil
	case effects.KindFade:
		return effects.Descriptor{
			Kind: effects.KindFade,
			Fade: &effects.FadeParams{InSec: e.InSec, OutSec: e.OutSec},
		}, nil
	case effects.KindTransform:
		period := e.PeriodSec
		if period == 0 {
			period = 2.0
		}
		return effects.Descriptor{
			Kind:      effects.KindTransform,
			Transform: &effects.TransformParams{ScaleAmplitude: e.ScaleAmplitude, PeriodSec: period},
		}, nil
	default:
		return effects.Descriptor{}, fmt.Errorf("%w: %q", effects.ErrUnknownKind, e.Kind)
	}
}

// BackgroundColor parses the configured backdrop color.
func (c Config) BackgroundColor() color.RGBA {
	return ParseColor(c.Background.Color)
}

// ParseColor parses a #RRGGBB or #RRGGBBAA hex string. Malformed input
// yields opaque black.
func ParseColor(hex string) color.RGBA {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{A: 255}
	}

	byteAt := func(i int) uint8 {
		return hexValue(hex[i])<<4 | hexValue(hex[i+1])
	}
	out := color.RGBA{R: byteAt(0), G: byteAt(2), B: byteAt(4), A: 255}
	if len(hex) == 8 {
		out.A = byteAt(6)
	}
	return out
}

func hexValue(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
