package ports

import (
	"image"
	"image/color"

	"github.com/vietthanhnv/create-karaoke-video/pkg/effects"
	"github.com/vietthanhnv/create-karaoke-video/pkg/timeline"
)

// Background describes what is drawn behind the subtitle layer. A nil
// Image selects the solid-color degraded mode, which is an explicit,
// documented fallback rather than a silent failure.
type Background struct {
	Image image.Image
	Color color.RGBA
}

// WordState is one word of an active cue with its highlight progress at
// the frame's timestamp, 0.0 (not yet sung) through 1.0 (already sung).
type WordState struct {
	Text     string
	Progress float64
}

// LineState is one active cue laid out as a line of words. The cue window
// is carried along for time-dependent effects such as fades.
type LineState struct {
	Words    []WordState
	StartSec float64
	EndSec   float64
}

// SceneState is the per-frame snapshot handed to the render engine.
// It is created for one timestamp and never persisted.
type SceneState struct {
	Background Background
	Lines      []LineState
	Effects    effects.Chain
}

// SceneSource supplies the scene snapshot for a timestamp. Implementations
// must be cheap and idempotent for repeated calls with the same timestamp,
// since preview scrubbing re-requests already-rendered times.
type SceneSource interface {
	SceneAt(timeSec float64) (SceneState, error)
}

// RenderEngine composites one frame per call: background, karaoke text
// with per-word highlight, then the effect chain, and returns the result
// as an RGBA image.
//
// Engines have render-context thread affinity: all calls including
// Initialize and Close must be issued from the single goroutine that owns
// the context (see the executor package).
type RenderEngine interface {
	// Initialize binds an off-screen render target of the given size and
	// validates the effect pass chain. Pass validation failures are fatal
	// here, never per-frame.
	Initialize(width, height int) error

	// Render composites the scene at the given timestamp and reads back
	// the target as a width*height RGBA image.
	Render(ts timeline.FrameTimestamp, scene SceneState) (*image.RGBA, error)

	// Close releases the render target.
	Close()
}
