package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate pipeline results.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveSceneJSON saves the scene snapshot for a frame as JSON.
	SaveSceneJSON(index int, data []byte) error

	// SaveRenderedFrame saves a composited frame image.
	SaveRenderedFrame(index int, img image.Image) error

	// SaveRawFrame saves the converted bytes streamed to the encoder.
	SaveRawFrame(index int, data []byte) error

	// SaveEncoderLog saves the encoder's accumulated diagnostic output.
	SaveEncoderLog(data []byte) error
}
