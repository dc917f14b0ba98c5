// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"image"

	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
)

// Sink is a no-op implementation of ports.DebugSink.
// It discards all debug output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SaveSceneJSON does nothing.
func (s *Sink) SaveSceneJSON(index int, data []byte) error {
	return nil
}

// SaveRenderedFrame does nothing.
func (s *Sink) SaveRenderedFrame(index int, img image.Image) error {
	return nil
}

// SaveRawFrame does nothing.
func (s *Sink) SaveRawFrame(index int, data []byte) error {
	return nil
}

// SaveEncoderLog does nothing.
func (s *Sink) SaveEncoderLog(data []byte) error {
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
