// Package filesink saves intermediate pipeline results to a debug
// directory: per-frame scene snapshots, rendered frames as PNG, the raw
// bytes streamed to the encoder, and the encoder's stderr log.
package filesink

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"

	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
)

// Sink implements ports.DebugSink on a base directory.
type Sink struct {
	baseDir string
	fs      ports.FileSystem
}

// New creates a sink rooted at baseDir.
func New(baseDir string, fs ports.FileSystem) *Sink {
	return &Sink{baseDir: baseDir, fs: fs}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveSceneJSON saves one frame's scene snapshot.
func (s *Sink) SaveSceneJSON(index int, data []byte) error {
	dir := filepath.Join(s.baseDir, "scenes")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	return s.fs.WriteFile(filepath.Join(dir, fmt.Sprintf("scene-%06d.json", index)), data)
}

// SaveRenderedFrame saves a composited frame as PNG.
func (s *Sink) SaveRenderedFrame(index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames", "rendered")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode rendered frame: %w", err)
	}
	return s.fs.WriteFile(filepath.Join(dir, fmt.Sprintf("frame-%06d.png", index)), buf.Bytes())
}

// SaveRawFrame saves the converted bytes exactly as streamed to the
// encoder.
func (s *Sink) SaveRawFrame(index int, data []byte) error {
	dir := filepath.Join(s.baseDir, "frames", "raw")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	return s.fs.WriteFile(filepath.Join(dir, fmt.Sprintf("frame-%06d.bin", index)), data)
}

// SaveEncoderLog saves the encoder's accumulated stderr output.
func (s *Sink) SaveEncoderLog(data []byte) error {
	if err := s.fs.MkdirAll(s.baseDir); err != nil {
		return err
	}
	return s.fs.WriteFile(filepath.Join(s.baseDir, "encoder.log"), data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
