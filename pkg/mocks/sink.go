package mocks

import (
	"image"
	"sync"

	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
)

// DebugSink is a recording mock of ports.DebugSink.
type DebugSink struct {
	Disabled bool

	mu         sync.Mutex
	SceneJSON  map[int][]byte
	Rendered   map[int]image.Image
	Raw        map[int][]byte
	EncoderLog []byte
}

func NewDebugSink() *DebugSink {
	return &DebugSink{
		SceneJSON: make(map[int][]byte),
		Rendered:  make(map[int]image.Image),
		Raw:       make(map[int][]byte),
	}
}

func (m *DebugSink) Enabled() bool { return !m.Disabled }

func (m *DebugSink) SaveSceneJSON(index int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SceneJSON[index] = data
	return nil
}

func (m *DebugSink) SaveRenderedFrame(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rendered[index] = img
	return nil
}

func (m *DebugSink) SaveRawFrame(index int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.Raw[index] = cp
	return nil
}

func (m *DebugSink) SaveEncoderLog(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EncoderLog = append([]byte(nil), data...)
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)
