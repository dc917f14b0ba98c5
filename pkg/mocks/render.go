// Package mocks provides mock implementations for testing.
package mocks

import (
	"image"
	"image/color"
	"sync"

	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
	"github.com/vietthanhnv/create-karaoke-video/pkg/timeline"
)

// RenderEngine is a mock implementation of ports.RenderEngine. Without a
// RenderFunc it produces a deterministic synthetic frame whose top-left
// pixel encodes the frame index, so consumers can verify ordering from
// pixel data alone.
type RenderEngine struct {
	InitializeFunc func(width, height int) error
	RenderFunc     func(ts timeline.FrameTimestamp, scene ports.SceneState) (*image.RGBA, error)
	CloseFunc      func()

	mu          sync.Mutex
	width       int
	height      int
	Initialized bool
	Closed      bool
	RenderCalls []timeline.FrameTimestamp
}

func (m *RenderEngine) Initialize(width, height int) error {
	m.mu.Lock()
	m.Initialized = true
	m.width, m.height = width, height
	m.mu.Unlock()
	if m.InitializeFunc != nil {
		return m.InitializeFunc(width, height)
	}
	return nil
}

func (m *RenderEngine) Render(ts timeline.FrameTimestamp, scene ports.SceneState) (*image.RGBA, error) {
	m.mu.Lock()
	m.RenderCalls = append(m.RenderCalls, ts)
	w, h := m.width, m.height
	m.mu.Unlock()
	if m.RenderFunc != nil {
		return m.RenderFunc(ts, scene)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.SetRGBA(0, 0, color.RGBA{
		R: uint8(ts.Index),
		G: uint8(ts.Index >> 8),
		B: uint8(len(scene.Lines)),
		A: 255,
	})
	return img, nil
}

func (m *RenderEngine) Close() {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
	if m.CloseFunc != nil {
		m.CloseFunc()
	}
}

// RenderCount returns the number of Render calls so far.
func (m *RenderEngine) RenderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RenderCalls)
}

var _ ports.RenderEngine = (*RenderEngine)(nil)

// SceneSource is a mock implementation of ports.SceneSource.
type SceneSource struct {
	SceneAtFunc func(timeSec float64) (ports.SceneState, error)
}

func (m *SceneSource) SceneAt(timeSec float64) (ports.SceneState, error) {
	if m.SceneAtFunc != nil {
		return m.SceneAtFunc(timeSec)
	}
	return ports.SceneState{}, nil
}

var _ ports.SceneSource = (*SceneSource)(nil)
