package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
)

// EncoderProcessor is a mock implementation of ports.EncoderProcessor.
type EncoderProcessor struct {
	CapabilitiesFunc func(ctx context.Context) (ports.EncoderCapabilities, error)
	StartFunc        func(ctx context.Context, settings ports.EncoderSettings, totalFrames int) (ports.EncoderJob, error)

	StartCalled  bool
	LastSettings ports.EncoderSettings

	// Job is returned by Start when StartFunc is nil. A nil Job gets a
	// fresh recording EncoderJob per Start call.
	Job *EncoderJob
}

func (m *EncoderProcessor) Capabilities(ctx context.Context) (ports.EncoderCapabilities, error) {
	if m.CapabilitiesFunc != nil {
		return m.CapabilitiesFunc(ctx)
	}
	return ports.EncoderCapabilities{
		Version:     "mock",
		VideoCodecs: []string{"libx264", "libx265", "libvpx-vp9"},
		AudioCodecs: []string{"aac", "libopus"},
		Formats:     []string{"mp4", "mkv", "webm"},
	}, nil
}

func (m *EncoderProcessor) Start(ctx context.Context, settings ports.EncoderSettings, totalFrames int) (ports.EncoderJob, error) {
	m.StartCalled = true
	m.LastSettings = settings
	if m.StartFunc != nil {
		return m.StartFunc(ctx, settings, totalFrames)
	}
	if m.Job == nil {
		m.Job = NewEncoderJob()
	}
	return m.Job, nil
}

var _ ports.EncoderProcessor = (*EncoderProcessor)(nil)

// EncoderJob is a recording mock of ports.EncoderJob. It accepts frames
// until FailAfter frames have been written (0 means never fail), and
// resolves to Completed on Finish.
type EncoderJob struct {
	// FailAfter makes WriteFrame return FailErr once that many frames
	// were accepted.
	FailAfter int
	FailErr   error

	mu     sync.Mutex
	state  ports.JobState
	frames [][]byte
	err    error
	done   chan struct{}
}

// NewEncoderJob returns a job in the running state.
func NewEncoderJob() *EncoderJob {
	return &EncoderJob{
		state: ports.JobRunning,
		done:  make(chan struct{}),
	}
}

func (m *EncoderJob) WriteFrame(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != ports.JobRunning {
		return errors.New("mock encoder: job not running")
	}
	if m.FailAfter > 0 && len(m.frames) >= m.FailAfter {
		if m.FailErr == nil {
			m.FailErr = errors.New("mock encoder: write failed")
		}
		m.err = m.FailErr
		m.transition(ports.JobFailed)
		return m.FailErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.frames = append(m.frames, cp)
	return nil
}

func (m *EncoderJob) Finish(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Terminal() {
		return m.err
	}
	m.transition(ports.JobCompleted)
	return nil
}

func (m *EncoderJob) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.Terminal() {
		m.transition(ports.JobCancelled)
	}
	return nil
}

// transition must be called with mu held.
func (m *EncoderJob) transition(s ports.JobState) {
	m.state = s
	if s.Terminal() {
		close(m.done)
	}
}

func (m *EncoderJob) State() ports.JobState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *EncoderJob) Progress() ports.EncoderProgress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ports.EncoderProgress{Frame: len(m.frames)}
}

func (m *EncoderJob) FramesWritten() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

func (m *EncoderJob) Diagnostics() []string { return nil }

func (m *EncoderJob) Done() <-chan struct{} { return m.done }

func (m *EncoderJob) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Frames returns copies of all accepted frame payloads in write order.
func (m *EncoderJob) Frames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.frames))
	copy(out, m.frames)
	return out
}

var _ ports.EncoderJob = (*EncoderJob)(nil)
