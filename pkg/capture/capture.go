// Package capture drives the render engine frame by frame and hands the
// converted frames to a single consumer over a bounded queue.
//
// The producer (render loop) and the consumer (encoder feed) are
// decoupled by the queue; its bound is what keeps memory flat when the
// encoder falls behind. Each frame is delivered exactly once and in
// timestamp order, and every frame buffer travels producer -> consumer ->
// free-list, never two owners at once.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vietthanhnv/create-karaoke-video/pkg/executor"
	"github.com/vietthanhnv/create-karaoke-video/pkg/pipeline"
	"github.com/vietthanhnv/create-karaoke-video/pkg/pixconv"
	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
	"github.com/vietthanhnv/create-karaoke-video/pkg/timeline"
)

// Overflow policies for a full queue.
type OverflowPolicy int

const (
	// Backpressure blocks the producer until the consumer drains a slot.
	// This is the export-mode policy: no frame is ever lost.
	Backpressure OverflowPolicy = iota
	// DropNewest discards the just-rendered frame when the queue is full.
	// This is the preview-mode policy: staying live beats completeness.
	DropNewest
)

var (
	ErrInvalidOptions = errors.New("capture: invalid options")
	ErrCancelled      = errors.New("capture: session cancelled")
)

// Options configures one capture session.
type Options struct {
	Width  int
	Height int

	// PixelFormat is the target format frames are converted to before
	// delivery.
	PixelFormat pixconv.PixelFormat

	// QueueSize bounds the number of undelivered frames. Zero selects
	// DefaultQueueSize.
	QueueSize int

	Overflow OverflowPolicy
}

// DefaultQueueSize bounds in-flight frames to roughly one second of video
// at common frame rates without holding excessive raw-frame memory.
const DefaultQueueSize = 30

func (o *Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidOptions, o.Width, o.Height)
	}
	if !o.PixelFormat.Valid() {
		return fmt.Errorf("%w: pixel format %q", ErrInvalidOptions, o.PixelFormat)
	}
	if o.QueueSize < 0 {
		return fmt.Errorf("%w: queue size %d", ErrInvalidOptions, o.QueueSize)
	}
	if o.QueueSize == 0 {
		o.QueueSize = DefaultQueueSize
	}
	return nil
}

// Stats is a point-in-time snapshot of session counters.
type Stats struct {
	Rendered  int64
	Delivered int64
	Dropped   int64
	// PeakQueueDepth is the deepest the queue got.
	PeakQueueDepth int64
	// AvgRenderTime is the mean engine time per rendered frame.
	AvgRenderTime time.Duration
	// EffectiveFPS is delivered frames over session wall time.
	EffectiveFPS float64
}

// System wires a scene source and a render engine into capture sessions.
// The executor is the thread the engine is bound to; a nil executor runs
// engine calls inline, which only thread-agnostic engines support.
type System struct {
	engine ports.RenderEngine
	source ports.SceneSource
	exec   *executor.RenderExecutor
	logger ports.Logger
}

// NewSystem creates a capture system.
func NewSystem(engine ports.RenderEngine, source ports.SceneSource, exec *executor.RenderExecutor, logger ports.Logger) *System {
	return &System{
		engine: engine,
		source: source,
		exec:   exec,
		logger: logger.WithComponent("capture"),
	}
}

func (s *System) onRenderThread(ctx context.Context, fn func() error) error {
	if s.exec == nil {
		return fn()
	}
	return s.exec.Do(ctx, fn)
}

// Session is one running capture. The consumer reads Frames until the
// channel closes, releases each frame's buffer when done with it, then
// checks Err for the reason the producer stopped.
type Session struct {
	frames chan pipeline.CapturedFrame
	free   chan []byte

	frameSize int
	overflow  OverflowPolicy
	cancel    context.CancelFunc

	start time.Time

	rendered    atomic.Int64
	delivered   atomic.Int64
	dropped     atomic.Int64
	peakDepth   atomic.Int64
	renderNanos atomic.Int64

	errOnce sync.Once
	err     error
}

// Start initializes the engine and begins producing frames for the given
// timestamps. The engine is closed when the producer finishes.
func (s *System) Start(ctx context.Context, timestamps []timeline.FrameTimestamp, opts Options) (*Session, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	frameSize := pixconv.BufferSize(opts.Width, opts.Height, opts.PixelFormat)

	if err := s.onRenderThread(ctx, func() error {
		return s.engine.Initialize(opts.Width, opts.Height)
	}); err != nil {
		return nil, fmt.Errorf("capture: engine initialize: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	sess := &Session{
		frames:    make(chan pipeline.CapturedFrame, opts.QueueSize),
		free:      make(chan []byte, opts.QueueSize+2),
		frameSize: frameSize,
		overflow:  opts.Overflow,
		cancel:    cancel,
		start:     time.Now(),
	}

	s.logger.Debug("capture session started: %d frames, %s, queue %d",
		len(timestamps), opts.PixelFormat, opts.QueueSize)

	go s.produce(ctx, sess, timestamps, opts)
	return sess, nil
}

func (s *System) produce(ctx context.Context, sess *Session, timestamps []timeline.FrameTimestamp, opts Options) {
	defer close(sess.frames)
	defer func() {
		_ = s.onRenderThread(context.Background(), func() error {
			s.engine.Close()
			return nil
		})
	}()

	for _, ts := range timestamps {
		select {
		case <-ctx.Done():
			sess.fail(fmt.Errorf("%w: %v", ErrCancelled, context.Cause(ctx)))
			return
		default:
		}

		frame, err := s.renderOne(ctx, sess, ts, opts)
		if err != nil {
			sess.fail(fmt.Errorf("capture: frame %d: %w", ts.Index, err))
			return
		}
		sess.rendered.Add(1)
		sess.renderNanos.Add(int64(frame.RenderTime))

		if !s.deliver(ctx, sess, frame) {
			sess.fail(fmt.Errorf("%w: %v", ErrCancelled, context.Cause(ctx)))
			return
		}
	}
}

func (s *System) renderOne(ctx context.Context, sess *Session, ts timeline.FrameTimestamp, opts Options) (pipeline.CapturedFrame, error) {
	scene, err := s.source.SceneAt(ts.TimeSeconds)
	if err != nil {
		return pipeline.CapturedFrame{}, fmt.Errorf("scene: %w", err)
	}

	start := time.Now()
	var pix []byte
	if err := s.onRenderThread(ctx, func() error {
		img, renderErr := s.engine.Render(ts, scene)
		if renderErr != nil {
			return renderErr
		}
		pix = img.Pix
		return nil
	}); err != nil {
		return pipeline.CapturedFrame{}, err
	}

	buf := sess.acquire()
	data, err := pixconv.Convert(buf, pix, opts.Width, opts.Height, opts.PixelFormat)
	if err != nil {
		return pipeline.CapturedFrame{}, fmt.Errorf("convert: %w", err)
	}

	return pipeline.CapturedFrame{
		Index:       ts.Index,
		TimeSeconds: ts.TimeSeconds,
		Width:       opts.Width,
		Height:      opts.Height,
		PixelFormat: opts.PixelFormat,
		Data:        data,
		RenderTime:  time.Since(start),
	}, nil
}

// deliver hands the frame to the consumer according to the overflow
// policy. Returns false when the session context was cancelled while
// waiting for a queue slot.
func (s *System) deliver(ctx context.Context, sess *Session, frame pipeline.CapturedFrame) bool {
	switch sess.overflow {
	case DropNewest:
		select {
		case sess.frames <- frame:
			sess.delivered.Add(1)
			sess.notePeak()
		default:
			sess.dropped.Add(1)
			sess.Release(frame.Data)
		}
		return true
	default: // Backpressure
		select {
		case sess.frames <- frame:
			sess.delivered.Add(1)
			sess.notePeak()
			return true
		case <-ctx.Done():
			sess.Release(frame.Data)
			return false
		}
	}
}
