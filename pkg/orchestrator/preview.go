package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/vietthanhnv/create-karaoke-video/pkg/pipeline"
	"github.com/vietthanhnv/create-karaoke-video/pkg/timeline"
)

// ErrPreviewClosed is returned by preview controls after Close.
var ErrPreviewClosed = errors.New("orchestrator: preview closed")

// PreviewOptions configures an interactive preview session.
type PreviewOptions struct {
	Width  int
	Height int
	FPS    float64

	// DurationSec bounds playback; reaching it pauses the session.
	DurationSec float64

	// OnFrame receives each rendered frame. The image is a copy owned by
	// the receiver.
	OnFrame func(img *image.RGBA, ts timeline.FrameTimestamp)
}

// Preview plays the timeline against the wall clock instead of encoding
// it. Rendering happens on the orchestrator's render thread; when a
// frame takes longer than its slot the clock simply moves on, dropping
// the stale frames instead of accumulating lag.
type Preview struct {
	o    *Orchestrator
	opts PreviewOptions

	mu      sync.Mutex
	playing bool
	pos     float64 // current playback position in seconds
	closed  bool

	wake   chan struct{}
	done   chan struct{}
	cancel context.CancelFunc
}

// NewPreview initializes the engine for the preview resolution and
// starts the playback loop paused at position zero.
func (o *Orchestrator) NewPreview(ctx context.Context, opts PreviewOptions) (*Preview, error) {
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("orchestrator: preview fps %v", opts.FPS)
	}
	if err := o.exec.Do(ctx, func() error {
		return o.engine.Initialize(opts.Width, opts.Height)
	}); err != nil {
		return nil, fmt.Errorf("orchestrator: preview initialize: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Preview{
		o:      o,
		opts:   opts,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go p.run(ctx)
	return p, nil
}

func (p *Preview) run(ctx context.Context) {
	defer close(p.done)
	defer func() {
		_ = p.o.exec.Do(context.Background(), func() error {
			p.o.engine.Close()
			return nil
		})
	}()

	interval := time.Duration(float64(time.Second) / p.opts.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastTick time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
			// Seek or play state change: render the current position
			// immediately so paused scrubbing gives instant feedback.
			p.renderCurrent(ctx)
			lastTick = time.Now()
		case now := <-ticker.C:
			p.mu.Lock()
			playing := p.playing
			p.mu.Unlock()
			if !playing {
				continue
			}
			if lastTick.IsZero() {
				lastTick = now
			}
			p.advance(now.Sub(lastTick).Seconds())
			lastTick = now
			p.renderCurrent(ctx)
		}
	}
}

// advance moves the playhead by the elapsed wall time and pauses at the
// end of the timeline.
func (p *Preview) advance(elapsed float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pos += elapsed
	if p.opts.DurationSec > 0 && p.pos >= p.opts.DurationSec {
		p.pos = p.opts.DurationSec
		p.playing = false
	}
}

func (p *Preview) renderCurrent(ctx context.Context) {
	p.mu.Lock()
	pos := p.pos
	p.mu.Unlock()

	ts := timeline.FrameTimestamp{
		Index:           int(pos * p.opts.FPS),
		TimeSeconds:     pos,
		DurationSeconds: 1 / p.opts.FPS,
	}

	scene, err := p.o.source.SceneAt(pos)
	if err != nil {
		p.o.logger.Warn("preview scene at %.3fs: %v", pos, err)
		return
	}

	var cp *image.RGBA
	err = p.o.exec.Do(ctx, func() error {
		img, renderErr := p.o.engine.Render(ts, scene)
		if renderErr != nil {
			return renderErr
		}
		// Copy on the render thread; the engine reuses its buffer.
		cp = image.NewRGBA(img.Bounds())
		copy(cp.Pix, img.Pix)
		return nil
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.o.logger.Warn("preview render: %v", err)
		}
		return
	}

	if p.opts.OnFrame != nil {
		p.opts.OnFrame(cp, ts)
	}
	if p.opts.DurationSec > 0 {
		total := timeline.Count(p.opts.DurationSec, p.opts.FPS)
		p.o.events.EmitProgress(pipeline.NewProgressEvent(ts.Index, total, 0))
	}
}

// Play resumes playback from the current position.
func (p *Preview) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPreviewClosed
	}
	p.playing = true
	p.notify()
	return nil
}

// Pause freezes the playhead.
func (p *Preview) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPreviewClosed
	}
	p.playing = false
	return nil
}

// Seek jumps to the given time and renders that frame even while
// paused.
func (p *Preview) Seek(timeSec float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPreviewClosed
	}
	if timeSec < 0 {
		timeSec = 0
	}
	if p.opts.DurationSec > 0 && timeSec > p.opts.DurationSec {
		timeSec = p.opts.DurationSec
	}
	p.pos = timeSec
	p.notify()
	return nil
}

// Position returns the current playhead time.
func (p *Preview) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}

// Playing reports whether playback is running.
func (p *Preview) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// notify must be called with mu held.
func (p *Preview) notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Close stops the loop and releases the engine target.
func (p *Preview) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.playing = false
	p.mu.Unlock()

	p.cancel()
	<-p.done
}
