package capture

import (
	"time"

	"github.com/vietthanhnv/create-karaoke-video/pkg/pipeline"
)

// Frames is the delivery channel. It carries every frame exactly once in
// timestamp order (minus drops under DropNewest) and is closed when the
// producer finishes, fails, or is cancelled.
func (s *Session) Frames() <-chan pipeline.CapturedFrame {
	return s.frames
}

// Release returns a frame buffer to the session free-list for reuse. The
// caller must not touch the buffer afterwards. Buffers of the wrong size
// (or a full free-list) are simply discarded to the GC.
func (s *Session) Release(buf []byte) {
	if cap(buf) < s.frameSize {
		return
	}
	select {
	case s.free <- buf[:0]:
	default:
	}
}

// acquire pops a recycled buffer or allocates a fresh one.
func (s *Session) acquire() []byte {
	select {
	case buf := <-s.free:
		return buf
	default:
		return make([]byte, 0, s.frameSize)
	}
}

// Cancel requests a cooperative stop. The producer finishes the frame in
// flight, then closes Frames without delivering further frames.
func (s *Session) Cancel() {
	s.cancel()
}

// Err reports why the producer stopped. It returns nil after a complete
// run and is only meaningful once Frames has been closed.
func (s *Session) Err() error {
	return s.err
}

func (s *Session) fail(err error) {
	s.errOnce.Do(func() { s.err = err })
}

// notePeak records the queue depth right after an enqueue; the consumer
// may already have drained, so this is a lower bound, never above cap.
func (s *Session) notePeak() {
	if depth := int64(len(s.frames)); depth > s.peakDepth.Load() {
		s.peakDepth.Store(depth)
	}
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	st := Stats{
		Rendered:       s.rendered.Load(),
		Delivered:      s.delivered.Load(),
		Dropped:        s.dropped.Load(),
		PeakQueueDepth: s.peakDepth.Load(),
	}
	if st.Rendered > 0 {
		st.AvgRenderTime = time.Duration(s.renderNanos.Load() / st.Rendered)
	}
	if elapsed := time.Since(s.start).Seconds(); elapsed > 0 {
		st.EffectiveFPS = float64(st.Delivered) / elapsed
	}
	return st
}
