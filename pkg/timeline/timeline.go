// Package timeline generates the deterministic frame timestamp sequence
// that drives rendering and export.
package timeline

import (
	"errors"
	"math"
)

// ErrInvalidParameter is returned when fps or duration are out of range.
var ErrInvalidParameter = errors.New("timeline: invalid parameter")

// countEpsilon absorbs floating-point noise in duration*fps so that an
// exact multiple of the frame interval never rounds up to an extra frame.
const countEpsilon = 1e-9

// FrameTimestamp identifies one output frame and its position in time.
type FrameTimestamp struct {
	Index           int
	TimeSeconds     float64
	DurationSeconds float64
}

// Count returns the number of frames in a clip: ceil(duration * fps).
// Returns 0 for invalid inputs; use Generate or NewSequence for validation.
func Count(durationSec, fps float64) int {
	if fps <= 0 || durationSec < 0 {
		return 0
	}
	return int(math.Ceil(durationSec*fps - countEpsilon))
}

// Generate produces the full timestamp list for a clip.
//
// Timestamp i is computed as i/fps plus the uniform audio offset, never by
// repeated addition, so long sequences do not accumulate drift.
func Generate(durationSec, fps, audioOffsetSec float64) ([]FrameTimestamp, error) {
	seq, err := NewSequence(durationSec, fps, audioOffsetSec)
	if err != nil {
		return nil, err
	}
	out := make([]FrameTimestamp, 0, seq.Len())
	for {
		ts, ok := seq.Next()
		if !ok {
			break
		}
		out = append(out, ts)
	}
	return out, nil
}

// Sequence is a restartable cursor over the frame timestamps of a clip.
// It is a pure function of its inputs and holds no shared state, so a
// fresh Sequence (or Reset) replays the identical timestamps.
type Sequence struct {
	fps    float64
	offset float64
	total  int
	next   int
}

// NewSequence validates the inputs and returns a cursor positioned at
// frame zero.
func NewSequence(durationSec, fps, audioOffsetSec float64) (*Sequence, error) {
	if fps <= 0 {
		return nil, ErrInvalidParameter
	}
	if durationSec < 0 {
		return nil, ErrInvalidParameter
	}
	return &Sequence{
		fps:    fps,
		offset: audioOffsetSec,
		total:  Count(durationSec, fps),
	}, nil
}

// Len returns the total number of frames in the sequence.
func (s *Sequence) Len() int { return s.total }

// Remaining returns the number of frames not yet produced.
func (s *Sequence) Remaining() int { return s.total - s.next }

// Next returns the next timestamp, or ok=false once the sequence is
// exhausted.
func (s *Sequence) Next() (FrameTimestamp, bool) {
	if s.next >= s.total {
		return FrameTimestamp{}, false
	}
	ts := s.At(s.next)
	s.next++
	return ts, true
}

// At returns the timestamp for an arbitrary frame index.
func (s *Sequence) At(index int) FrameTimestamp {
	return FrameTimestamp{
		Index:           index,
		TimeSeconds:     float64(index)/s.fps + s.offset,
		DurationSeconds: 1.0 / s.fps,
	}
}

// Reset rewinds the cursor to frame zero.
func (s *Sequence) Reset() { s.next = 0 }
