// Package subtitle models karaoke cues and per-word highlight timing.
package subtitle

import (
	"strings"
)

// WordTiming is the timing of a single word inside a cue. Immutable once
// built from the source collaborator.
type WordTiming struct {
	Text     string
	StartSec float64
	EndSec   float64
}

// Progress returns the highlight progress of the word at time t, in [0, 1].
//
// A zero-duration word counts as fully sung once t >= start, so malformed
// or auto-distributed timing never divides by zero.
func (w WordTiming) Progress(t float64) float64 {
	if w.EndSec <= w.StartSec {
		if t >= w.StartSec {
			return 1.0
		}
		return 0.0
	}
	p := (t - w.StartSec) / (w.EndSec - w.StartSec)
	if p < 0 {
		return 0.0
	}
	if p > 1 {
		return 1.0
	}
	return p
}

// Cue is a time-bounded span of subtitle text decomposed into word timings.
type Cue struct {
	StartSec float64
	EndSec   float64
	Words    []WordTiming
	Style    string
}

// ActiveAt reports whether the cue is visible at time t. The window is
// half-open: start <= t < end.
func (c Cue) ActiveAt(t float64) bool {
	return t >= c.StartSec && t < c.EndSec
}

// Text reassembles the cue's display text.
func (c Cue) Text() string {
	parts := make([]string, len(c.Words))
	for i, w := range c.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// Progress returns the word-weighted completion ratio of the cue at time t,
// in [0, 1]. Each word contributes equally; a partially sung word
// contributes its own progress fraction.
func (c Cue) Progress(t float64) float64 {
	if t <= c.StartSec {
		return 0.0
	}
	if t >= c.EndSec {
		return 1.0
	}
	if len(c.Words) == 0 {
		if c.EndSec <= c.StartSec {
			return 1.0
		}
		return (t - c.StartSec) / (c.EndSec - c.StartSec)
	}

	done := 0.0
	for _, w := range c.Words {
		done += w.Progress(t)
	}
	return done / float64(len(c.Words))
}

// DistributeWords splits text on whitespace and spreads the words evenly
// over [start, end). Used for cues whose source carries line timing only.
func DistributeWords(text string, startSec, endSec float64) []WordTiming {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	span := (endSec - startSec) / float64(len(fields))
	words := make([]WordTiming, len(fields))
	for i, f := range fields {
		words[i] = WordTiming{
			Text:     f,
			StartSec: startSec + float64(i)*span,
			EndSec:   startSec + float64(i+1)*span,
		}
	}
	// Pin the last word to the cue end to avoid float residue.
	words[len(words)-1].EndSec = endSec
	return words
}

// ActiveCues filters cues down to those visible at time t, preserving order.
func ActiveCues(cues []Cue, t float64) []Cue {
	var active []Cue
	for _, c := range cues {
		if c.ActiveAt(t) {
			active = append(active, c)
		}
	}
	return active
}
