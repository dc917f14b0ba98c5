// Package scene builds per-frame scene snapshots from a cue list, a
// background and an effect chain.
package scene

import (
	"fmt"

	"github.com/vietthanhnv/create-karaoke-video/pkg/effects"
	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
	"github.com/vietthanhnv/create-karaoke-video/pkg/subtitle"
)

// Source is a pull-based ports.SceneSource over immutable inputs. SceneAt
// is a pure function of the timestamp, so repeated calls for the same time
// (preview scrubbing) return identical snapshots.
type Source struct {
	background ports.Background
	cues       []subtitle.Cue
	chain      effects.Chain
}

// NewSource validates the effect chain and returns a scene source.
func NewSource(bg ports.Background, cues []subtitle.Cue, chain effects.Chain) (*Source, error) {
	if err := chain.Validate(); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	return &Source{background: bg, cues: cues, chain: chain}, nil
}

// SceneAt returns the snapshot for time t: the background, every active
// cue laid out as a line with per-word highlight progress, and the effect
// chain.
func (s *Source) SceneAt(t float64) (ports.SceneState, error) {
	state := ports.SceneState{
		Background: s.background,
		Effects:    s.chain,
	}
	for _, cue := range subtitle.ActiveCues(s.cues, t) {
		line := ports.LineState{
			StartSec: cue.StartSec,
			EndSec:   cue.EndSec,
			Words:    make([]ports.WordState, len(cue.Words)),
		}
		for i, w := range cue.Words {
			line.Words[i] = ports.WordState{Text: w.Text, Progress: w.Progress(t)}
		}
		state.Lines = append(state.Lines, line)
	}
	return state, nil
}

// Duration returns the end of the last cue, or 0 when there are none.
func (s *Source) Duration() float64 {
	var end float64
	for _, c := range s.cues {
		if c.EndSec > end {
			end = c.EndSec
		}
	}
	return end
}

var _ ports.SceneSource = (*Source)(nil)
