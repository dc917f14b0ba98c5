package scene

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/vietthanhnv/create-karaoke-video/pkg/effects"
	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
	"github.com/vietthanhnv/create-karaoke-video/pkg/subtitle"
)

func testCues() []subtitle.Cue {
	return []subtitle.Cue{
		{
			StartSec: 1.0,
			EndSec:   3.0,
			Words: []subtitle.WordTiming{
				{Text: "Hello", StartSec: 1.0, EndSec: 2.0},
				{Text: "world", StartSec: 2.0, EndSec: 3.0},
			},
		},
		{
			StartSec: 5.0,
			EndSec:   6.0,
			Words: []subtitle.WordTiming{
				{Text: "again", StartSec: 5.0, EndSec: 6.0},
			},
		},
	}
}

func TestSceneAtNoActiveCue(t *testing.T) {
	src, err := NewSource(ports.Background{Color: color.RGBA{A: 255}}, testCues(), nil)
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}

	state, err := src.SceneAt(0.5)
	if err != nil {
		t.Fatalf("SceneAt failed: %v", err)
	}
	if len(state.Lines) != 0 {
		t.Fatalf("expected no lines at 0.5s, got %d", len(state.Lines))
	}
}

func TestSceneAtActiveCueProgress(t *testing.T) {
	src, err := NewSource(ports.Background{}, testCues(), nil)
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}

	state, err := src.SceneAt(1.5)
	if err != nil {
		t.Fatalf("SceneAt failed: %v", err)
	}
	if len(state.Lines) != 1 {
		t.Fatalf("expected 1 line at 1.5s, got %d", len(state.Lines))
	}
	words := state.Lines[0].Words
	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}
	if math.Abs(words[0].Progress-0.5) > 1e-9 {
		t.Errorf("word 0 progress: got %f, want 0.5", words[0].Progress)
	}
	if words[1].Progress != 0 {
		t.Errorf("word 1 progress: got %f, want 0", words[1].Progress)
	}
}

func TestSceneAtIsIdempotent(t *testing.T) {
	chain := effects.Chain{{Kind: effects.KindGlow, Glow: effects.DefaultGlow()}}
	src, err := NewSource(ports.Background{}, testCues(), chain)
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}

	a, _ := src.SceneAt(2.25)
	b, _ := src.SceneAt(2.25)
	if len(a.Lines) != len(b.Lines) {
		t.Fatalf("snapshots differ in line count")
	}
	for i := range a.Lines {
		for j := range a.Lines[i].Words {
			if a.Lines[i].Words[j] != b.Lines[i].Words[j] {
				t.Fatalf("word %d/%d differs between identical timestamps", i, j)
			}
		}
	}
}

func TestNewSourceRejectsInvalidChain(t *testing.T) {
	bad := effects.Chain{{Kind: effects.KindGlow}} // missing params
	_, err := NewSource(ports.Background{}, nil, bad)
	if !errors.Is(err, effects.ErrMissingParams) {
		t.Fatalf("expected ErrMissingParams, got %v", err)
	}
}

func TestDuration(t *testing.T) {
	src, _ := NewSource(ports.Background{}, testCues(), nil)
	if got := src.Duration(); got != 6.0 {
		t.Errorf("Duration: got %f, want 6.0", got)
	}

	empty, _ := NewSource(ports.Background{}, nil, nil)
	if got := empty.Duration(); got != 0 {
		t.Errorf("Duration of empty source: got %f, want 0", got)
	}
}
