package timeline

import (
	"math"
	"testing"
)

func TestGenerate_LengthAndMonotonicity(t *testing.T) {
	cases := []struct {
		duration float64
		fps      float64
	}{
		{3.0, 24},
		{3.0, 25},
		{3.0, 30},
		{3.0, 60},
		{10.5, 30},
		{0.1, 30},
		{60.0, 23.976},
	}

	for _, c := range cases {
		frames, err := Generate(c.duration, c.fps, 0)
		if err != nil {
			t.Fatalf("Generate(%v, %v): %v", c.duration, c.fps, err)
		}

		want := int(math.Ceil(c.duration*c.fps - 1e-9))
		if len(frames) != want {
			t.Errorf("Generate(%v, %v): got %d frames, want %d", c.duration, c.fps, len(frames), want)
		}

		for i, f := range frames {
			if f.Index != i {
				t.Fatalf("frame %d has index %d", i, f.Index)
			}
			wantTime := float64(i) / c.fps
			if math.Abs(f.TimeSeconds-wantTime) > 1e-9 {
				t.Fatalf("frame %d at fps %v: time %v, want %v", i, c.fps, f.TimeSeconds, wantTime)
			}
			if i > 0 && f.TimeSeconds <= frames[i-1].TimeSeconds {
				t.Fatalf("frame %d not strictly increasing", i)
			}
		}
	}
}

func TestGenerate_GapFree(t *testing.T) {
	frames, err := Generate(10, 30, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(frames); i++ {
		gap := frames[i].TimeSeconds - frames[i-1].TimeSeconds
		if math.Abs(gap-1.0/30) > 1e-9 {
			t.Fatalf("gap between frame %d and %d is %v", i-1, i, gap)
		}
	}
}

func TestGenerate_NoDriftOverLongSequence(t *testing.T) {
	seq, err := NewSequence(3600, 29.97, 0)
	if err != nil {
		t.Fatal(err)
	}
	last := seq.At(seq.Len() - 1)
	want := float64(seq.Len()-1) / 29.97
	if math.Abs(last.TimeSeconds-want) > 1e-9 {
		t.Errorf("last timestamp drifted: got %v, want %v", last.TimeSeconds, want)
	}
}

func TestGenerate_AudioOffset(t *testing.T) {
	for _, offset := range []float64{0.25, -0.25} {
		frames, err := Generate(1, 30, offset)
		if err != nil {
			t.Fatal(err)
		}
		if got := frames[0].TimeSeconds; math.Abs(got-offset) > 1e-9 {
			t.Errorf("offset %v: first timestamp %v", offset, got)
		}
		if got := frames[15].TimeSeconds; math.Abs(got-(0.5+offset)) > 1e-9 {
			t.Errorf("offset %v: frame 15 timestamp %v", offset, got)
		}
	}
}

func TestGenerate_ZeroDuration(t *testing.T) {
	frames, err := Generate(0, 30, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 0 {
		t.Errorf("expected 0 frames, got %d", len(frames))
	}
}

func TestGenerate_InvalidParameters(t *testing.T) {
	if _, err := Generate(1, 0, 0); err != ErrInvalidParameter {
		t.Errorf("fps=0: got %v, want ErrInvalidParameter", err)
	}
	if _, err := Generate(1, -30, 0); err != ErrInvalidParameter {
		t.Errorf("fps<0: got %v, want ErrInvalidParameter", err)
	}
	if _, err := Generate(-1, 30, 0); err != ErrInvalidParameter {
		t.Errorf("duration<0: got %v, want ErrInvalidParameter", err)
	}
}

func TestSequence_Restartable(t *testing.T) {
	seq, err := NewSequence(2, 30, 0.1)
	if err != nil {
		t.Fatal(err)
	}

	first := make([]FrameTimestamp, 0, seq.Len())
	for {
		ts, ok := seq.Next()
		if !ok {
			break
		}
		first = append(first, ts)
	}

	seq.Reset()
	for i := 0; ; i++ {
		ts, ok := seq.Next()
		if !ok {
			if i != len(first) {
				t.Fatalf("replay ended early at %d", i)
			}
			break
		}
		if ts != first[i] {
			t.Fatalf("replay diverged at frame %d: %+v vs %+v", i, ts, first[i])
		}
	}
}
