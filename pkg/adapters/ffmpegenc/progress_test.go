package ffmpegenc

import (
	"strings"
	"testing"
)

func TestProgressKeyValueBlock(t *testing.T) {
	p := newProgressParser(100)
	block := "frame=42\nfps=30.0\nbitrate= 512.3kbits/s\nout_time=00:00:01.400000\nspeed=1.25x\nprogress=continue\n"
	if _, err := p.Write([]byte(block)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got := p.Progress()
	if got.Frame != 42 {
		t.Errorf("Frame: got %d, want 42", got.Frame)
	}
	if got.FPS != 30.0 {
		t.Errorf("FPS: got %v, want 30.0", got.FPS)
	}
	if got.Bitrate != "512.3kbits/s" {
		t.Errorf("Bitrate: got %q", got.Bitrate)
	}
	if got.OutTime != "00:00:01.400000" {
		t.Errorf("OutTime: got %q", got.OutTime)
	}
	if got.Speed != 1.25 {
		t.Errorf("Speed: got %v, want 1.25", got.Speed)
	}
}

func TestProgressChunkedWrites(t *testing.T) {
	p := newProgressParser(0)
	// Feed one byte at a time so every line crosses chunk boundaries.
	for _, b := range []byte("frame=7\nspeed=0.9x\n") {
		if _, err := p.Write([]byte{b}); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	got := p.Progress()
	if got.Frame != 7 || got.Speed != 0.9 {
		t.Errorf("chunked parse: got %+v", got)
	}
}

func TestProgressStatusLineWithCarriageReturn(t *testing.T) {
	p := newProgressParser(0)
	line := "frame=  123 fps= 30 q=28.0 size=     256kB time=00:00:04.10 bitrate= 511.5kbits/s speed=1.02x\r"
	p.Write([]byte(line))

	got := p.Progress()
	if got.Frame != 123 {
		t.Errorf("Frame from status line: got %d, want 123", got.Frame)
	}
	if got.Speed != 1.02 {
		t.Errorf("Speed from status line: got %v, want 1.02", got.Speed)
	}
}

func TestProgressFrameIsMonotonic(t *testing.T) {
	p := newProgressParser(0)
	p.Write([]byte("frame=50\nframe=40\n"))
	if got := p.Frame(); got != 50 {
		t.Errorf("frame counter regressed: got %d, want 50", got)
	}
}

func TestProgressETA(t *testing.T) {
	p := newProgressParser(100)
	p.Write([]byte("frame=50\nfps=25.0\n"))
	if got := p.Progress().ETASeconds; got != 2.0 {
		t.Errorf("ETA: got %v, want 2.0", got)
	}

	p.Write([]byte("frame=100\nfps=25.0\n"))
	if got := p.Progress().ETASeconds; got != 0 {
		t.Errorf("ETA at completion: got %v, want 0", got)
	}
}

func TestProgressEndMarker(t *testing.T) {
	p := newProgressParser(0)
	p.Write([]byte("progress=end\n"))
	if !p.ended {
		t.Error("progress=end not recorded")
	}
}

func TestDiagnosticsClassification(t *testing.T) {
	p := newProgressParser(0)
	p.Write([]byte(strings.Join([]string{
		"Input #0, rawvideo, from 'pipe:0':",
		"[libx264 @ 0x5590] Error initializing output stream",
		"Stream mapping:",
		"Unknown encoder 'libx999'",
		"frame=10",
		"",
	}, "\n")))

	diags := p.Diagnostics()
	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostic lines, got %d: %v", len(diags), diags)
	}
	if !strings.Contains(diags[0], "Error initializing") {
		t.Errorf("first diagnostic: %q", diags[0])
	}
	if !strings.Contains(diags[1], "Unknown encoder") {
		t.Errorf("second diagnostic: %q", diags[1])
	}
	// Non-diagnostic lines must not leak in, and frame parsing still works.
	if p.Frame() != 10 {
		t.Errorf("frame: got %d", p.Frame())
	}
}

func TestDiagnosticsCapped(t *testing.T) {
	p := newProgressParser(0)
	for i := 0; i < maxDiagnostics+50; i++ {
		p.Write([]byte("some error happened\n"))
	}
	if got := len(p.Diagnostics()); got != maxDiagnostics {
		t.Errorf("diagnostics not capped: got %d", got)
	}
}

func TestFlushParsesTrailingPartialLine(t *testing.T) {
	p := newProgressParser(0)
	p.Write([]byte("frame=99")) // no terminator
	if p.Frame() != 0 {
		t.Fatal("partial line parsed too early")
	}
	p.flush()
	if got := p.Frame(); got != 99 {
		t.Errorf("frame after flush: got %d, want 99", got)
	}
}

func TestSummarizeDiagnostics(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{"Unknown encoder 'libx999'", "not available in this ffmpeg build"},
		{"[libx264] height not divisible by 2 (1280x721)", "must be even"},
		{"out.mp4: Permission denied", "permission to write"},
		{"av_interleaved_write_frame(): Broken pipe", "stopped reading frames"},
		{"Conversion failed!", "encoding aborted"},
		{"something harmless", ""},
	}
	for _, c := range cases {
		got := summarizeDiagnostics([]string{c.line})
		if c.want == "" {
			if got != "" {
				t.Errorf("summarize(%q): expected no match, got %q", c.line, got)
			}
			continue
		}
		if !strings.Contains(got, c.want) {
			t.Errorf("summarize(%q): got %q, want substring %q", c.line, got, c.want)
		}
	}
}
