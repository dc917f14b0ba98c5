package ffmpegenc

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/vietthanhnv/create-karaoke-video/pkg/pixconv"
	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
)

func validSettings() ports.EncoderSettings {
	return ports.EncoderSettings{
		Container:   "mp4",
		VideoCodec:  "libx264",
		Preset:      "fast",
		Width:       1280,
		Height:      720,
		FPS:         30,
		PixelFormat: pixconv.RGBA,
		OutputPath:  "/tmp/out.mp4",
	}
}

func TestValidateSettings(t *testing.T) {
	crf := 20
	cases := []struct {
		name   string
		mutate func(*ports.EncoderSettings)
		ok     bool
	}{
		{"valid", func(s *ports.EncoderSettings) {}, true},
		{"valid crf", func(s *ports.EncoderSettings) { s.CRF = &crf }, true},
		{"valid bitrate", func(s *ports.EncoderSettings) { s.BitrateKbps = 4000 }, true},
		{"zero width", func(s *ports.EncoderSettings) { s.Width = 0 }, false},
		{"negative height", func(s *ports.EncoderSettings) { s.Height = -720 }, false},
		{"odd width", func(s *ports.EncoderSettings) { s.Width = 1279 }, false},
		{"odd height", func(s *ports.EncoderSettings) { s.Height = 721 }, false},
		{"zero fps", func(s *ports.EncoderSettings) { s.FPS = 0 }, false},
		{"bad pixel format", func(s *ports.EncoderSettings) { s.PixelFormat = "nope" }, false},
		{"crf and bitrate", func(s *ports.EncoderSettings) { s.CRF = &crf; s.BitrateKbps = 4000 }, false},
		{"crf out of range", func(s *ports.EncoderSettings) { v := 52; s.CRF = &v }, false},
		{"negative bitrate", func(s *ports.EncoderSettings) { s.BitrateKbps = -1 }, false},
		{"empty output", func(s *ports.EncoderSettings) { s.OutputPath = "" }, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := validSettings()
			c.mutate(&s)
			err := validateSettings(s)
			if c.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !c.ok && !errors.Is(err, ErrInvalidSettings) {
				t.Fatalf("expected ErrInvalidSettings, got %v", err)
			}
		})
	}
}

func TestBuildArgsCRF(t *testing.T) {
	s := validSettings()
	crf := 18
	s.CRF = &crf

	want := []string{
		"-hide_banner", "-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", "1280x720",
		"-r", "30",
		"-i", "pipe:0",
		"-c:v", "libx264",
		"-crf", "18",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-progress", "pipe:2",
		"/tmp/out.mp4",
	}
	if got := buildArgs(s); !reflect.DeepEqual(got, want) {
		t.Errorf("args mismatch:\ngot  %v\nwant %v", got, want)
	}
}

func TestBuildArgsBitrateAndAudio(t *testing.T) {
	s := validSettings()
	s.BitrateKbps = 4000
	s.MaxBitrateKbps = 6000
	s.AudioPath = "/tmp/song.aac"
	s.AudioCodec = "aac"
	s.AudioBitrateKbps = 192
	s.AudioSampleRate = 44100
	s.Metadata = map[string]string{"title": "demo", "artist": "nobody"}

	got := strings.Join(buildArgs(s), " ")
	for _, want := range []string{
		"-i /tmp/song.aac",
		"-b:v 4000k",
		"-maxrate 6000k",
		"-bufsize 12000k",
		"-c:a aac",
		"-b:a 192k",
		"-ar 44100",
		"-shortest",
		"-metadata artist=nobody -metadata title=demo", // sorted keys
		"-progress pipe:2 /tmp/out.mp4",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("args missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "-crf") {
		t.Error("bitrate mode must not emit -crf")
	}
}

func TestBuildArgsDefaultsToCRF23(t *testing.T) {
	got := strings.Join(buildArgs(validSettings()), " ")
	if !strings.Contains(got, "-crf 23") {
		t.Errorf("expected default -crf 23 in: %s", got)
	}
}

func TestFormatFPS(t *testing.T) {
	if got := formatFPS(30); got != "30" {
		t.Errorf("formatFPS(30): got %q", got)
	}
	if got := formatFPS(29.97); got != "29.970" {
		t.Errorf("formatFPS(29.97): got %q", got)
	}
}

func TestFrameSize(t *testing.T) {
	s := validSettings()
	if got := frameSize(s); got != 1280*720*4 {
		t.Errorf("RGBA frame size: got %d", got)
	}
	s.PixelFormat = pixconv.I420
	if got := frameSize(s); got != 1280*720*3/2 {
		t.Errorf("I420 frame size: got %d", got)
	}
}
