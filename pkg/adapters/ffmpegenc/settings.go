package ffmpegenc

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/vietthanhnv/create-karaoke-video/pkg/pixconv"
	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
)

const defaultCRF = 23

// validateSettings checks an EncoderSettings before a process is spawned,
// so misconfiguration fails fast instead of as a cryptic ffmpeg exit.
func validateSettings(s ports.EncoderSettings) error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidSettings, s.Width, s.Height)
	}
	if s.FPS <= 0 {
		return fmt.Errorf("%w: fps %v", ErrInvalidSettings, s.FPS)
	}
	if !s.PixelFormat.Valid() {
		return fmt.Errorf("%w: pixel format %q", ErrInvalidSettings, s.PixelFormat)
	}
	// The output stream is 4:2:0 subsampled, so odd dimensions cannot be
	// encoded regardless of the input format.
	if s.Width%2 != 0 || s.Height%2 != 0 {
		return fmt.Errorf("%w: dimensions %dx%d must be even for 4:2:0 output", ErrInvalidSettings, s.Width, s.Height)
	}
	if s.CRF != nil && s.BitrateKbps > 0 {
		return fmt.Errorf("%w: CRF and bitrate are mutually exclusive", ErrInvalidSettings)
	}
	if s.CRF != nil && (*s.CRF < 0 || *s.CRF > 51) {
		return fmt.Errorf("%w: CRF %d out of range [0, 51]", ErrInvalidSettings, *s.CRF)
	}
	if s.BitrateKbps < 0 {
		return fmt.Errorf("%w: bitrate %d", ErrInvalidSettings, s.BitrateKbps)
	}
	if s.OutputPath == "" {
		return fmt.Errorf("%w: output path is empty", ErrInvalidSettings)
	}
	return nil
}

// buildArgs assembles the ffmpeg command line: raw frames over stdin,
// machine-readable progress over stderr, output to the target file.
func buildArgs(s ports.EncoderSettings) []string {
	args := []string{
		"-hide_banner",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", string(s.PixelFormat),
		"-s", fmt.Sprintf("%dx%d", s.Width, s.Height),
		"-r", formatFPS(s.FPS),
		"-i", "pipe:0",
	}

	if s.AudioPath != "" {
		args = append(args, "-i", s.AudioPath)
	}

	codec := s.VideoCodec
	if codec == "" {
		codec = "libx264"
	}
	args = append(args, "-c:v", codec)

	switch {
	case s.CRF != nil:
		args = append(args, "-crf", strconv.Itoa(*s.CRF))
	case s.BitrateKbps > 0:
		args = append(args, "-b:v", fmt.Sprintf("%dk", s.BitrateKbps))
		if s.MaxBitrateKbps > 0 {
			args = append(args,
				"-maxrate", fmt.Sprintf("%dk", s.MaxBitrateKbps),
				"-bufsize", fmt.Sprintf("%dk", s.MaxBitrateKbps*2))
		}
	default:
		args = append(args, "-crf", strconv.Itoa(defaultCRF))
	}

	if s.Preset != "" {
		args = append(args, "-preset", s.Preset)
	}

	args = append(args, "-pix_fmt", "yuv420p")

	if s.AudioPath != "" {
		audioCodec := s.AudioCodec
		if audioCodec == "" {
			audioCodec = "aac"
		}
		args = append(args, "-c:a", audioCodec)
		if s.AudioBitrateKbps > 0 {
			args = append(args, "-b:a", fmt.Sprintf("%dk", s.AudioBitrateKbps))
		}
		if s.AudioSampleRate > 0 {
			args = append(args, "-ar", strconv.Itoa(s.AudioSampleRate))
		}
		// Stop at whichever input ends first so a long audio track does
		// not pad the video with still frames.
		args = append(args, "-shortest")
	}

	if s.Container == "mp4" || s.Container == "" {
		args = append(args, "-movflags", "+faststart")
	}

	for _, k := range sortedKeys(s.Metadata) {
		args = append(args, "-metadata", fmt.Sprintf("%s=%s", k, s.Metadata[k]))
	}

	args = append(args, "-progress", "pipe:2", s.OutputPath)
	return args
}

// formatFPS prints integral rates without a fraction so common values
// match what users expect to see in process listings.
func formatFPS(fps float64) string {
	if fps == float64(int(fps)) {
		return strconv.Itoa(int(fps))
	}
	return strconv.FormatFloat(fps, 'f', 3, 64)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// frameSize returns the byte size of one input frame.
func frameSize(s ports.EncoderSettings) int {
	return pixconv.BufferSize(s.Width, s.Height, s.PixelFormat)
}
