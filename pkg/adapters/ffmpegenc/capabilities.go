package ffmpegenc

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/cenkalti/backoff/v4"

	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
)

// probe runs one ffmpeg query and retries transient failures; a probe
// racing a just-installed or busy binary occasionally fails once and
// succeeds immediately after.
func probe(ctx context.Context, path string, args ...string) ([]byte, error) {
	var out []byte
	op := func() error {
		cmd := exec.CommandContext(ctx, path, args...)
		var err error
		out, err = cmd.Output()
		if err != nil {
			// ffmpeg exits 0 for all the query flags we use; anything
			// else is worth one more attempt.
			return fmt.Errorf("probe %v: %w", args, err)
		}
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return out, nil
}

// probeCapabilities queries version, encoders, muxers and hwaccels.
func probeCapabilities(ctx context.Context, path string) (ports.EncoderCapabilities, error) {
	caps := ports.EncoderCapabilities{}

	version, err := probe(ctx, path, "-hide_banner", "-version")
	if err != nil {
		return caps, err
	}
	caps.Version = parseVersion(string(version))

	encoders, err := probe(ctx, path, "-hide_banner", "-encoders")
	if err != nil {
		return caps, err
	}
	caps.VideoCodecs, caps.AudioCodecs = parseEncoders(string(encoders))

	muxers, err := probe(ctx, path, "-hide_banner", "-muxers")
	if err != nil {
		return caps, err
	}
	caps.Formats = parseMuxers(string(muxers))

	hwaccels, err := probe(ctx, path, "-hide_banner", "-hwaccels")
	if err != nil {
		return caps, err
	}
	caps.HWAccels = parseHWAccels(string(hwaccels))

	return caps, nil
}

// parseVersion extracts the release from "ffmpeg version N.N ...".
func parseVersion(out string) string {
	line, _, _ := strings.Cut(out, "\n")
	fields := strings.Fields(line)
	if len(fields) >= 3 && fields[0] == "ffmpeg" && fields[1] == "version" {
		return fields[2]
	}
	return strings.TrimSpace(line)
}

// parseEncoders splits the -encoders table into video and audio encoder
// names. Table rows look like " V....D libx264    H.264 / ...", with the
// first flag column carrying the media type.
func parseEncoders(out string) (video, audio []string) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields[0]) < 6 {
			continue
		}
		flags := fields[0]
		if strings.ContainsAny(flags, "=-") {
			continue // header separator
		}
		switch flags[0] {
		case 'V':
			video = append(video, fields[1])
		case 'A':
			audio = append(audio, fields[1])
		}
	}
	return video, audio
}

// parseMuxers extracts muxer names from the -muxers table, whose rows
// look like "  E mp4    MP4 (MPEG-4 Part 14)". A row can name several
// comma-separated muxers.
func parseMuxers(out string) []string {
	var formats []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "E" {
			continue
		}
		for _, name := range strings.Split(fields[1], ",") {
			formats = append(formats, name)
		}
	}
	return formats
}

// parseHWAccels reads the plain list that follows the header line.
func parseHWAccels(out string) []string {
	var accels []string
	for i, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if i == 0 || line == "" {
			continue // "Hardware acceleration methods:" header
		}
		accels = append(accels, line)
	}
	return accels
}
