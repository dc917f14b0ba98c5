package ffmpegenc

import "errors"

var (
	// ErrFFmpegNotFound is returned when no ffmpeg binary can be located.
	ErrFFmpegNotFound = errors.New("ffmpeg not found: install ffmpeg or set FFMPEG_PATH")

	// ErrNotRunning is returned when writing to or finishing a job that
	// already reached a terminal state.
	ErrNotRunning = errors.New("ffmpegenc: job is not running")

	// ErrBrokenPipe is returned when the encoder closed its input pipe
	// while frames were still being written.
	ErrBrokenPipe = errors.New("ffmpegenc: encoder closed its input pipe")

	// ErrInvalidSettings is returned by settings validation.
	ErrInvalidSettings = errors.New("ffmpegenc: invalid encoder settings")
)
