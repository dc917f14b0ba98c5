package ports

import (
	"context"

	"github.com/vietthanhnv/create-karaoke-video/pkg/pixconv"
)

// JobState is the lifecycle state of an encoding job.
type JobState int

const (
	JobPending JobState = iota
	JobRunning
	JobPaused
	JobCancelled
	JobFailed
	JobCompleted
)

// String returns the string representation of the job state.
func (s JobState) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobRunning:
		return "running"
	case JobPaused:
		return "paused"
	case JobCancelled:
		return "cancelled"
	case JobFailed:
		return "failed"
	case JobCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is one of the three terminal states.
func (s JobState) Terminal() bool {
	return s == JobCancelled || s == JobFailed || s == JobCompleted
}

// EncoderSettings configures one export. Exactly one of CRF (quality
// factor) and BitrateKbps (target bitrate) must be set; this is validated
// before the encoder process starts.
type EncoderSettings struct {
	Container  string // mp4, mkv, webm
	VideoCodec string // libx264, libx265, libvpx-vp9, ...

	// Rate control: CRF and BitrateKbps are mutually exclusive.
	CRF            *int
	BitrateKbps    int
	MaxBitrateKbps int

	Preset string // ultrafast .. veryslow speed/quality tradeoff

	Width       int
	Height      int
	FPS         float64
	PixelFormat pixconv.PixelFormat // format of the piped frames

	// Optional audio track muxed into the output.
	AudioPath        string
	AudioCodec       string
	AudioBitrateKbps int
	AudioSampleRate  int

	OutputPath string
	Metadata   map[string]string
}

// EncoderCapabilities is the probed feature set of the encoder tool,
// derived once and cached for the process lifetime.
type EncoderCapabilities struct {
	Version     string
	VideoCodecs []string
	AudioCodecs []string
	Formats     []string
	HWAccels    []string
}

// HasVideoCodec reports whether the named video encoder is available.
func (c EncoderCapabilities) HasVideoCodec(name string) bool {
	return contains(c.VideoCodecs, name)
}

// HasAudioCodec reports whether the named audio encoder is available.
func (c EncoderCapabilities) HasAudioCodec(name string) bool {
	return contains(c.AudioCodecs, name)
}

// HasFormat reports whether the named container muxer is available.
func (c EncoderCapabilities) HasFormat(name string) bool {
	return contains(c.Formats, name)
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}

// EncoderProgress is the state parsed from the encoder's diagnostic
// output channel.
type EncoderProgress struct {
	Frame      int     // frames the encoder reports consumed
	FPS        float64 // encoder's observed encoding rate
	Speed      float64 // realtime speed multiplier
	Bitrate    string
	OutTime    string
	ETASeconds float64
}

// EncoderJob is a running export owned by an EncoderProcessor.
type EncoderJob interface {
	// WriteFrame streams one frame's raw bytes to the encoder input.
	// Returns an error once the job has left the Running state or the
	// input pipe is broken.
	WriteFrame(data []byte) error

	// Finish closes the input channel and waits for the process to exit,
	// resolving the terminal state.
	Finish(ctx context.Context) error

	// Cancel closes the input, asks the process to terminate gracefully
	// within a bounded wait, then force-kills it.
	Cancel() error

	// State returns the current lifecycle state.
	State() JobState

	// Progress returns the latest parsed progress snapshot.
	Progress() EncoderProgress

	// FramesWritten returns the frame count the encoder reported
	// consuming, which only ever increases.
	FramesWritten() int

	// Diagnostics returns accumulated warning and error lines from the
	// encoder's output, in order of appearance.
	Diagnostics() []string

	// Done is closed once the job reaches a terminal state.
	Done() <-chan struct{}

	// Err returns the job failure, nil unless State is JobFailed.
	Err() error
}

// EncoderProcessor owns the external encoder tool: capability probing and
// job lifecycle.
type EncoderProcessor interface {
	// Capabilities probes the tool's codec/format/hwaccel support. The
	// result is cached until the tool path changes.
	Capabilities(ctx context.Context) (EncoderCapabilities, error)

	// Start validates settings and spawns the encoder subprocess. The
	// returned job is in JobRunning state.
	Start(ctx context.Context, settings EncoderSettings, totalFrames int) (EncoderJob, error)
}
