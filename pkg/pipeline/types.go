// Package pipeline provides the shared data types flowing between the
// capture system, the encoder process manager and the orchestrator.
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/vietthanhnv/create-karaoke-video/pkg/pixconv"
	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
)

// CapturedFrame is one rendered, format-converted frame. The capture
// system owns the buffer until the frame is handed to exactly one
// consumer; after hand-off the producer never touches Data again, and the
// consumer returns the buffer to the capture session's free-list when
// done.
type CapturedFrame struct {
	Index       int
	TimeSeconds float64
	Width       int
	Height      int
	PixelFormat pixconv.PixelFormat
	Data        []byte

	// RenderTime is how long the engine took to produce this frame.
	RenderTime time.Duration
}

// SizeBytes returns the frame payload size.
func (f CapturedFrame) SizeBytes() int { return len(f.Data) }

// ExportJob is the orchestrator-facing record of one export.
type ExportJob struct {
	ID          uuid.UUID
	Settings    ports.EncoderSettings
	TotalFrames int
	State       ports.JobState
	// FramesWritten is updated from the encoder's reported progress and
	// never decreases.
	FramesWritten int
	StartTime     time.Time
	// Errors accumulates diagnostic lines in order of appearance.
	Errors []string
}

// NewExportJob creates a Pending job record.
func NewExportJob(settings ports.EncoderSettings, totalFrames int) *ExportJob {
	return &ExportJob{
		ID:          uuid.New(),
		Settings:    settings,
		TotalFrames: totalFrames,
		State:       ports.JobPending,
	}
}

// ProgressEvent is the unified progress report exposed to collaborators,
// identical for preview and export consumers.
type ProgressEvent struct {
	FramesDone            int
	TotalFrames           int
	Fraction              float64
	EstimatedSecRemaining float64
}

// NewProgressEvent derives the fraction from the counts.
func NewProgressEvent(done, total int, etaSec float64) ProgressEvent {
	ev := ProgressEvent{FramesDone: done, TotalFrames: total, EstimatedSecRemaining: etaSec}
	if total > 0 {
		ev.Fraction = float64(done) / float64(total)
	}
	return ev
}

// Events is the callback surface exposed to collaborators such as a UI.
// Nil callbacks are skipped. Errors detected in background goroutines are
// funneled through this surface; the orchestrator is the single point
// deciding job state transitions.
type Events struct {
	OnProgress  func(ev ProgressEvent)
	OnCompleted func(outputPath string)
	OnFailed    func(err error)
	OnCancelled func()
}

// EmitProgress invokes OnProgress if set.
func (e Events) EmitProgress(ev ProgressEvent) {
	if e.OnProgress != nil {
		e.OnProgress(ev)
	}
}

// EmitCompleted invokes OnCompleted if set.
func (e Events) EmitCompleted(outputPath string) {
	if e.OnCompleted != nil {
		e.OnCompleted(outputPath)
	}
}

// EmitFailed invokes OnFailed if set.
func (e Events) EmitFailed(err error) {
	if e.OnFailed != nil {
		e.OnFailed(err)
	}
}

// EmitCancelled invokes OnCancelled if set.
func (e Events) EmitCancelled() {
	if e.OnCancelled != nil {
		e.OnCancelled()
	}
}
