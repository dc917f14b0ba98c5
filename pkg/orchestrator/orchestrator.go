// Package orchestrator coordinates the full render/encode pipeline:
// timestamp generation, frame capture, pixel conversion, the encoder
// subprocess, and progress reporting for export and preview.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ideamans/go-l10n"

	"github.com/vietthanhnv/create-karaoke-video/pkg/adapters/codecdetect"
	"github.com/vietthanhnv/create-karaoke-video/pkg/capture"
	"github.com/vietthanhnv/create-karaoke-video/pkg/executor"
	"github.com/vietthanhnv/create-karaoke-video/pkg/pipeline"
	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
	"github.com/vietthanhnv/create-karaoke-video/pkg/timeline"
)

// ErrExportCancelled is returned when an export stops on request rather
// than on failure.
var ErrExportCancelled = errors.New("orchestrator: export cancelled")

// Orchestrator owns the render thread and wires the pipeline components
// together. It is the single place where job state transitions happen;
// background goroutines report through it, never around it.
type Orchestrator struct {
	exec    *executor.RenderExecutor
	engine  ports.RenderEngine
	source  ports.SceneSource
	encoder ports.EncoderProcessor
	fs      ports.FileSystem
	sink    ports.DebugSink
	logger  ports.Logger
	events  pipeline.Events
}

// New creates an orchestrator and starts its render thread.
func New(
	engine ports.RenderEngine,
	source ports.SceneSource,
	encoder ports.EncoderProcessor,
	fs ports.FileSystem,
	sink ports.DebugSink,
	logger ports.Logger,
	events pipeline.Events,
) *Orchestrator {
	return &Orchestrator{
		exec:    executor.New(),
		engine:  engine,
		source:  source,
		encoder: encoder,
		fs:      fs,
		sink:    sink,
		logger:  logger,
		events:  events,
	}
}

// Close stops the render thread. Any running export must be finished or
// cancelled first.
func (o *Orchestrator) Close() {
	o.exec.Close()
}

// ExportInput configures one export run.
type ExportInput struct {
	Settings ports.EncoderSettings

	// DurationSec is the timeline length to render.
	DurationSec float64

	// AudioOffsetSec shifts frame timestamps relative to the audio
	// track.
	AudioOffsetSec float64

	// QueueSize bounds in-flight frames; zero selects the default.
	QueueSize int
}

// Export runs the full pipeline synchronously and returns the job
// record. The returned record is also populated on failure, so callers
// can inspect diagnostics.
func (o *Orchestrator) Export(ctx context.Context, in ExportInput) (*pipeline.ExportJob, error) {
	timestamps, err := timeline.Generate(in.DurationSec, in.Settings.FPS, in.AudioOffsetSec)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: timeline: %w", err)
	}

	job := pipeline.NewExportJob(in.Settings, len(timestamps))
	o.logger.Info(l10n.F("Export %s: %d frames at %.2f fps to %s", job.ID, job.TotalFrames, in.Settings.FPS, in.Settings.OutputPath))

	if err := o.checkCodec(ctx, in.Settings); err != nil {
		return o.fail(job, err)
	}

	encJob, err := o.encoder.Start(ctx, in.Settings, job.TotalFrames)
	if err != nil {
		return o.fail(job, fmt.Errorf("start encoder: %w", err))
	}

	sys := capture.NewSystem(o.engine, o.source, o.exec, o.logger)
	sess, err := sys.Start(ctx, timestamps, capture.Options{
		Width:       in.Settings.Width,
		Height:      in.Settings.Height,
		PixelFormat: in.Settings.PixelFormat,
		QueueSize:   in.QueueSize,
		Overflow:    capture.Backpressure,
	})
	if err != nil {
		_ = encJob.Cancel()
		return o.fail(job, fmt.Errorf("start capture: %w", err))
	}

	job.State = ports.JobRunning
	job.StartTime = time.Now()

	writeErr := o.feedEncoder(job, sess, encJob)

	// A write failure cancels the session itself, so only classify the
	// session error when the writes were clean.
	if capErr := sess.Err(); capErr != nil && writeErr == nil {
		_ = encJob.Cancel()
		if errors.Is(capErr, capture.ErrCancelled) {
			return o.cancelled(job)
		}
		return o.fail(job, capErr)
	}
	if writeErr != nil {
		// The pipe broke mid-stream; Finish resolves why.
		o.logger.Warn(l10n.F("Frame write failed: %s", writeErr))
	}

	finErr := encJob.Finish(ctx)
	job.FramesWritten = encJob.FramesWritten()
	job.Errors = encJob.Diagnostics()
	o.saveEncoderLog(encJob)

	if finErr != nil {
		if errors.Is(finErr, context.Canceled) {
			_ = encJob.Cancel()
			return o.cancelled(job)
		}
		return o.fail(job, finErr)
	}

	o.verifyOutput(in.Settings)

	job.State = ports.JobCompleted
	o.logger.Info(l10n.F("Output saved to %s", in.Settings.OutputPath))
	o.events.EmitCompleted(in.Settings.OutputPath)
	return job, nil
}

// feedEncoder drains the capture session into the encoder, emitting a
// progress event per delivered frame. It returns the first write error
// but always drains the session so the producer can finish.
func (o *Orchestrator) feedEncoder(job *pipeline.ExportJob, sess *capture.Session, encJob ports.EncoderJob) error {
	var writeErr error
	for frame := range sess.Frames() {
		if writeErr != nil {
			sess.Release(frame.Data)
			continue
		}

		o.saveFrameDebug(frame)

		if err := encJob.WriteFrame(frame.Data); err != nil {
			writeErr = err
			sess.Release(frame.Data)
			sess.Cancel()
			continue
		}
		sess.Release(frame.Data)

		job.FramesWritten = encJob.FramesWritten()
		o.events.EmitProgress(pipeline.NewProgressEvent(
			frame.Index+1, job.TotalFrames, encJob.Progress().ETASeconds))
	}
	return writeErr
}

// checkCodec fails fast when the requested codec is missing from the
// encoder build. Probe failures are not fatal; the encoder itself will
// complain if it truly cannot run.
func (o *Orchestrator) checkCodec(ctx context.Context, s ports.EncoderSettings) error {
	if s.VideoCodec == "" {
		return nil
	}
	caps, err := o.encoder.Capabilities(ctx)
	if err != nil {
		o.logger.Warn(l10n.F("Cannot probe encoder capabilities: %s", err))
		return nil
	}
	if len(caps.VideoCodecs) > 0 && !caps.HasVideoCodec(s.VideoCodec) {
		return fmt.Errorf("orchestrator: video codec %q not available (ffmpeg %s)", s.VideoCodec, caps.Version)
	}
	return nil
}

// verifyOutput probes the finished file and warns on surprises. The
// export already succeeded by the encoder's account; verification
// problems are reported, not fatal.
func (o *Orchestrator) verifyOutput(s ports.EncoderSettings) {
	if exists, err := o.fs.Exists(s.OutputPath); err != nil || !exists {
		o.logger.Warn(l10n.F("Output file %s not found after encoding", s.OutputPath))
		return
	}
	if s.Container != "" && s.Container != "mp4" {
		return
	}
	info, err := codecdetect.ProbeFile(s.OutputPath)
	if err != nil {
		o.logger.Warn(l10n.F("Cannot verify output: %s", err))
		return
	}
	if info.Width != s.Width || info.Height != s.Height {
		o.logger.Warn(l10n.F("Output is %dx%d, expected %dx%d", info.Width, info.Height, s.Width, s.Height))
	}
	o.logger.Debug("output verified: %s %dx%d, %d samples", info.Codec, info.Width, info.Height, info.SampleCount)
}

func (o *Orchestrator) saveFrameDebug(frame pipeline.CapturedFrame) {
	if !o.sink.Enabled() {
		return
	}
	if scene, err := o.source.SceneAt(frame.TimeSeconds); err == nil {
		// The background image stays out of the snapshot; only the text
		// and effect state matter for debugging.
		snapshot := struct {
			TimeSec float64           `json:"time_sec"`
			Lines   []ports.LineState `json:"lines"`
			Effects interface{}       `json:"effects,omitempty"`
		}{frame.TimeSeconds, scene.Lines, scene.Effects}
		if data, err := json.MarshalIndent(snapshot, "", "  "); err == nil {
			_ = o.sink.SaveSceneJSON(frame.Index, data)
		}
	}
	_ = o.sink.SaveRawFrame(frame.Index, frame.Data)
}

// encoderLogger is the optional stderr-capture surface of an encoder
// job.
type encoderLogger interface {
	Log() []byte
}

func (o *Orchestrator) saveEncoderLog(encJob ports.EncoderJob) {
	if !o.sink.Enabled() {
		return
	}
	if el, ok := encJob.(encoderLogger); ok {
		_ = o.sink.SaveEncoderLog(el.Log())
	}
}

func (o *Orchestrator) fail(job *pipeline.ExportJob, err error) (*pipeline.ExportJob, error) {
	job.State = ports.JobFailed
	o.logger.Error(l10n.F("Export failed: %s", err))
	o.events.EmitFailed(err)
	return job, err
}

func (o *Orchestrator) cancelled(job *pipeline.ExportJob) (*pipeline.ExportJob, error) {
	job.State = ports.JobCancelled
	o.logger.Info(l10n.T("Export cancelled"))
	o.events.EmitCancelled()
	return job, ErrExportCancelled
}
