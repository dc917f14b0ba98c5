package orchestrator

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vietthanhnv/create-karaoke-video/pkg/mocks"
	"github.com/vietthanhnv/create-karaoke-video/pkg/pipeline"
	"github.com/vietthanhnv/create-karaoke-video/pkg/pixconv"
	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
	"github.com/vietthanhnv/create-karaoke-video/pkg/timeline"
)

func exportSettings() ports.EncoderSettings {
	return ports.EncoderSettings{
		Container:   "mkv",
		VideoCodec:  "libx264",
		Width:       4,
		Height:      4,
		FPS:         30,
		PixelFormat: pixconv.RGBA,
		OutputPath:  "/out/test.mkv",
	}
}

type exportFixture struct {
	engine  *mocks.RenderEngine
	source  *mocks.SceneSource
	proc    *mocks.EncoderProcessor
	fs      *mocks.FileSystem
	sink    *mocks.DebugSink
	logger  *mocks.Logger
	orch    *Orchestrator
	mu      sync.Mutex
	events  []string
	failErr error
}

func newExportFixture() *exportFixture {
	f := &exportFixture{
		engine: &mocks.RenderEngine{},
		source: &mocks.SceneSource{},
		proc:   &mocks.EncoderProcessor{},
		fs:     mocks.NewFileSystem(),
		sink:   mocks.NewDebugSink(),
		logger: &mocks.Logger{},
	}
	events := pipeline.Events{
		OnProgress: func(ev pipeline.ProgressEvent) { f.record("progress") },
		OnCompleted: func(path string) {
			f.record("completed:" + path)
		},
		OnFailed: func(err error) {
			f.mu.Lock()
			f.failErr = err
			f.mu.Unlock()
			f.record("failed")
		},
		OnCancelled: func() { f.record("cancelled") },
	}
	f.orch = New(f.engine, f.source, f.proc, f.fs, f.sink, f.logger, events)
	return f
}

func (f *exportFixture) record(ev string) {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
}

func (f *exportFixture) lastEvent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return ""
	}
	return f.events[len(f.events)-1]
}

func (f *exportFixture) countEvents(ev string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e == ev {
			n++
		}
	}
	return n
}

func TestExportCompletes(t *testing.T) {
	f := newExportFixture()
	defer f.orch.Close()
	_ = f.fs.WriteFile("/out/test.mkv", []byte("mkv"))

	job, err := f.orch.Export(context.Background(), ExportInput{
		Settings:    exportSettings(),
		DurationSec: 1.0,
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if job.State != ports.JobCompleted {
		t.Errorf("job state = %v, want completed", job.State)
	}
	if job.TotalFrames != 30 {
		t.Errorf("total frames = %d, want 30", job.TotalFrames)
	}
	if job.ID == (uuid.UUID{}) {
		t.Error("job has no id")
	}
	if !f.logger.HasMessage(job.ID.String()) {
		t.Errorf("job id %s not surfaced in the export log", job.ID)
	}

	frames := f.proc.Job.Frames()
	if len(frames) != 30 {
		t.Fatalf("encoder received %d frames, want 30", len(frames))
	}
	// The mock engine encodes the frame index in the first pixel, and RGBA
	// passthrough keeps it in the first payload byte.
	for i, data := range frames {
		if int(data[0]) != i {
			t.Fatalf("frame %d carries index %d", i, data[0])
		}
	}
	if job.FramesWritten != 30 {
		t.Errorf("frames written = %d, want 30", job.FramesWritten)
	}

	if got := f.countEvents("progress"); got != 30 {
		t.Errorf("progress events = %d, want 30", got)
	}
	if f.lastEvent() != "completed:/out/test.mkv" {
		t.Errorf("last event = %q, want completion", f.lastEvent())
	}
	if !f.engine.Closed {
		t.Error("engine not closed after export")
	}
}

func TestExportWriteFailure(t *testing.T) {
	f := newExportFixture()
	defer f.orch.Close()
	f.proc.Job = mocks.NewEncoderJob()
	f.proc.Job.FailAfter = 3
	f.proc.Job.FailErr = errors.New("pipe gone")

	job, err := f.orch.Export(context.Background(), ExportInput{
		Settings:    exportSettings(),
		DurationSec: 1.0,
	})
	if err == nil {
		t.Fatal("Export succeeded despite write failures")
	}
	if job.State != ports.JobFailed {
		t.Errorf("job state = %v, want failed", job.State)
	}
	if f.lastEvent() != "failed" {
		t.Errorf("last event = %q, want failed", f.lastEvent())
	}
	f.mu.Lock()
	failErr := f.failErr
	f.mu.Unlock()
	if failErr == nil {
		t.Error("OnFailed not given the error")
	}
}

func TestExportCancelled(t *testing.T) {
	f := newExportFixture()
	defer f.orch.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.engine.InitializeFunc = func(w, h int) error { return nil }
	var once sync.Once
	f.source.SceneAtFunc = func(timeSec float64) (ports.SceneState, error) {
		if timeSec > 0.1 {
			once.Do(cancel)
		}
		return ports.SceneState{}, nil
	}

	job, err := f.orch.Export(ctx, ExportInput{
		Settings:    exportSettings(),
		DurationSec: 2.0,
	})
	if !errors.Is(err, ErrExportCancelled) {
		t.Fatalf("Export error = %v, want ErrExportCancelled", err)
	}
	if job.State != ports.JobCancelled {
		t.Errorf("job state = %v, want cancelled", job.State)
	}
	if f.lastEvent() != "cancelled" {
		t.Errorf("last event = %q, want cancelled", f.lastEvent())
	}
	if st := f.proc.Job.State(); st != ports.JobCancelled {
		t.Errorf("encoder job state = %v, want cancelled", st)
	}
}

func TestExportRejectsMissingCodec(t *testing.T) {
	f := newExportFixture()
	defer f.orch.Close()

	settings := exportSettings()
	settings.VideoCodec = "libaom-av1"
	job, err := f.orch.Export(context.Background(), ExportInput{
		Settings:    settings,
		DurationSec: 1.0,
	})
	if err == nil {
		t.Fatal("Export accepted a codec the encoder lacks")
	}
	if job.State != ports.JobFailed {
		t.Errorf("job state = %v, want failed", job.State)
	}
	if f.proc.StartCalled {
		t.Error("encoder started despite failed codec check")
	}
}

func TestExportToleratesCapabilityProbeFailure(t *testing.T) {
	f := newExportFixture()
	defer f.orch.Close()
	f.proc.CapabilitiesFunc = func(ctx context.Context) (ports.EncoderCapabilities, error) {
		return ports.EncoderCapabilities{}, errors.New("ffmpeg not found")
	}

	job, err := f.orch.Export(context.Background(), ExportInput{
		Settings:    exportSettings(),
		DurationSec: 0.5,
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if job.State != ports.JobCompleted {
		t.Errorf("job state = %v, want completed", job.State)
	}
	if !f.logger.HasMessage("Cannot probe encoder capabilities") {
		t.Error("probe failure not logged")
	}
}

func TestExportSavesDebugArtifacts(t *testing.T) {
	f := newExportFixture()
	defer f.orch.Close()
	f.source.SceneAtFunc = func(timeSec float64) (ports.SceneState, error) {
		return ports.SceneState{
			Lines: []ports.LineState{{
				Words:    []ports.WordState{{Text: "la", Progress: 0.5}},
				StartSec: 0,
				EndSec:   1,
			}},
		}, nil
	}

	if _, err := f.orch.Export(context.Background(), ExportInput{
		Settings:    exportSettings(),
		DurationSec: 0.2,
	}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if len(f.sink.Raw) != 6 {
		t.Errorf("raw frames saved = %d, want 6", len(f.sink.Raw))
	}
	snap, ok := f.sink.SceneJSON[0]
	if !ok {
		t.Fatal("scene snapshot for frame 0 missing")
	}
	if len(snap) == 0 {
		t.Error("scene snapshot empty")
	}
}

func TestPreviewSeekRendersWhilePaused(t *testing.T) {
	f := newExportFixture()
	defer f.orch.Close()

	frames := make(chan previewFrame, 16)
	p, err := f.orch.NewPreview(context.Background(), PreviewOptions{
		Width: 4, Height: 4, FPS: 30, DurationSec: 2,
		OnFrame: collectFrames(frames),
	})
	if err != nil {
		t.Fatalf("NewPreview failed: %v", err)
	}
	defer p.Close()

	if err := p.Seek(1.0); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	fr := waitFrame(t, frames)
	if fr.timeSec != 1.0 {
		t.Errorf("seek rendered t=%v, want 1.0", fr.timeSec)
	}
	if p.Playing() {
		t.Error("seek must not start playback")
	}
}

func TestPreviewPlayAdvances(t *testing.T) {
	f := newExportFixture()
	defer f.orch.Close()

	frames := make(chan previewFrame, 64)
	p, err := f.orch.NewPreview(context.Background(), PreviewOptions{
		Width: 4, Height: 4, FPS: 100, DurationSec: 10,
		OnFrame: collectFrames(frames),
	})
	if err != nil {
		t.Fatalf("NewPreview failed: %v", err)
	}
	defer p.Close()

	if err := p.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	first := waitFrame(t, frames)
	var last previewFrame
	for i := 0; i < 5; i++ {
		last = waitFrame(t, frames)
	}
	if last.timeSec <= first.timeSec {
		t.Errorf("playhead did not advance: %v -> %v", first.timeSec, last.timeSec)
	}
	if err := p.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if p.Position() <= 0 {
		t.Error("position still zero after playback")
	}
}

func TestPreviewStopsAtDuration(t *testing.T) {
	f := newExportFixture()
	defer f.orch.Close()

	frames := make(chan previewFrame, 64)
	p, err := f.orch.NewPreview(context.Background(), PreviewOptions{
		Width: 4, Height: 4, FPS: 100, DurationSec: 0.05,
		OnFrame: collectFrames(frames),
	})
	if err != nil {
		t.Fatalf("NewPreview failed: %v", err)
	}
	defer p.Close()

	if err := p.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	deadline := time.After(2 * time.Second)
	for p.Playing() {
		select {
		case <-deadline:
			t.Fatal("preview did not stop at duration")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if got := p.Position(); got != 0.05 {
		t.Errorf("position = %v, want clamped to 0.05", got)
	}
}

func TestPreviewCloseReleasesEngine(t *testing.T) {
	f := newExportFixture()
	defer f.orch.Close()

	p, err := f.orch.NewPreview(context.Background(), PreviewOptions{
		Width: 4, Height: 4, FPS: 30,
	})
	if err != nil {
		t.Fatalf("NewPreview failed: %v", err)
	}
	p.Close()
	p.Close() // idempotent

	if !f.engine.Closed {
		t.Error("engine not closed")
	}
	if err := p.Play(); !errors.Is(err, ErrPreviewClosed) {
		t.Errorf("Play after close = %v, want ErrPreviewClosed", err)
	}
	if err := p.Seek(1); !errors.Is(err, ErrPreviewClosed) {
		t.Errorf("Seek after close = %v, want ErrPreviewClosed", err)
	}
}

type previewFrame struct {
	index   int
	timeSec float64
	pix0    byte
}

func collectFrames(ch chan previewFrame) func(img *image.RGBA, ts timeline.FrameTimestamp) {
	return func(img *image.RGBA, ts timeline.FrameTimestamp) {
		select {
		case ch <- previewFrame{index: ts.Index, timeSec: ts.TimeSeconds, pix0: img.Pix[0]}:
		default:
		}
	}
}

func waitFrame(t *testing.T, ch chan previewFrame) previewFrame {
	t.Helper()
	select {
	case fr := <-ch:
		return fr
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for preview frame")
		return previewFrame{}
	}
}
