package ffmpegenc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
)

const (
	// writeChunkSize buffers stdin writes so each frame goes out in a
	// few large syscalls instead of one per row.
	writeChunkSize = 1 << 20

	// maxConsecutiveWriteFailures kills the process after this many
	// frame writes fail in a row without a single success between them.
	maxConsecutiveWriteFailures = 5

	// terminateTimeout is how long Cancel waits after the polite
	// termination request before force-killing.
	terminateTimeout = 5 * time.Second
)

// Processor implements ports.EncoderProcessor on an external ffmpeg
// binary.
type Processor struct {
	logger ports.Logger

	mu   sync.Mutex
	caps *ports.EncoderCapabilities
	path string
}

// NewProcessor creates a processor. The binary is located lazily on the
// first Capabilities or Start call.
func NewProcessor(logger ports.Logger) *Processor {
	return &Processor{logger: logger.WithComponent("ffmpeg")}
}

func (p *Processor) resolvePath() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.path != "" {
		return p.path, nil
	}
	path, err := FindFFmpeg()
	if err != nil {
		return "", err
	}
	p.path = path
	return path, nil
}

// Capabilities probes the binary once and caches the result.
func (p *Processor) Capabilities(ctx context.Context) (ports.EncoderCapabilities, error) {
	path, err := p.resolvePath()
	if err != nil {
		return ports.EncoderCapabilities{}, err
	}

	p.mu.Lock()
	cached := p.caps
	p.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}

	caps, err := probeCapabilities(ctx, path)
	if err != nil {
		return ports.EncoderCapabilities{}, fmt.Errorf("ffmpegenc: probe capabilities: %w", err)
	}

	p.mu.Lock()
	p.caps = &caps
	p.mu.Unlock()

	p.logger.Debug("ffmpeg %s: %d video codecs, %d formats",
		caps.Version, len(caps.VideoCodecs), len(caps.Formats))
	return caps, nil
}

// Start validates the settings and spawns the encoder process.
func (p *Processor) Start(ctx context.Context, settings ports.EncoderSettings, totalFrames int) (ports.EncoderJob, error) {
	if err := validateSettings(settings); err != nil {
		return nil, err
	}
	path, err := p.resolvePath()
	if err != nil {
		return nil, err
	}

	args := buildArgs(settings)
	p.logger.Debug("starting encoder: %s %v", path, args)

	cmd := exec.CommandContext(ctx, path, args...)
	return startJob(cmd, settings, totalFrames, p.logger)
}

var _ ports.EncoderProcessor = (*Processor)(nil)

// Job is one running encode. Frame writes and lifecycle calls come from
// the pipeline goroutine; the process monitor runs concurrently and owns
// the spontaneous-exit transition.
type Job struct {
	logger      ports.Logger
	settings    ports.EncoderSettings
	totalFrames int
	frameBytes  int

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	parser *progressParser

	// writeMu serializes stdin writes. It intentionally does not guard
	// stdin.Close: Cancel must be able to unblock a stalled writer.
	writeMu     sync.Mutex
	writer      *bufio.Writer
	stdinClosed bool
	failStreak  int

	mu        sync.Mutex
	state     ports.JobState
	err       error
	resolving bool // Finish or Cancel owns the terminal transition
	waitErr   error

	done chan struct{}
}

// startJob wires the pipes, starts cmd and launches the monitor. Split
// from Processor.Start so tests can substitute the subprocess.
func startJob(cmd *exec.Cmd, settings ports.EncoderSettings, totalFrames int, logger ports.Logger) (*Job, error) {
	j := &Job{
		logger:      logger,
		settings:    settings,
		totalFrames: totalFrames,
		frameBytes:  frameSize(settings),
		cmd:         cmd,
		parser:      newProgressParser(totalFrames),
		state:       ports.JobPending,
		done:        make(chan struct{}),
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpegenc: stdin pipe: %w", err)
	}
	j.stdin = stdin
	j.writer = bufio.NewWriterSize(stdin, writeChunkSize)
	cmd.Stderr = j.parser

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpegenc: start: %w", err)
	}
	j.state = ports.JobRunning

	go j.monitor()
	return j, nil
}

// monitor waits for the process and resolves spontaneous exits: an
// encoder that dies while the pipeline still owes it frames is a
// failure, whatever its exit code.
func (j *Job) monitor() {
	err := j.cmd.Wait()
	j.parser.flush()

	j.mu.Lock()
	j.waitErr = err
	if j.state == ports.JobRunning && !j.resolving {
		j.state = ports.JobFailed
		j.err = j.failure(err, "encoder exited before all frames were written")
		j.logger.Error("encoder died early: %v", j.err)
	}
	j.mu.Unlock()
	close(j.done)
}

// WriteFrame streams one frame to the encoder.
func (j *Job) WriteFrame(data []byte) error {
	if st := j.State(); st != ports.JobRunning {
		return fmt.Errorf("%w: state %s", ErrNotRunning, st)
	}
	if len(data) != j.frameBytes {
		return fmt.Errorf("%w: frame is %d bytes, expected %d", ErrInvalidSettings, len(data), j.frameBytes)
	}

	j.writeMu.Lock()
	defer j.writeMu.Unlock()
	if j.stdinClosed {
		return ErrNotRunning
	}

	if _, err := j.writer.Write(data); err != nil {
		j.failStreak++
		if j.failStreak >= maxConsecutiveWriteFailures {
			j.logger.Error("giving up after %d consecutive write failures", j.failStreak)
			_ = j.cmd.Process.Kill()
		}
		if isBrokenPipe(err) {
			return fmt.Errorf("%w: %v", ErrBrokenPipe, err)
		}
		return fmt.Errorf("ffmpegenc: write frame: %w", err)
	}
	j.failStreak = 0
	return nil
}

// closeStdin flushes the buffered writer and closes the pipe, once.
func (j *Job) closeStdin(flush bool) {
	j.writeMu.Lock()
	if j.stdinClosed {
		j.writeMu.Unlock()
		return
	}
	j.stdinClosed = true
	if flush {
		_ = j.writer.Flush()
	}
	j.writeMu.Unlock()
	_ = j.stdin.Close()
}

// Finish signals end of input and waits for the encoder to exit. Exit
// code zero is authoritative for success; a frame-count mismatch is
// logged, not fatal, since the parsed counter can lag the real one.
func (j *Job) Finish(ctx context.Context) error {
	j.mu.Lock()
	if j.state.Terminal() {
		defer j.mu.Unlock()
		return j.err
	}
	j.resolving = true
	j.mu.Unlock()

	j.closeStdin(true)

	select {
	case <-j.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.Terminal() {
		return j.err
	}
	if j.waitErr != nil {
		j.state = ports.JobFailed
		j.err = j.failure(j.waitErr, "encoding failed")
		return j.err
	}
	j.state = ports.JobCompleted
	if written := j.parser.Frame(); j.totalFrames > 0 && written != j.totalFrames {
		j.logger.Warn("encoder reported %d frames, expected %d", written, j.totalFrames)
	}
	return nil
}

// Cancel closes the input, asks the process to stop, and force-kills it
// after terminateTimeout.
func (j *Job) Cancel() error {
	j.mu.Lock()
	if j.state.Terminal() {
		j.mu.Unlock()
		return nil
	}
	j.resolving = true
	proc := j.cmd.Process
	j.mu.Unlock()

	j.closeStdin(false)

	if proc != nil {
		if err := proc.Signal(syscall.SIGTERM); err != nil {
			_ = proc.Kill()
		}
	}

	select {
	case <-j.done:
	case <-time.After(terminateTimeout):
		j.logger.Warn("encoder ignored termination request, killing")
		if proc != nil {
			_ = proc.Kill()
		}
		<-j.done
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.state.Terminal() {
		j.state = ports.JobCancelled
	}
	return nil
}

// failure builds the terminal error from the exit status and the
// diagnostic lines collected from stderr.
func (j *Job) failure(waitErr error, context string) error {
	diags := j.parser.Diagnostics()
	if summary := summarizeDiagnostics(diags); summary != "" {
		return fmt.Errorf("ffmpegenc: %s: %s (%v)", context, summary, exitStatus(waitErr))
	}
	if len(diags) > 0 {
		return fmt.Errorf("ffmpegenc: %s: %s (%v)", context, diags[len(diags)-1], exitStatus(waitErr))
	}
	return fmt.Errorf("ffmpegenc: %s: %v", context, exitStatus(waitErr))
}

func exitStatus(err error) error {
	if err == nil {
		return errors.New("exit status 0")
	}
	return err
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, io.ErrClosedPipe) || errors.Is(err, syscall.EPIPE)
}

func (j *Job) State() ports.JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *Job) Progress() ports.EncoderProgress { return j.parser.Progress() }

// FramesWritten reports the frame counter parsed from the encoder's own
// progress output, so it reflects frames the encoder consumed rather
// than bytes buffered in the pipe.
func (j *Job) FramesWritten() int { return j.parser.Frame() }

func (j *Job) Diagnostics() []string { return j.parser.Diagnostics() }

// Log returns the full captured stderr stream for debug sinks.
func (j *Job) Log() []byte { return j.parser.Log() }

func (j *Job) Done() <-chan struct{} { return j.done }

func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == ports.JobFailed {
		return j.err
	}
	return nil
}

var _ ports.EncoderJob = (*Job)(nil)
