package ffmpegenc

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
)

// maxDiagnostics caps retained warning/error lines so a looping encoder
// cannot grow memory without bound.
const maxDiagnostics = 100

// statusFrameRe matches ffmpeg's human status line ("frame=  123 fps= 30
// ... speed=1.02x"), which interleaves with the -progress key=value
// blocks on stderr.
var (
	statusFrameRe = regexp.MustCompile(`frame=\s*(\d+)`)
	statusSpeedRe = regexp.MustCompile(`speed=\s*([\d.]+)x`)
)

// diagnosticMarkers classify a stderr line as worth keeping. Matching is
// case-insensitive.
var diagnosticMarkers = []string{
	"error",
	"failed",
	"invalid",
	"unable to",
	"cannot",
	"could not",
	"no such file",
	"permission denied",
	"unknown encoder",
	"broken pipe",
	"not divisible by 2",
	"no space left",
}

// progressParser consumes the encoder's stderr stream incrementally. It
// is an io.Writer so it can be attached directly to the subprocess;
// chunk boundaries may fall mid-line, so a partial line is buffered until
// its terminator arrives. Lines end at \n or \r (ffmpeg rewrites its
// status line with bare carriage returns).
type progressParser struct {
	mu          sync.Mutex
	partial     []byte
	cur         ports.EncoderProgress
	diags       []string
	log         bytes.Buffer
	totalFrames int
	ended       bool
}

func newProgressParser(totalFrames int) *progressParser {
	return &progressParser{totalFrames: totalFrames}
}

func (p *progressParser) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.Write(b)
	p.partial = append(p.partial, b...)
	for {
		i := bytes.IndexAny(p.partial, "\r\n")
		if i < 0 {
			break
		}
		line := string(p.partial[:i])
		p.partial = p.partial[i+1:]
		p.consumeLine(line)
	}
	return len(b), nil
}

// flush processes a trailing unterminated line after the stream closes.
func (p *progressParser) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.partial) > 0 {
		p.consumeLine(string(p.partial))
		p.partial = nil
	}
}

// consumeLine must be called with mu held.
func (p *progressParser) consumeLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	if key, value, ok := strings.Cut(line, "="); ok && !strings.Contains(key, " ") {
		if p.consumeKeyValue(strings.TrimSpace(key), strings.TrimSpace(value)) {
			return
		}
	}

	// Human status line: extract the frame counter and speed.
	if m := statusFrameRe.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			p.setFrame(n)
		}
		if m := statusSpeedRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				p.cur.Speed = v
			}
		}
		return
	}

	p.classify(line)
}

// consumeKeyValue handles one -progress key. It reports false when the
// line is not a clean key=value pair (unknown key, or a human status
// line that merely starts with "frame=") so the caller can try the other
// formats.
func (p *progressParser) consumeKeyValue(key, value string) bool {
	switch key {
	case "frame":
		n, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		p.setFrame(n)
	case "fps":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return false
		}
		p.cur.FPS = v
		p.updateETA()
	case "bitrate":
		if strings.Contains(value, " ") {
			return false
		}
		p.cur.Bitrate = value
	case "speed":
		v, err := strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64)
		if err != nil {
			return false
		}
		p.cur.Speed = v
	case "out_time":
		if strings.Contains(value, " ") {
			return false
		}
		p.cur.OutTime = value
	case "progress":
		if value == "end" {
			p.ended = true
		}
	case "out_time_us", "out_time_ms", "total_size", "dup_frames", "drop_frames", "stream_0_0_q":
		// Known keys we do not surface.
	default:
		return false
	}
	return true
}

// setFrame keeps the counter monotonic; interleaved status and progress
// lines can arrive slightly out of order.
func (p *progressParser) setFrame(n int) {
	if n > p.cur.Frame {
		p.cur.Frame = n
		p.updateETA()
	}
}

func (p *progressParser) updateETA() {
	if p.totalFrames > 0 && p.cur.FPS > 0 && p.cur.Frame < p.totalFrames {
		p.cur.ETASeconds = float64(p.totalFrames-p.cur.Frame) / p.cur.FPS
	} else {
		p.cur.ETASeconds = 0
	}
}

func (p *progressParser) classify(line string) {
	if len(p.diags) >= maxDiagnostics {
		return
	}
	lower := strings.ToLower(line)
	for _, marker := range diagnosticMarkers {
		if strings.Contains(lower, marker) {
			p.diags = append(p.diags, line)
			return
		}
	}
}

func (p *progressParser) Progress() ports.EncoderProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur
}

func (p *progressParser) Frame() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur.Frame
}

func (p *progressParser) Diagnostics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.diags))
	copy(out, p.diags)
	return out
}

// Log returns the full captured stderr stream.
func (p *progressParser) Log() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.log.Bytes()...)
}

// failureSummaries maps known stderr patterns to actionable one-liners.
// First match wins, ordered most-specific first.
var failureSummaries = []struct {
	pattern string
	summary string
}{
	{"unknown encoder", "the selected codec is not available in this ffmpeg build"},
	{"not divisible by 2", "output dimensions must be even for 4:2:0 video"},
	{"no such file or directory", "an input or output path does not exist"},
	{"permission denied", "missing permission to write the output file"},
	{"no space left", "the output disk is full"},
	{"invalid argument", "ffmpeg rejected an argument; check codec and container compatibility"},
	{"broken pipe", "ffmpeg stopped reading frames before the input ended"},
	{"conversion failed", "encoding aborted"},
}

// summarizeDiagnostics distills the retained lines into one message, or
// "" when nothing matches a known pattern.
func summarizeDiagnostics(diags []string) string {
	for _, d := range diags {
		lower := strings.ToLower(d)
		for _, fs := range failureSummaries {
			if strings.Contains(lower, fs.pattern) {
				return fs.summary
			}
		}
	}
	return ""
}
