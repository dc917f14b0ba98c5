// Package main provides the CLI entry point for the karaoke video
// renderer.
package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/vietthanhnv/create-karaoke-video/pkg/adapters/ffmpegenc"
	"github.com/vietthanhnv/create-karaoke-video/pkg/adapters/filesink"
	"github.com/vietthanhnv/create-karaoke-video/pkg/adapters/ggrender"
	"github.com/vietthanhnv/create-karaoke-video/pkg/adapters/logger"
	"github.com/vietthanhnv/create-karaoke-video/pkg/adapters/nullsink"
	"github.com/vietthanhnv/create-karaoke-video/pkg/adapters/osfilesystem"
	"github.com/vietthanhnv/create-karaoke-video/pkg/config"
	"github.com/vietthanhnv/create-karaoke-video/pkg/orchestrator"
	"github.com/vietthanhnv/create-karaoke-video/pkg/pipeline"
	"github.com/vietthanhnv/create-karaoke-video/pkg/ports"
	"github.com/vietthanhnv/create-karaoke-video/pkg/scene"
	"github.com/vietthanhnv/create-karaoke-video/pkg/timeline"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "karaoke",
		Usage:   "Render karaoke lyric videos with word-accurate highlighting.",
		Version: version,
		Commands: []*cli.Command{
			exportCommand(),
			previewCommand(),
			probeCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		if errors.Is(err, orchestrator.ErrExportCancelled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Usage:    "Project YAML file with cues, styling and encoding settings.",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "Log level (debug, info, warn, error, quiet).",
		},
		&cli.StringFlag{
			Name:  "ffmpeg-path",
			Usage: "Path to the ffmpeg binary (falls back to FFMPEG_PATH env, then $PATH).",
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Render the project and encode it to a video file.",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (overrides the config).",
			},
			&cli.Float64Flag{
				Name:  "duration",
				Usage: "Override the timeline duration in seconds.",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Save per-frame debug artifacts.",
			},
			&cli.StringFlag{
				Name:  "debug-dir",
				Usage: "Directory for debug output.",
			},
		),
		Action: runExport,
	}
}

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Play the project offline, saving frames as PNG files.",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:  "out-dir",
				Value: "./preview",
				Usage: "Directory preview frames are written to.",
			},
			&cli.Float64Flag{
				Name:  "fps",
				Value: 10,
				Usage: "Preview frame rate.",
			},
			&cli.Float64Flag{
				Name:  "start",
				Usage: "Start position in seconds.",
			},
		),
		Action: runPreview,
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: "Show the ffmpeg build's encoders, formats and accelerators.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "ffmpeg-path",
				Usage: "Path to the ffmpeg binary.",
			},
		},
		Action: runProbe,
	}
}

func loadProject(c *cli.Context) (config.Config, ports.Logger, error) {
	log := newLogger(c.String("log-level"))

	cfg, err := config.LoadFromFile(c.String("config"))
	if err != nil {
		log.Error(l10n.F("Failed to load config: %s", err))
		return cfg, log, err
	}
	if path := c.String("ffmpeg-path"); path != "" {
		cfg.FFmpegPath = path
	}
	if cfg.FFmpegPath != "" {
		ffmpegenc.SetFFmpegPath(cfg.FFmpegPath)
	}
	return cfg, log, nil
}

func newLogger(level string) ports.Logger {
	if level == "quiet" {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(level))
}

func runExport(c *cli.Context) error {
	cfg, log, err := loadProject(c)
	if err != nil {
		return err
	}
	if out := c.String("output"); out != "" {
		cfg.OutputPath = out
	}
	if d := c.Float64("duration"); d > 0 {
		cfg.DurationSec = d
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}
	if dir := c.String("debug-dir"); dir != "" {
		cfg.DebugDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn(l10n.T("Interrupted, shutting down..."))
		cancel()
	}()

	fs := osfilesystem.New()

	src, err := buildScene(cfg)
	if err != nil {
		return err
	}
	engine := buildEngine(cfg)

	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs)
	} else {
		sink = nullsink.New()
	}

	progress := newProgressPrinter()
	orch := orchestrator.New(engine, src, ffmpegenc.NewProcessor(log), fs, sink, log, pipeline.Events{
		OnProgress:  progress.update,
		OnCompleted: func(string) { progress.finish() },
		OnFailed:    func(error) { progress.finish() },
		OnCancelled: progress.finish,
	})
	defer orch.Close()

	_, err = orch.Export(ctx, orchestrator.ExportInput{
		Settings:       cfg.EncoderSettings(),
		DurationSec:    cfg.Duration(),
		AudioOffsetSec: cfg.AudioOffsetSec,
		QueueSize:      cfg.QueueSize,
	})
	return err
}

func runPreview(c *cli.Context) error {
	cfg, log, err := loadProject(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	outDir := c.String("out-dir")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	src, err := buildScene(cfg)
	if err != nil {
		return err
	}
	engine := buildEngine(cfg)

	fps := c.Float64("fps")
	log.Info(l10n.F("Previewing %s at %.2f fps", c.String("config"), fps))

	// The encoder is never started in preview mode; the processor only
	// satisfies the orchestrator's wiring.
	orch := orchestrator.New(engine, src, ffmpegenc.NewProcessor(log), osfilesystem.New(), nullsink.New(), log, pipeline.Events{})
	defer orch.Close()

	done := make(chan struct{})
	var saveErr error
	p, err := orch.NewPreview(ctx, orchestrator.PreviewOptions{
		Width:       cfg.Width,
		Height:      cfg.Height,
		FPS:         fps,
		DurationSec: cfg.Duration(),
		OnFrame: func(img *image.RGBA, ts timeline.FrameTimestamp) {
			if saveErr != nil {
				return
			}
			saveErr = savePNG(outDir, ts.Index, img)
		},
	})
	if err != nil {
		return err
	}
	defer p.Close()

	if start := c.Float64("start"); start > 0 {
		if err := p.Seek(start); err != nil {
			return err
		}
	}
	if err := p.Play(); err != nil {
		return err
	}

	// Wait until playback reaches the end or the user interrupts.
	go func() {
		defer close(done)
		for p.Playing() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(50 * time.Millisecond):
			}
		}
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	p.Close()

	log.Info(l10n.T("Preview closed"))
	return saveErr
}

func runProbe(c *cli.Context) error {
	log := newLogger("info")
	if path := c.String("ffmpeg-path"); path != "" {
		ffmpegenc.SetFFmpegPath(path)
	}

	caps, err := ffmpegenc.NewProcessor(log).Capabilities(context.Background())
	if err != nil {
		return errors.New(l10n.F("ffmpeg not found: %s", err))
	}

	fmt.Println(l10n.F("ffmpeg %s", caps.Version))
	fmt.Println(l10n.F("Video codecs: %s", strings.Join(caps.VideoCodecs, ", ")))
	fmt.Println(l10n.F("Audio codecs: %s", strings.Join(caps.AudioCodecs, ", ")))
	fmt.Println(l10n.F("Output formats: %s", strings.Join(caps.Formats, ", ")))
	if len(caps.HWAccels) > 0 {
		fmt.Println(l10n.F("HW accelerators: %s", strings.Join(caps.HWAccels, ", ")))
	}
	return nil
}

// buildScene assembles the scene source from the configuration: backdrop,
// cue list and effect chain.
func buildScene(cfg config.Config) (*scene.Source, error) {
	bg := ports.Background{Color: cfg.BackgroundColor()}
	if path := cfg.Background.ImagePath; path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.New(l10n.F("Failed to open image: %s", err))
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, errors.New(l10n.F("Failed to open image: %s", err))
		}
		bg.Image = img
	}

	chain, err := cfg.EffectChain()
	if err != nil {
		return nil, err
	}
	return scene.NewSource(bg, cfg.SubtitleCues(), chain)
}

func buildEngine(cfg config.Config) *ggrender.Engine {
	return ggrender.New(ggrender.Options{
		FontPath:       cfg.Font.Path,
		FontSize:       cfg.Font.Size,
		BaseColor:      config.ParseColor(cfg.Font.Color),
		HighlightColor: config.ParseColor(cfg.Font.HighlightColor),
		LineSpacing:    cfg.Font.LineSpacing,
		BottomMargin:   cfg.Font.BottomMargin,
	})
}

func savePNG(dir string, index int, img *image.RGBA) error {
	f, err := os.Create(fmt.Sprintf("%s/frame-%06d.png", dir, index))
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// progressPrinter renders a single-line progress readout on a terminal
// and stays silent when output is redirected.
type progressPrinter struct {
	tty bool
}

func newProgressPrinter() *progressPrinter {
	return &progressPrinter{tty: isatty.IsTerminal(os.Stderr.Fd())}
}

func (p *progressPrinter) update(ev pipeline.ProgressEvent) {
	if !p.tty {
		return
	}
	fmt.Fprintf(os.Stderr, "\r%3.0f%% (%d/%d frames), ETA %.0fs ",
		ev.Fraction*100, ev.FramesDone, ev.TotalFrames, ev.EstimatedSecRemaining)
}

func (p *progressPrinter) finish() {
	if p.tty {
		fmt.Fprintln(os.Stderr)
	}
}
