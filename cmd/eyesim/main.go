// Eye simulation: maps sclera, iris and pupil detections from a video onto a
// rendered eye, with a live preview, an output video and a web control surface.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/eyesim/pkg/eyesim"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("❌ Invalid flags: %v", err)
	}

	app, err := eyesim.New(cfg)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if err := app.Init(); err != nil {
		if errors.Is(err, eyesim.ErrSourceUnavailable) {
			log.Printf("❌ Error opening video file: %v", err)
			os.Exit(1)
		}
		log.Fatalf("❌ Initialization failed: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Printf("❌ Runtime error: %v", err)
		app.Shutdown()
		os.Exit(1)
	}
}

// parseFlags parses command line flags and returns configuration. Flags the
// user set are recorded in cfg.Explicit so the environment cannot override them.
func parseFlags(fs *flag.FlagSet, args []string) (eyesim.Config, error) {
	cfg := eyesim.DefaultConfig()

	fs.StringVar(&cfg.VideoPath, "video", cfg.VideoPath, "Input video file or camera index (EYESIM_VIDEO)")
	fs.StringVar(&cfg.ModelPath, "model", cfg.ModelPath, "ONNX eye segmentation model (EYESIM_MODEL)")
	fs.StringVar(&cfg.ReplayPath, "replay", "", "Replay detections from a JSON-lines file instead of running the model")
	fs.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "Output video file (EYESIM_OUTPUT)")
	fs.StringVar(&cfg.Codec, "codec", cfg.Codec, "Output FourCC codec")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "Canvas width")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "Canvas height")
	fs.StringVar(&cfg.Port, "port", cfg.Port, "Control surface port (EYESIM_PORT)")
	fs.BoolVar(&cfg.NoWindow, "no-window", false, "Disable the preview window")
	fs.BoolVar(&cfg.NoWeb, "no-web", false, "Disable the web control surface")
	fs.Float64Var(&cfg.SmoothingFactor, "smoothing", 0, "Pose smoothing factor in (0, 1], 0 disables")
	fs.StringVar(&cfg.Policy, "policy", cfg.Policy, "Duplicate detection policy: last, confidence")
	fs.BoolVar(&cfg.SkipDetectorErrors, "skip-detector-errors", false, "Log and skip frames the detector fails on")
	fs.Float64Var(&cfg.ConfThreshold, "conf", cfg.ConfThreshold, "Detector confidence threshold")
	fs.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")
	fs.BoolVar(&cfg.DebugFrames, "debug-frames", false, "Print per-frame detections (very verbose)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error (EYESIM_LOG_LEVEL)")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.Explicit = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { cfg.Explicit[f.Name] = true })
	return cfg, nil
}
