package eyesim

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/google/uuid"

	"github.com/teslashibe/eyesim/internal/log"
	"github.com/teslashibe/eyesim/pkg/control"
	"github.com/teslashibe/eyesim/pkg/debug"
	"github.com/teslashibe/eyesim/pkg/detection"
	"github.com/teslashibe/eyesim/pkg/eye"
	"github.com/teslashibe/eyesim/pkg/pipeline"
	"github.com/teslashibe/eyesim/pkg/video"
	"github.com/teslashibe/eyesim/pkg/web"
)

// ErrSourceUnavailable is returned by Init when the input video cannot be used.
var ErrSourceUnavailable = video.ErrSourceUnavailable

// App owns every component and their lifecycle.
type App struct {
	config  Config
	session string
	log     *slog.Logger

	source   *video.FileSource
	detector detection.Detector
	output   *video.FileSink
	window   *video.WindowSink
	preview  *web.PreviewSink
	control  *control.State
	server   *web.Server
	loop     *pipeline.Loop
}

// New applies environment overrides, validates cfg and sets up logging.
func New(cfg Config) (*App, error) {
	cfg.LoadEnvConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Debug
	debug.Frames = cfg.DebugFrames
	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	log.Init(level)

	session := uuid.NewString()
	return &App{
		config:  cfg,
		session: session,
		log:     log.Component("app").With("session", session),
	}, nil
}

// Session returns the id of this run.
func (a *App) Session() string { return a.session }

// Canvas returns the configured output size.
func (a *App) Canvas() image.Point {
	return image.Pt(a.config.Width, a.config.Height)
}

// Init opens the source first so a missing video fails before any window,
// file or server is created. Call after New and before Run.
func (a *App) Init() (err error) {
	a.log.Info("starting eye simulation", "video", a.config.VideoPath, "output", a.config.OutputPath)
	if debug.Enabled {
		a.log.Debug("debug mode enabled")
	}

	a.source, err = video.OpenSource(a.config.VideoPath)
	if err != nil {
		return err
	}
	a.log.Info("video opened", "size", a.source.Size(), "fps", a.source.FPS())

	defer func() {
		if err != nil {
			a.releasePartial()
		}
	}()

	if a.detector, err = a.openDetector(); err != nil {
		return fmt.Errorf("detector: %w", err)
	}

	canvas := a.Canvas()
	if a.output, err = video.CreateFileSink(a.config.OutputPath, a.config.Codec, a.source.FPS(), canvas); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	a.control = control.New(eye.DefaultPalette())

	var sinks []pipeline.Sink
	var quit []pipeline.QuitSignal
	if !a.config.NoWindow {
		a.window = video.NewWindowSink(video.DefaultWindowTitle)
		sinks = append(sinks, a.window)
		quit = append(quit, a.window)
	}
	if !a.config.NoWeb {
		a.server = web.NewServer(":"+a.config.Port, a.session, a.control)
		a.preview = web.NewPreviewSink(a.server.PreviewHub())
		sinks = append(sinks, a.preview)
	}
	sinks = append(sinks, a.output)

	policy, _ := eye.ParsePolicy(a.config.Policy)
	a.loop, err = pipeline.New(pipeline.Config{
		Canvas:             canvas,
		Policy:             policy,
		SmoothingFactor:    a.config.SmoothingFactor,
		SkipDetectorErrors: a.config.SkipDetectorErrors,
	}, pipeline.Deps{
		Source:   a.source,
		Detector: a.detector,
		Control:  a.control,
		Sinks:    sinks,
		Quit:     quit,
	})
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if a.server != nil {
		a.server.StatsFunc = a.loop.Stats
	}
	return nil
}

func (a *App) openDetector() (detection.Detector, error) {
	if a.config.ReplayPath != "" {
		a.log.Info("replaying detections", "path", a.config.ReplayPath)
		return detection.OpenReplay(a.config.ReplayPath)
	}
	cfg := detection.DefaultYOLOConfig()
	cfg.ModelPath = a.config.ModelPath
	cfg.ConfidenceThresh = float32(a.config.ConfThreshold)
	a.log.Info("loading detector", "model", cfg.ModelPath, "conf", cfg.ConfidenceThresh)
	return detection.NewYOLO(cfg)
}

// releasePartial undoes a failed Init. Once the loop exists it owns the
// source and sinks.
func (a *App) releasePartial() {
	var errs []error
	if a.source != nil {
		errs = append(errs, a.source.Close())
	}
	if a.output != nil {
		errs = append(errs, a.output.Close())
	}
	if a.window != nil {
		errs = append(errs, a.window.Close())
	}
	if a.detector != nil {
		errs = append(errs, a.detector.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.log.Warn("cleanup after failed init", "error", err)
	}
	a.source, a.output, a.window, a.detector = nil, nil, nil, nil
}

// Run starts the control surface in the background and runs the frame loop on
// the calling goroutine until the video ends, the user quits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a.loop == nil {
		return errors.New("eyesim: Run called before Init")
	}
	if a.server != nil {
		a.server.StartAsync()
	}
	a.log.Info("running", "press", "q in the preview window or Ctrl+C to exit")

	err := a.loop.Run(ctx)
	if a.output != nil {
		a.log.Info("output written", "path", a.config.OutputPath, "frames", a.output.Frames())
	}
	return err
}

// Stats returns the frame loop counters.
func (a *App) Stats() pipeline.Stats {
	if a.loop == nil {
		return pipeline.Stats{State: pipeline.Idle.String()}
	}
	return a.loop.Stats()
}

// Control returns the shared color and tracking state.
func (a *App) Control() *control.State { return a.control }

// Shutdown releases everything. Control surface errors are logged, not returned.
func (a *App) Shutdown() {
	if a.server != nil {
		if err := a.server.Shutdown(); err != nil {
			a.log.Warn("control surface shutdown", "error", err)
		}
	}
	if a.loop != nil {
		a.loop.Close()
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			a.log.Warn("detector close", "error", err)
		}
	}
	a.log.Info("goodbye")
}
