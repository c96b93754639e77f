// Package pipeline runs the frame loop: read a source frame, detect eye parts,
// map them into the canvas, render, and hand the result to every sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"

	"github.com/teslashibe/eyesim/internal/log"
	"github.com/teslashibe/eyesim/pkg/control"
	"github.com/teslashibe/eyesim/pkg/debug"
	"github.com/teslashibe/eyesim/pkg/detection"
	"github.com/teslashibe/eyesim/pkg/eye"
	"github.com/teslashibe/eyesim/pkg/render"
)

// Source produces frames of a fixed size.
type Source interface {
	// Read decodes the next frame into dst and reports success.
	// false means end of stream or a read error.
	Read(dst *gocv.Mat) bool
	Size() image.Point
	Close() error
}

// Sink consumes rendered canvases.
type Sink interface {
	Write(frame gocv.Mat) error
	Close() error
}

// QuitSignal is polled once per iteration and must not block.
type QuitSignal interface {
	QuitRequested() bool
}

// QuitFunc adapts a function to QuitSignal.
type QuitFunc func() bool

// QuitRequested calls f.
func (f QuitFunc) QuitRequested() bool { return f() }

// Deps are the collaborators of a Loop.
type Deps struct {
	Source   Source
	Detector detection.Detector
	Control  *control.State
	Sinks    []Sink
	Quit     []QuitSignal
}

// Loop is the frame loop. It owns the source and sinks and closes them when
// it stops.
type Loop struct {
	config   Config
	source   Source
	srcSize  image.Point
	detector detection.Detector
	control  *control.State
	renderer *render.Renderer
	smoother *eye.Smoother
	sinks    []Sink
	quit     []QuitSignal
	log      *slog.Logger

	canvas gocv.Mat
	state  atomic.Int32
	stats  counters

	releaseOnce sync.Once
}

// New validates the dependencies and builds a loop.
func New(cfg Config, deps Deps) (*Loop, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("%w: no source", ErrSourceUnavailable)
	}
	size := deps.Source.Size()
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("%w: frame size %dx%d", ErrSourceUnavailable, size.X, size.Y)
	}
	if deps.Detector == nil {
		return nil, errors.New("pipeline: detector is required")
	}
	if deps.Control == nil {
		return nil, errors.New("pipeline: control state is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Loop{
		config:   cfg,
		source:   deps.Source,
		srcSize:  size,
		detector: deps.Detector,
		control:  deps.Control,
		renderer: render.New(cfg.Canvas),
		sinks:    deps.Sinks,
		quit:     deps.Quit,
		log:      log.Component("pipeline"),
		canvas:   gocv.NewMat(),
	}
	if cfg.SmoothingFactor > 0 {
		l.smoother = eye.NewSmoother(cfg.SmoothingFactor)
	}
	return l, nil
}

// Run processes frames until the source is exhausted, a quit signal fires,
// ctx is cancelled, or a detector or sink fails. End of stream and quit return
// nil. The source and sinks are closed before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	if !l.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return ErrAlreadyStarted
	}
	defer l.stop()

	l.log.Info("frame loop started",
		"source", fmt.Sprintf("%dx%d", l.srcSize.X, l.srcSize.Y),
		"canvas", fmt.Sprintf("%dx%d", l.config.Canvas.X, l.config.Canvas.Y),
		"policy", l.config.Policy.String(),
		"smoothing", l.config.SmoothingFactor,
		"sinks", len(l.sinks))

	frame := gocv.NewMat()
	defer frame.Close()

	for {
		if !l.source.Read(&frame) {
			l.log.Info("end of video reached or read error", "frames", l.stats.read.Load())
			return nil
		}
		n := l.stats.read.Add(1)

		if l.control.TrackingEnabled() {
			if err := l.processFrame(n, frame); err != nil {
				l.log.Error("frame loop failed", "frame", n, "error", err)
				return err
			}
		} else {
			l.stats.paused.Add(1)
			if l.smoother != nil {
				l.smoother.Reset()
			}
		}

		if l.quitRequested(ctx) {
			l.log.Info("quit requested", "frame", n)
			return nil
		}
	}
}

// processFrame runs detect → build → render → emit for one frame.
func (l *Loop) processFrame(n uint64, frame gocv.Mat) error {
	dets, err := l.detector.Detect(frame)
	if err != nil {
		l.stats.detectorErrors.Add(1)
		if l.config.SkipDetectorErrors {
			l.log.Warn("detector failed, skipping frame", "frame", n, "error", err)
			return nil
		}
		return fmt.Errorf("%w: frame %d: %w", ErrDetector, n, err)
	}

	comps := eye.Build(dets, l.srcSize, l.config.Canvas, l.config.Policy)
	if l.smoother != nil {
		comps = l.smoother.Apply(comps)
	}
	l.stats.lastDetected.Store(int32(comps.DetectedCount()))

	if debug.Frames {
		counts := detection.Count(dets)
		debug.FrameLog("🎯 frame %d: %d detection(s) (sclera=%d iris=%d pupil=%d) sclera=%v iris=%v pupil=%v\n",
			n, len(dets), counts[eye.Sclera], counts[eye.Iris], counts[eye.Pupil],
			comps.Sclera, comps.Iris, comps.Pupil)
	}

	l.renderer.RenderInto(&l.canvas, comps, l.control.Palette())

	for i, s := range l.sinks {
		if err := s.Write(l.canvas); err != nil {
			return fmt.Errorf("%w: sink %d frame %d: %w", ErrSink, i, n, err)
		}
	}
	l.stats.processed.Add(1)
	return nil
}

func (l *Loop) quitRequested(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	for _, q := range l.quit {
		if q.QuitRequested() {
			return true
		}
	}
	return false
}

func (l *Loop) stop() {
	l.state.Store(int32(Stopped))
	l.release()
	s := l.Stats()
	l.log.Info("frame loop stopped",
		"read", s.FramesRead, "processed", s.FramesProcessed, "paused", s.FramesPaused)
}

// release closes the source, every sink and the canvas exactly once.
func (l *Loop) release() {
	l.releaseOnce.Do(func() {
		var errs []error
		if err := l.source.Close(); err != nil {
			errs = append(errs, fmt.Errorf("source: %w", err))
		}
		for i, s := range l.sinks {
			if err := s.Close(); err != nil {
				errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
			}
		}
		l.canvas.Close()
		if err := errors.Join(errs...); err != nil {
			l.log.Warn("release failed", "error", err)
		}
	})
}

// Close releases resources of a loop that was never run.
func (l *Loop) Close() {
	if l.state.CompareAndSwap(int32(Idle), int32(Stopped)) {
		l.release()
	}
}

// State returns the current loop state.
func (l *Loop) State() State {
	return State(l.state.Load())
}
