package pipeline

import (
	"fmt"
	"image"

	"github.com/teslashibe/eyesim/pkg/eye"
)

// Config holds the frame loop parameters.
type Config struct {
	Canvas image.Point // Canonical output size
	Policy eye.Policy  // Duplicate same-part detection reduction

	// SmoothingFactor enables exponential smoothing of detected poses when > 0.
	// Zero keeps every frame independent.
	SmoothingFactor float64

	// SkipDetectorErrors logs and drops frames the detector fails on instead of
	// stopping the loop. This changes the output frame count.
	SkipDetectorErrors bool
}

// DefaultConfig returns a 1920x1080 canvas, last-wins reduction, no smoothing
// and fail-fast detector errors.
func DefaultConfig() Config {
	return Config{
		Canvas: eye.Canvas,
		Policy: eye.LastWins,
	}
}

// Validate checks the canvas and smoothing factor.
func (c Config) Validate() error {
	if c.Canvas.X <= 0 || c.Canvas.Y <= 0 {
		return fmt.Errorf("pipeline: canvas must be positive, got %dx%d", c.Canvas.X, c.Canvas.Y)
	}
	if c.SmoothingFactor < 0 || c.SmoothingFactor > 1 {
		return fmt.Errorf("pipeline: smoothing factor must be in [0, 1], got %v", c.SmoothingFactor)
	}
	return nil
}
