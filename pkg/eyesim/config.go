// Package eyesim wires the frame source, detector, renderer, sinks and
// control surface into one application.
package eyesim

import (
	"fmt"

	"github.com/teslashibe/eyesim/internal/config"
	"github.com/teslashibe/eyesim/pkg/eye"
	"github.com/teslashibe/eyesim/pkg/video"
)

// Config holds all configuration for the application.
// Flag parsing is done in cmd/eyesim/main.go; this struct is data only.
type Config struct {
	Debug       bool
	DebugFrames bool // per-frame detection dumps
	LogLevel    string

	// Inputs. ReplayPath, when set, replaces the model with recorded detections.
	VideoPath     string
	ModelPath     string
	ReplayPath    string
	ConfThreshold float64

	// Output video.
	OutputPath string
	Codec      string

	// Canvas size of the rendered eye.
	Width  int
	Height int

	// Frame loop behaviour.
	Policy             string // "last" or "confidence"
	SmoothingFactor    float64
	SkipDetectorErrors bool

	// Control surface and preview window.
	Port     string
	NoWeb    bool
	NoWindow bool

	// Explicit names the command-line flags the user set. Environment
	// overrides never replace those, even when the value equals the default.
	Explicit map[string]bool
}

// DefaultConfig returns the stock 1920x1080 setup reading vid1.mp4.
func DefaultConfig() Config {
	return Config{
		LogLevel:      config.DefaultLogLevel,
		VideoPath:     config.DefaultVideoPath,
		ModelPath:     config.DefaultModelPath,
		ConfThreshold: 0.25,
		OutputPath:    config.DefaultOutputPath,
		Codec:         video.DefaultCodec,
		Width:         eye.Canvas.X,
		Height:        eye.Canvas.Y,
		Policy:        eye.LastWins.String(),
		Port:          config.DefaultPort,
	}
}

// LoadEnvConfig applies EYESIM_* environment overrides. A field is left alone
// when its flag is in Explicit or it no longer holds its default.
func (c *Config) LoadEnvConfig() {
	if c.fromEnv("video", c.VideoPath == config.DefaultVideoPath) {
		c.VideoPath = config.VideoPath()
	}
	if c.fromEnv("model", c.ModelPath == config.DefaultModelPath) {
		c.ModelPath = config.ModelPath()
	}
	if c.fromEnv("replay", c.ReplayPath == "") {
		c.ReplayPath = config.String(config.EnvReplay, "")
	}
	if c.fromEnv("output", c.OutputPath == config.DefaultOutputPath) {
		c.OutputPath = config.OutputPath()
	}
	if c.fromEnv("port", c.Port == config.DefaultPort) {
		c.Port = config.Port()
	}
	if c.fromEnv("log-level", c.LogLevel == config.DefaultLogLevel) {
		c.LogLevel = config.LogLevel()
	}
	if c.fromEnv("no-window", !c.NoWindow) {
		c.NoWindow = config.Bool(config.EnvNoWindow, false)
	}
}

func (c *Config) fromEnv(flagName string, isDefault bool) bool {
	return isDefault && !c.Explicit[flagName]
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch {
	case c.VideoPath == "":
		return &ConfigError{Field: "VideoPath", Message: "input video is required"}
	case c.ReplayPath == "" && c.ModelPath == "":
		return &ConfigError{Field: "ModelPath", Message: "either a model or a replay file is required"}
	case c.OutputPath == "":
		return &ConfigError{Field: "OutputPath", Message: "output video path is required"}
	case c.Width <= 0 || c.Height <= 0:
		return &ConfigError{Field: "Width", Message: fmt.Sprintf("canvas must be positive, got %dx%d", c.Width, c.Height)}
	case c.SmoothingFactor < 0 || c.SmoothingFactor > 1:
		return &ConfigError{Field: "SmoothingFactor", Message: fmt.Sprintf("smoothing must be in [0, 1], got %v", c.SmoothingFactor)}
	case c.ConfThreshold <= 0 || c.ConfThreshold > 1:
		return &ConfigError{Field: "ConfThreshold", Message: fmt.Sprintf("confidence threshold must be in (0, 1], got %v", c.ConfThreshold)}
	case !c.NoWeb && c.Port == "":
		return &ConfigError{Field: "Port", Message: "port is required unless the control surface is disabled"}
	}
	if _, err := eye.ParsePolicy(c.Policy); err != nil {
		return &ConfigError{Field: "Policy", Message: err.Error()}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
