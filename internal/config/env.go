// Package config provides environment helpers for eyesim commands.
package config

import (
	"os"
	"strconv"
)

// Default locations and ports.
const (
	DefaultVideoPath  = "vid1.mp4"
	DefaultModelPath  = "models/eye-seg.onnx"
	DefaultOutputPath = "combined_output.mp4"
	DefaultPort       = "8181"
	DefaultLogLevel   = "info"
)

// Environment variable names.
const (
	EnvVideo    = "EYESIM_VIDEO"
	EnvModel    = "EYESIM_MODEL"
	EnvReplay   = "EYESIM_REPLAY"
	EnvOutput   = "EYESIM_OUTPUT"
	EnvPort     = "EYESIM_PORT"
	EnvLogLevel = "EYESIM_LOG_LEVEL"
	EnvNoWindow = "EYESIM_NO_WINDOW"
)

// String returns the value of key, or def if unset or empty.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Bool returns the boolean value of key, or def if unset or unparsable.
func Bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// VideoPath returns the input video from EYESIM_VIDEO.
func VideoPath() string {
	return String(EnvVideo, DefaultVideoPath)
}

// ModelPath returns the detector model from EYESIM_MODEL.
func ModelPath() string {
	return String(EnvModel, DefaultModelPath)
}

// OutputPath returns the output video path from EYESIM_OUTPUT.
func OutputPath() string {
	return String(EnvOutput, DefaultOutputPath)
}

// Port returns the control surface port from EYESIM_PORT.
func Port() string {
	return String(EnvPort, DefaultPort)
}

// LogLevel returns the log level from EYESIM_LOG_LEVEL.
func LogLevel() string {
	return String(EnvLogLevel, DefaultLogLevel)
}
