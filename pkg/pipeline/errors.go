package pipeline

import (
	"errors"

	"github.com/teslashibe/eyesim/pkg/video"
)

// Sentinel errors for the pipeline package.
var (
	// ErrSourceUnavailable indicates the frame source could not be used.
	// It is the same value video sources return.
	ErrSourceUnavailable = video.ErrSourceUnavailable

	// ErrDetector indicates the detector failed on a frame.
	ErrDetector = errors.New("pipeline: detector failed")

	// ErrSink indicates a preview or output sink rejected a frame.
	ErrSink = errors.New("pipeline: sink write failed")

	// ErrAlreadyStarted indicates Run was called twice.
	ErrAlreadyStarted = errors.New("pipeline: loop already started")
)
