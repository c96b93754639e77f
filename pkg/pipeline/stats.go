package pipeline

import "sync/atomic"

// State is the lifecycle state of a Loop.
type State int32

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Stats are the loop's operational counters.
type Stats struct {
	State           string `json:"state"`
	FramesRead      uint64 `json:"frames_read"`
	FramesProcessed uint64 `json:"frames_processed"`
	FramesPaused    uint64 `json:"frames_paused"`
	DetectorErrors  uint64 `json:"detector_errors"`
	LastDetected    int    `json:"last_detected_parts"`
}

type counters struct {
	read           atomic.Uint64
	processed      atomic.Uint64
	paused         atomic.Uint64
	detectorErrors atomic.Uint64
	lastDetected   atomic.Int32
}

// Stats returns a copy of the counters. Safe to call from any goroutine.
func (l *Loop) Stats() Stats {
	return Stats{
		State:           l.State().String(),
		FramesRead:      l.stats.read.Load(),
		FramesProcessed: l.stats.processed.Load(),
		FramesPaused:    l.stats.paused.Load(),
		DetectorErrors:  l.stats.detectorErrors.Load(),
		LastDetected:    int(l.stats.lastDetected.Load()),
	}
}
