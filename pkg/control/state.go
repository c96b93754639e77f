// Package control holds the operator-adjustable settings shared between the
// control surface and the frame loop.
//
// Each field is stored as an independent atomic value. A reader never sees a
// half-written color, but a frame may pick up one color from before an edit
// and another from after it. No cross-field snapshot is provided.
package control

import (
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/eyesim/pkg/eye"
)

// Toggle labels shown on the control surface.
const (
	LabelStop  = "Stop Tracking"
	LabelStart = "Start Tracking"
)

// State is the shared control handle. Create it once and pass the same pointer
// to the frame loop and the control surface.
type State struct {
	colors   [len(eye.Parts)]atomic.Pointer[color.RGBA]
	tracking atomic.Bool

	mu        sync.Mutex
	listeners []func(Snapshot)
}

// New creates a State with the given palette and tracking enabled.
func New(p eye.Palette) *State {
	s := &State{}
	for _, part := range eye.Parts {
		c := p.Get(part)
		s.colors[part].Store(&c)
	}
	s.tracking.Store(true)
	return s
}

// Color returns the current color of a part.
func (s *State) Color(part eye.Part) color.RGBA {
	if !part.Valid() {
		return color.RGBA{}
	}
	return *s.colors[part].Load()
}

// Palette reads the three colors one at a time.
func (s *State) Palette() eye.Palette {
	return eye.Palette{
		Sclera: s.Color(eye.Sclera),
		Iris:   s.Color(eye.Iris),
		Pupil:  s.Color(eye.Pupil),
	}
}

// TrackingEnabled reports whether the frame loop should detect and render.
func (s *State) TrackingEnabled() bool {
	return s.tracking.Load()
}

// SetColor replaces the color of one part.
func (s *State) SetColor(part eye.Part, c color.RGBA) {
	if !part.Valid() {
		return
	}
	c.A = 255
	s.colors[part].Store(&c)
	s.notify()
}

// ChooseColor runs a blocking color pick for one part. If pick reports
// ok=false the user cancelled and nothing changes.
func (s *State) ChooseColor(part eye.Part, pick func() (color.RGBA, bool)) bool {
	c, ok := pick()
	if !ok || !part.Valid() {
		return false
	}
	s.SetColor(part, c)
	return true
}

// SetTracking enables or disables detection and rendering.
func (s *State) SetTracking(enabled bool) {
	s.tracking.Store(enabled)
	s.notify()
}

// Toggle flips tracking and returns the new value.
func (s *State) Toggle() bool {
	for {
		old := s.tracking.Load()
		if s.tracking.CompareAndSwap(old, !old) {
			s.notify()
			return !old
		}
	}
}

// ToggleLabel returns the button text for the given tracking state.
func ToggleLabel(enabled bool) string {
	if enabled {
		return LabelStop
	}
	return LabelStart
}

// OnChange registers fn to be called with a fresh snapshot after every change.
// Listeners run on the mutating goroutine and must not block.
func (s *State) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *State) notify() {
	s.mu.Lock()
	listeners := append(([]func(Snapshot))(nil), s.listeners...)
	s.mu.Unlock()

	if len(listeners) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, fn := range listeners {
		fn(snap)
	}
}
