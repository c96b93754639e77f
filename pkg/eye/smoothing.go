package eye

import "image"

// DefaultSmoothingFactor moves a part 10% of the way to its new pose each frame.
const DefaultSmoothingFactor = 0.1

// Smoother applies exponential smoothing to detected parts across frames.
//
// It is an optional mode layered on top of Build. A part that is missing from
// a frame resets to its default and is forgotten, so the next detection starts
// from the detected pose rather than drifting in from the canvas center.
type Smoother struct {
	factor float64
	prev   Components
	seeded [len(Parts)]bool
}

// NewSmoother returns a smoother with factor clamped to (0, 1].
// A factor of 1 disables smoothing.
func NewSmoother(factor float64) *Smoother {
	if factor <= 0 || factor > 1 {
		factor = 1
	}
	return &Smoother{factor: factor}
}

// Factor returns the smoothing factor in use.
func (s *Smoother) Factor() float64 {
	return s.factor
}

// Apply returns target with every detected part moved from its previous pose
// toward the target pose.
func (s *Smoother) Apply(target Components) Components {
	out := target
	for _, p := range Parts {
		cur := target.Get(p)
		if !cur.Detected {
			s.seeded[p] = false
			continue
		}
		if s.seeded[p] {
			prev := s.prev.Get(p)
			cur.Center = s.step(prev.Center, cur.Center)
			cur.Size = s.step(prev.Size, cur.Size)
			out.Set(p, cur)
		}
		s.seeded[p] = true
	}
	s.prev = out
	return out
}

// Reset forgets all previous poses.
func (s *Smoother) Reset() {
	s.seeded = [len(Parts)]bool{}
}

func (s *Smoother) step(cur, target image.Point) image.Point {
	return image.Point{
		X: int(float64(cur.X) + float64(target.X-cur.X)*s.factor),
		Y: int(float64(cur.Y) + float64(target.Y-cur.Y)*s.factor),
	}
}
