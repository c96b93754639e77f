package eye

import (
	"fmt"
	"image"
)

// Default sizes used when a part is not detected.
var (
	DefaultScleraSize = image.Pt(300, 200)
	DefaultIrisSize   = image.Pt(150, 150)
	DefaultPupilSize  = image.Pt(50, 50)
)

// ComponentState is the per-frame position and size of one part in canvas space.
//
// For the sclera, Size holds the ellipse half-axes. For iris and pupil, Size is
// the full mapped box and the drawn radius comes from Radius.
type ComponentState struct {
	Detected bool        `json:"detected"`
	Center   image.Point `json:"center"`
	Size     image.Point `json:"size"`
}

// Radius returns half the smaller dimension, rounded down.
func (c ComponentState) Radius() int {
	return min(c.Size.X, c.Size.Y) / 2
}

// Components holds the state of all three parts for one frame.
type Components struct {
	Sclera ComponentState `json:"sclera"`
	Iris   ComponentState `json:"iris"`
	Pupil  ComponentState `json:"pupil"`
}

// Get returns the state of a part.
func (c *Components) Get(p Part) ComponentState {
	return *c.ptr(p)
}

// Set replaces the state of a part.
func (c *Components) Set(p Part, s ComponentState) {
	*c.ptr(p) = s
}

func (c *Components) ptr(p Part) *ComponentState {
	switch p {
	case Iris:
		return &c.Iris
	case Pupil:
		return &c.Pupil
	default:
		return &c.Sclera
	}
}

// DetectedCount returns how many parts are present.
func (c Components) DetectedCount() int {
	n := 0
	for _, s := range []ComponentState{c.Sclera, c.Iris, c.Pupil} {
		if s.Detected {
			n++
		}
	}
	return n
}

// Defaults returns undetected components centered on the canvas with the
// fixed default sizes. Absence never carries over the previous frame's pose.
func Defaults(canvas image.Point) Components {
	center := image.Pt(canvas.X/2, canvas.Y/2)
	return Components{
		Sclera: ComponentState{Center: center, Size: DefaultScleraSize},
		Iris:   ComponentState{Center: center, Size: DefaultIrisSize},
		Pupil:  ComponentState{Center: center, Size: DefaultPupilSize},
	}
}

// Policy decides which detection wins when a frame has several of one part.
type Policy int

const (
	// LastWins keeps the detection that appears last in the detector output.
	LastWins Policy = iota
	// HighestConfidence keeps the most confident detection. Ties go to the later one.
	HighestConfidence
)

func (p Policy) String() string {
	switch p {
	case HighestConfidence:
		return "confidence"
	default:
		return "last"
	}
}

// ParsePolicy maps "last" or "confidence" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "last":
		return LastWins, nil
	case "confidence":
		return HighestConfidence, nil
	default:
		return LastWins, fmt.Errorf("eye: unknown policy %q (want last or confidence)", s)
	}
}

// Build derives the component state for one frame from scratch.
//
// Every detection is centered and sized in source space, then mapped into the
// canvas. The sclera size is halved on both axes so the ellipse half-axes stay
// inside the detected eye region; iris and pupil keep the mapped size.
// Detections with an unknown part are ignored.
func Build(dets []Detection, src, canvas image.Point, policy Policy) Components {
	c := Defaults(canvas)
	var best [len(Parts)]float64

	for _, d := range dets {
		if !d.Part.Valid() {
			continue
		}
		if policy == HighestConfidence && c.Get(d.Part).Detected && d.Confidence < best[d.Part] {
			continue
		}

		center := MapPoint(BoxCenter(d.Box), src, canvas)
		size := MapSize(d.Box.Size(), src, canvas)
		if d.Part == Sclera {
			size = image.Pt(size.X/2, size.Y/2)
		}

		c.Set(d.Part, ComponentState{Detected: true, Center: center, Size: size})
		best[d.Part] = d.Confidence
	}

	return c
}
