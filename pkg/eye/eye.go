// Package eye holds the simulated-eye data model: the detected parts, the
// mapping from source-frame pixels into the canonical canvas, and the
// per-frame component state that the renderer draws.
package eye

import (
	"image"
	"image/color"
	"strings"
)

// Part identifies one rendered component of the eye.
// Values match the detector's class ids.
type Part int

const (
	Sclera Part = iota
	Iris
	Pupil
)

// Parts lists every part in draw order (back to front).
var Parts = [...]Part{Sclera, Iris, Pupil}

// String returns the lowercase part name.
func (p Part) String() string {
	switch p {
	case Sclera:
		return "sclera"
	case Iris:
		return "iris"
	case Pupil:
		return "pupil"
	default:
		return "unknown"
	}
}

// Valid reports whether p is one of the three known parts.
func (p Part) Valid() bool {
	return p >= Sclera && p <= Pupil
}

// ParsePart maps a label to a Part. The detector labels the sclera "eye".
func ParsePart(name string) (Part, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sclera", "eye":
		return Sclera, true
	case "iris":
		return Iris, true
	case "pupil":
		return Pupil, true
	default:
		return 0, false
	}
}

// Detection is one detector output in source-frame pixel coordinates.
// Box.Min is (left, top) and Box.Max is (right, bottom).
type Detection struct {
	Part       Part
	Box        image.Rectangle
	Confidence float64
}

// Canvas is the default canonical rendering size.
var Canvas = image.Pt(1920, 1080)

// Palette holds one fill color per part.
type Palette struct {
	Sclera color.RGBA `json:"sclera"`
	Iris   color.RGBA `json:"iris"`
	Pupil  color.RGBA `json:"pupil"`
}

// DefaultPalette returns white sclera, green iris and black pupil.
func DefaultPalette() Palette {
	return Palette{
		Sclera: color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Iris:   color.RGBA{R: 0, G: 255, B: 0, A: 255},
		Pupil:  color.RGBA{R: 0, G: 0, B: 0, A: 255},
	}
}

// Get returns the color for a part.
func (p Palette) Get(part Part) color.RGBA {
	switch part {
	case Iris:
		return p.Iris
	case Pupil:
		return p.Pupil
	default:
		return p.Sclera
	}
}
