// Package render draws the simulated eye onto a canonical-size canvas.
package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/teslashibe/eyesim/pkg/eye"
)

// filled is OpenCV's thickness value for a solid shape with no stroke.
const filled = -1

var black = gocv.NewScalar(0, 0, 0, 0)

// Renderer draws eye components at a fixed canvas size.
type Renderer struct {
	canvas image.Point
}

// New creates a renderer for the given canvas size.
func New(canvas image.Point) *Renderer {
	return &Renderer{canvas: canvas}
}

// Canvas returns the output size.
func (r *Renderer) Canvas() image.Point {
	return r.canvas
}

// Render returns a new BGR canvas with the detected parts drawn on black.
// The caller must Close the returned Mat.
func (r *Renderer) Render(c eye.Components, p eye.Palette) gocv.Mat {
	dst := gocv.NewMatWithSizeFromScalar(black, r.canvas.Y, r.canvas.X, gocv.MatTypeCV8UC3)
	r.draw(&dst, c, p)
	return dst
}

// RenderInto draws into dst, reallocating it if its size or type is wrong.
func (r *Renderer) RenderInto(dst *gocv.Mat, c eye.Components, p eye.Palette) {
	if dst.Empty() || dst.Rows() != r.canvas.Y || dst.Cols() != r.canvas.X || dst.Type() != gocv.MatTypeCV8UC3 {
		dst.Close()
		*dst = gocv.NewMatWithSizeFromScalar(black, r.canvas.Y, r.canvas.X, gocv.MatTypeCV8UC3)
	} else {
		dst.SetTo(black)
	}
	r.draw(dst, c, p)
}

// draw paints sclera, then iris, then pupil. Later shapes cover earlier ones,
// so the pupil always sits on the iris and the iris on the sclera.
func (r *Renderer) draw(dst *gocv.Mat, c eye.Components, p eye.Palette) {
	if c.Sclera.Detected {
		gocv.Ellipse(dst, c.Sclera.Center, c.Sclera.Size, 0, 0, 360, opaque(p.Sclera), filled)
	}
	if c.Iris.Detected {
		gocv.Circle(dst, c.Iris.Center, c.Iris.Radius(), opaque(p.Iris), filled)
	}
	if c.Pupil.Detected {
		gocv.Circle(dst, c.Pupil.Center, c.Pupil.Radius(), opaque(p.Pupil), filled)
	}
}

func opaque(c color.RGBA) color.RGBA {
	c.A = 255
	return c
}
