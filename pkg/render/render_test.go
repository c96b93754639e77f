package render

import (
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"

	"github.com/teslashibe/eyesim/pkg/eye"
)

// bgrAt returns the pixel at (x, y) as an RGBA color.
func bgrAt(m gocv.Mat, x, y int) color.RGBA {
	v := m.GetVecbAt(y, x)
	return color.RGBA{R: v[2], G: v[1], B: v[0], A: 255}
}

func countNonBlack(m gocv.Mat) int {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(m, &gray, gocv.ColorBGRToGray)
	return gocv.CountNonZero(gray)
}

func TestRender_CanvasSize(t *testing.T) {
	sizes := []image.Point{eye.Canvas, image.Pt(640, 480), image.Pt(33, 17)}
	for _, size := range sizes {
		m := New(size).Render(eye.Defaults(size), eye.DefaultPalette())
		if m.Cols() != size.X || m.Rows() != size.Y {
			t.Errorf("canvas %v: got %dx%d", size, m.Cols(), m.Rows())
		}
		if m.Type() != gocv.MatTypeCV8UC3 {
			t.Errorf("canvas %v: type %v, want CV8UC3", size, m.Type())
		}
		m.Close()
	}
}

func TestRender_NoDetectionsIsBlack(t *testing.T) {
	r := New(eye.Canvas)
	m := r.Render(eye.Build(nil, image.Pt(640, 480), eye.Canvas, eye.LastWins), eye.DefaultPalette())
	defer m.Close()

	if n := countNonBlack(m); n != 0 {
		t.Errorf("expected pure black canvas, found %d lit pixels", n)
	}
}

func TestRender_ScleraEllipse(t *testing.T) {
	r := New(eye.Canvas)
	dets := []eye.Detection{{Part: eye.Sclera, Box: image.Rect(200, 200, 400, 400)}}
	c := eye.Build(dets, image.Pt(640, 480), eye.Canvas, eye.LastWins)
	palette := eye.DefaultPalette()

	m := r.Render(c, palette)
	defer m.Close()

	white := palette.Sclera
	inside := []image.Point{
		{900, 675},       // center
		{900 + 290, 675}, // near the horizontal half-axis end
		{900, 675 - 215}, // near the vertical half-axis end
	}
	for _, p := range inside {
		if got := bgrAt(m, p.X, p.Y); got != white {
			t.Errorf("pixel %v = %v, want sclera %v", p, got, white)
		}
	}

	outside := []image.Point{
		{900 + 310, 675},
		{900, 675 - 235},
		{900 + 250, 675 - 200}, // inside the bounding box but outside the ellipse
	}
	for _, p := range outside {
		if got := bgrAt(m, p.X, p.Y); got != (color.RGBA{A: 255}) {
			t.Errorf("pixel %v = %v, want black", p, got)
		}
	}
}

func TestRender_OnlyScleraDrawn(t *testing.T) {
	r := New(eye.Canvas)
	c := eye.Defaults(eye.Canvas)
	c.Sclera = eye.ComponentState{Detected: true, Center: image.Pt(960, 540), Size: image.Pt(300, 225)}
	palette := eye.Palette{
		Sclera: color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Iris:   color.RGBA{R: 255, A: 255},
		Pupil:  color.RGBA{B: 255, A: 255},
	}

	m := r.Render(c, palette)
	defer m.Close()

	// Default iris/pupil sit at the canvas center; they must not be drawn.
	if got := bgrAt(m, 960, 540); got != palette.Sclera {
		t.Errorf("center pixel = %v, want sclera color", got)
	}
}

func TestRender_DrawOrder(t *testing.T) {
	r := New(image.Pt(400, 300))
	palette := eye.Palette{
		Sclera: color.RGBA{R: 200, G: 200, B: 200, A: 255},
		Iris:   color.RGBA{R: 10, G: 180, B: 20, A: 255},
		Pupil:  color.RGBA{R: 90, G: 0, B: 120, A: 255},
	}

	radii := []struct{ iris, pupil int }{
		{60, 20}, {20, 60}, {40, 40}, {5, 3},
	}

	for _, rr := range radii {
		c := eye.Components{
			Sclera: eye.ComponentState{Detected: true, Center: image.Pt(200, 150), Size: image.Pt(150, 100)},
			Iris:   eye.ComponentState{Detected: true, Center: image.Pt(200, 150), Size: image.Pt(rr.iris*2, rr.iris*2)},
			Pupil:  eye.ComponentState{Detected: true, Center: image.Pt(200, 150), Size: image.Pt(rr.pupil*2, rr.pupil*2)},
		}
		m := r.Render(c, palette)

		if got := bgrAt(m, 200, 150); got != palette.Pupil {
			t.Errorf("iris r=%d pupil r=%d: overlap pixel = %v, want pupil color", rr.iris, rr.pupil, got)
		}
		if rr.iris > rr.pupil+2 {
			if got := bgrAt(m, 200+rr.pupil+1, 150); got != palette.Iris {
				t.Errorf("iris r=%d pupil r=%d: ring pixel = %v, want iris color", rr.iris, rr.pupil, got)
			}
		}
		m.Close()
	}
}

func TestRenderInto_ReusesAndClears(t *testing.T) {
	r := New(image.Pt(100, 100))
	dst := gocv.NewMat()
	defer dst.Close()

	c := eye.Defaults(r.Canvas())
	c.Pupil = eye.ComponentState{Detected: true, Center: image.Pt(50, 50), Size: image.Pt(20, 20)}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	r.RenderInto(&dst, c, eye.Palette{Pupil: white})

	if dst.Cols() != 100 || dst.Rows() != 100 {
		t.Fatalf("RenderInto size = %dx%d", dst.Cols(), dst.Rows())
	}
	if got := bgrAt(dst, 50, 50); got != white {
		t.Fatalf("pupil pixel = %v, want white", got)
	}

	r.RenderInto(&dst, eye.Defaults(r.Canvas()), eye.DefaultPalette())
	if n := countNonBlack(dst); n != 0 {
		t.Errorf("second render should clear canvas, %d lit pixels remain", n)
	}
}
