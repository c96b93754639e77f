package eye

import (
	"fmt"
	"image"
)

// MapPoint scales p from a source frame of size src into a target of size dst.
// Each axis is scaled independently and truncated to an integer.
//
// src must have strictly positive dimensions. The frame loop checks this when
// the source is opened; a zero dimension here is a programming error.
func MapPoint(p, src, dst image.Point) image.Point {
	if src.X <= 0 || src.Y <= 0 {
		panic(fmt.Sprintf("eye: MapPoint with non-positive source size %v", src))
	}
	return image.Point{
		X: p.X * dst.X / src.X,
		Y: p.Y * dst.Y / src.Y,
	}
}

// MapSize scales a width/height pair with the same per-axis factors as MapPoint.
// Aspect ratio is not preserved when src and dst aspect ratios differ.
func MapSize(size, src, dst image.Point) image.Point {
	return MapPoint(size, src, dst)
}

// BoxCenter returns the integer center of a bounding box, rounding down.
func BoxCenter(box image.Rectangle) image.Point {
	return image.Point{
		X: floorHalf(box.Min.X + box.Max.X),
		Y: floorHalf(box.Min.Y + box.Max.Y),
	}
}

func floorHalf(v int) int {
	if v < 0 {
		return -((-v + 1) / 2)
	}
	return v / 2
}
