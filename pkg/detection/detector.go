// Package detection adapts eye-part detectors to the frame loop.
package detection

import (
	"gocv.io/x/gocv"

	"github.com/teslashibe/eyesim/pkg/eye"
)

// Detector finds eye parts in one source frame.
// Boxes are returned in the frame's pixel coordinates.
type Detector interface {
	// Detect returns zero or more detections for the frame
	Detect(frame gocv.Mat) ([]eye.Detection, error)

	// Close releases resources
	Close() error
}

// EyeClasses are the class names of the eye-segmentation model, by class id.
var EyeClasses = []string{"eye", "iris", "pupil"}

// PartForClass maps a model class id to an eye part.
func PartForClass(classID int) (eye.Part, bool) {
	if classID < 0 || classID >= len(EyeClasses) {
		return 0, false
	}
	return eye.ParsePart(EyeClasses[classID])
}

// Func adapts a plain function to the Detector interface.
type Func func(frame gocv.Mat) ([]eye.Detection, error)

// Detect calls f.
func (f Func) Detect(frame gocv.Mat) ([]eye.Detection, error) {
	return f(frame)
}

// Close is a no-op.
func (f Func) Close() error {
	return nil
}

// Count returns how many detections of each part are present
func Count(dets []eye.Detection) map[eye.Part]int {
	counts := make(map[eye.Part]int, len(eye.Parts))
	for _, d := range dets {
		if d.Part.Valid() {
			counts[d.Part]++
		}
	}
	return counts
}
