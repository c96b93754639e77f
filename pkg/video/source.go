// Package video provides OpenCV-backed frame sources and sinks.
package video

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// DefaultFPS is used when a container does not report its frame rate.
const DefaultFPS = 30.0

// ErrSourceUnavailable is returned when a video source cannot be opened or
// reports an unusable frame size.
var ErrSourceUnavailable = errors.New("video: source unavailable")

// FileSource reads frames from a video file or capture device.
type FileSource struct {
	capture *gocv.VideoCapture
	size    image.Point
	fps     float64

	closeOnce sync.Once
	closeErr  error
}

// OpenSource opens a video file, or a capture device when name is a
// numeric device id that is not also a file on disk.
func OpenSource(name string) (*FileSource, error) {
	var (
		capture *gocv.VideoCapture
		err     error
	)
	if id, convErr := strconv.Atoi(name); convErr == nil && !exists(name) {
		capture, err = gocv.OpenVideoCapture(id)
	} else {
		capture, err = gocv.VideoCaptureFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, name, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: %s: not opened", ErrSourceUnavailable, name)
	}

	size := image.Pt(
		int(capture.Get(gocv.VideoCaptureFrameWidth)),
		int(capture.Get(gocv.VideoCaptureFrameHeight)),
	)
	if size.X <= 0 || size.Y <= 0 {
		capture.Close()
		return nil, fmt.Errorf("%w: %s: frame size %dx%d", ErrSourceUnavailable, name, size.X, size.Y)
	}

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = DefaultFPS
	}

	return &FileSource{capture: capture, size: size, fps: fps}, nil
}

// Size returns the frame size reported by the source.
func (s *FileSource) Size() image.Point {
	return s.size
}

// FPS returns the source frame rate.
func (s *FileSource) FPS() float64 {
	return s.fps
}

// Read decodes the next frame into dst. It returns false at end of stream or
// on a decode error; the two are not distinguished.
func (s *FileSource) Read(dst *gocv.Mat) bool {
	if ok := s.capture.Read(dst); !ok || dst.Empty() {
		return false
	}
	return true
}

// Close releases the capture. Safe to call more than once.
func (s *FileSource) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.capture.Close()
	})
	return s.closeErr
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
