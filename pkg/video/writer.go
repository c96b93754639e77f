package video

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// DefaultCodec is the FourCC used for output files.
const DefaultCodec = "mp4v"

// ErrSinkClosed is returned when writing to a closed sink.
var ErrSinkClosed = errors.New("video: sink closed")

// FileSink appends frames to a video file of a fixed size and frame rate.
type FileSink struct {
	writer *gocv.VideoWriter
	path   string
	size   image.Point

	mu     sync.Mutex
	closed bool
	frames int
}

// CreateFileSink opens path for writing. Frames must match size exactly.
func CreateFileSink(path, codec string, fps float64, size image.Point) (*FileSink, error) {
	if codec == "" {
		codec = DefaultCodec
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	w, err := gocv.VideoWriterFile(path, codec, fps, size.X, size.Y, true)
	if err != nil {
		return nil, fmt.Errorf("video: create %s: %w", path, err)
	}
	if !w.IsOpened() {
		w.Close()
		return nil, fmt.Errorf("video: create %s: writer not opened (codec %s)", path, codec)
	}
	return &FileSink{writer: w, path: path, size: size}, nil
}

// Write appends one frame.
func (s *FileSink) Write(frame gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	if frame.Cols() != s.size.X || frame.Rows() != s.size.Y {
		return fmt.Errorf("video: frame %dx%d does not match %s size %dx%d",
			frame.Cols(), frame.Rows(), s.path, s.size.X, s.size.Y)
	}
	if err := s.writer.Write(frame); err != nil {
		return fmt.Errorf("video: write %s: %w", s.path, err)
	}
	s.frames++
	return nil
}

// Frames returns how many frames were written.
func (s *FileSink) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Close finalizes the file. Safe to call more than once.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.writer.Close()
}
