package video

import (
	"sync"

	"gocv.io/x/gocv"
)

// DefaultWindowTitle is the preview window title.
const DefaultWindowTitle = "Eye Simulation"

const keyEsc = 27

// WindowSink shows frames in an OpenCV HighGUI window and reports the quit key.
//
// HighGUI must be driven from the goroutine that created the window, which on
// macOS has to be the main thread.
type WindowSink struct {
	window *gocv.Window

	closeOnce sync.Once
	closeErr  error
}

// NewWindowSink opens the preview window.
func NewWindowSink(title string) *WindowSink {
	if title == "" {
		title = DefaultWindowTitle
	}
	return &WindowSink{window: gocv.NewWindow(title)}
}

// Write displays one frame.
func (w *WindowSink) Write(frame gocv.Mat) error {
	w.window.IMShow(frame)
	return nil
}

// QuitRequested pumps window events for 1ms and reports whether q or ESC was pressed.
func (w *WindowSink) QuitRequested() bool {
	key := w.window.WaitKey(1)
	return IsQuitKey(key)
}

// IsQuitKey reports whether a WaitKey result means the user asked to quit.
func IsQuitKey(key int) bool {
	if key < 0 {
		return false
	}
	key &= 0xFF
	return key == 'q' || key == 'Q' || key == keyEsc
}

// Close destroys the window. Safe to call more than once.
func (w *WindowSink) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.window.Close()
	})
	return w.closeErr
}
