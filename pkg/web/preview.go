package web

import (
	"fmt"
	"sync/atomic"

	"gocv.io/x/gocv"

	"github.com/teslashibe/eyesim/pkg/hub"
)

// PreviewSink JPEG-encodes rendered frames for /ws/preview. Encoding is
// skipped while nobody is watching.
type PreviewSink struct {
	hub  *hub.Hub
	sent atomic.Uint64
}

// NewPreviewSink broadcasts on h.
func NewPreviewSink(h *hub.Hub) *PreviewSink {
	return &PreviewSink{hub: h}
}

// Write encodes frame and queues it. A full queue drops the frame.
func (p *PreviewSink) Write(frame gocv.Mat) error {
	if p.hub.ClientCount() == 0 {
		return nil
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return fmt.Errorf("preview: encode: %w", err)
	}
	defer buf.Close()

	data := append([]byte(nil), buf.GetBytes()...)
	if p.hub.BroadcastBinary(data) {
		p.sent.Add(1)
	}
	return nil
}

// Sent returns the number of frames queued for clients.
func (p *PreviewSink) Sent() uint64 { return p.sent.Load() }

// Close is a no-op; the hub is owned by the server.
func (p *PreviewSink) Close() error { return nil }
