package detection

import (
	"bufio"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/eyesim/pkg/eye"
)

// ReplayRecord is one detection in a replay file.
type ReplayRecord struct {
	Class      string  `json:"class"`
	Box        [4]int  `json:"box"` // left, top, right, bottom
	Confidence float64 `json:"confidence,omitempty"`
}

// Replay serves precomputed detections, one JSON array per line per frame.
// Once the file is exhausted every frame gets an empty set.
//
//	[{"class":"eye","box":[100,100,300,300]},{"class":"iris","box":[180,170,230,220]}]
type Replay struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
}

// NewReplay reads detections from r.
func NewReplay(r io.Reader) *Replay {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	rp := &Replay{scanner: sc}
	if c, ok := r.(io.Closer); ok {
		rp.closer = c
	}
	return rp
}

// OpenReplay opens a replay file.
func OpenReplay(path string) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	return NewReplay(f), nil
}

// Detect returns the next frame's detections. The frame itself is not inspected.
func (r *Replay) Detect(_ gocv.Mat) ([]eye.Detection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, fmt.Errorf("replay line %d: %w", r.line+1, err)
		}
		return nil, nil
	}
	r.line++

	var records []ReplayRecord
	if err := json.Unmarshal(r.scanner.Bytes(), &records); err != nil {
		return nil, fmt.Errorf("replay line %d: %w", r.line, err)
	}

	dets := make([]eye.Detection, 0, len(records))
	for _, rec := range records {
		part, ok := eye.ParsePart(rec.Class)
		if !ok {
			continue
		}
		dets = append(dets, eye.Detection{
			Part:       part,
			Box:        image.Rect(rec.Box[0], rec.Box[1], rec.Box[2], rec.Box[3]),
			Confidence: rec.Confidence,
		})
	}
	return dets, nil
}

// Close closes the underlying file, if any.
func (r *Replay) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
