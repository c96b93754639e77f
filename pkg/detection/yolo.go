package detection

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/eyesim/pkg/debug"
	"github.com/teslashibe/eyesim/pkg/eye"
)

// YOLODetector runs a YOLOv8 eye-segmentation model exported to ONNX
type YOLODetector struct {
	net       gocv.Net
	config    YOLOConfig
	mu        sync.Mutex
	inputSize image.Point
}

// YOLOConfig holds YOLO detector configuration
type YOLOConfig struct {
	ModelPath        string
	ConfidenceThresh float32
	NMSThresh        float32
	InputWidth       int
	InputHeight      int
}

// DefaultYOLOConfig returns defaults for the eye-seg export
func DefaultYOLOConfig() YOLOConfig {
	return YOLOConfig{
		ModelPath:        "models/eye-seg.onnx",
		ConfidenceThresh: 0.25,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
	}
}

// NewYOLO loads the model and prepares it for CPU inference
func NewYOLO(cfg YOLOConfig) (*YOLODetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load YOLO model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &YOLODetector{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// Detect finds sclera, iris and pupil boxes in a BGR frame
func (d *YOLODetector) Detect(frame gocv.Mat) ([]eye.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	imgW := float32(frame.Cols())
	imgH := float32(frame.Rows())

	blob := gocv.BlobFromImage(frame, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	return d.parseOutput(output, imgW, imgH)
}

// parseOutput decodes a YOLOv8 head of shape [1, 4+nc+extra, N].
// Each column is (cx, cy, w, h, score_0..score_nc-1, extra...) in model input
// pixels. Segmentation exports append mask coefficients after the class
// scores; those are not scores and are ignored.
func (d *YOLODetector) parseOutput(output gocv.Mat, imgW, imgH float32) ([]eye.Detection, error) {
	nc := len(EyeClasses)
	sizes := output.Size()
	if len(sizes) != 3 || sizes[1] < 4+nc {
		return nil, fmt.Errorf("unexpected YOLO output shape %v", sizes)
	}
	rows := sizes[2] // candidate anchors

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read YOLO output: %w", err)
	}

	var boxes []image.Rectangle
	var confidences []float32
	var classIDs []int

	scaleX := imgW / float32(d.config.InputWidth)
	scaleY := imgH / float32(d.config.InputHeight)

	for i := 0; i < rows; i++ {
		maxScore := float32(0)
		maxClassID := 0

		for c := 4; c < 4+nc; c++ {
			score := data[c*rows+i]
			if score > maxScore {
				maxScore = score
				maxClassID = c - 4
			}
		}

		if maxScore < d.config.ConfidenceThresh {
			continue
		}

		cx := data[0*rows+i]
		cy := data[1*rows+i]
		w := data[2*rows+i]
		h := data[3*rows+i]

		x1 := int((cx - w/2) * scaleX)
		y1 := int((cy - h/2) * scaleY)
		x2 := int((cx + w/2) * scaleX)
		y2 := int((cy + h/2) * scaleY)

		boxes = append(boxes, image.Rect(x1, y1, x2, y2))
		confidences = append(confidences, maxScore)
		classIDs = append(classIDs, maxClassID)
	}

	if len(boxes) == 0 {
		return nil, nil
	}

	// Suppress within a class only: an iris sits inside its eye box and must
	// survive even when the overlap is above the NMS threshold.
	byClass := make([][]int, nc)
	for i, id := range classIDs {
		byClass[id] = append(byClass[id], i)
	}

	detections := make([]eye.Detection, 0, len(boxes))
	for id, members := range byClass {
		if len(members) == 0 {
			continue
		}
		part, ok := PartForClass(id)
		if !ok {
			continue
		}
		classBoxes := make([]image.Rectangle, len(members))
		classScores := make([]float32, len(members))
		for k, i := range members {
			classBoxes[k] = boxes[i]
			classScores[k] = confidences[i]
		}
		for _, k := range gocv.NMSBoxes(classBoxes, classScores, d.config.ConfidenceThresh, d.config.NMSThresh) {
			detections = append(detections, eye.Detection{
				Part:       part,
				Box:        classBoxes[k],
				Confidence: float64(classScores[k]),
			})
		}
	}

	debug.Log("🔍 YOLO kept %d of %d candidate(s)\n", len(detections), len(boxes))
	return detections, nil
}

// Close releases the detector resources
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
