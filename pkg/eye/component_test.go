package eye

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var src640 = image.Pt(640, 480)

func TestBuild_NoDetectionsGivesDefaults(t *testing.T) {
	got := Build(nil, src640, Canvas, LastWins)
	want := Components{
		Sclera: ComponentState{Center: image.Pt(960, 540), Size: image.Pt(300, 200)},
		Iris:   ComponentState{Center: image.Pt(960, 540), Size: image.Pt(150, 150)},
		Pupil:  ComponentState{Center: image.Pt(960, 540), Size: image.Pt(50, 50)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build(nil) mismatch (-want +got):\n%s", diff)
	}
	if got.DetectedCount() != 0 {
		t.Errorf("DetectedCount = %d, want 0", got.DetectedCount())
	}
}

func TestBuild_ScleraScenario(t *testing.T) {
	dets := []Detection{{Part: Sclera, Box: image.Rect(100, 100, 300, 300), Confidence: 0.9}}

	got := Build(dets, src640, Canvas, LastWins)

	want := ComponentState{Detected: true, Center: image.Pt(600, 450), Size: image.Pt(300, 225)}
	if diff := cmp.Diff(want, got.Sclera); diff != "" {
		t.Errorf("sclera mismatch (-want +got):\n%s", diff)
	}
	if got.Iris.Detected || got.Pupil.Detected {
		t.Error("iris and pupil should stay undetected")
	}
}

func TestBuild_CanvasCenterSclera(t *testing.T) {
	// Box centered at (300,300) in 640x480 maps to (900,675).
	dets := []Detection{{Part: Sclera, Box: image.Rect(200, 200, 400, 400)}}

	got := Build(dets, src640, Canvas, LastWins).Sclera

	if got.Center != image.Pt(900, 675) {
		t.Errorf("center = %v, want (900,675)", got.Center)
	}
	if got.Size != image.Pt(300, 225) {
		t.Errorf("half-axes = %v, want (300,225)", got.Size)
	}
}

func TestBuild_IrisAndPupilKeepMappedSize(t *testing.T) {
	dets := []Detection{
		{Part: Iris, Box: image.Rect(300, 200, 340, 240)},
		{Part: Pupil, Box: image.Rect(310, 210, 330, 230)},
	}

	got := Build(dets, src640, Canvas, LastWins)

	if got.Iris.Size != image.Pt(120, 90) {
		t.Errorf("iris size = %v, want (120,90)", got.Iris.Size)
	}
	if got.Iris.Radius() != 45 {
		t.Errorf("iris radius = %d, want 45", got.Iris.Radius())
	}
	if got.Pupil.Center != image.Pt(960, 495) {
		t.Errorf("pupil center = %v, want (960,495)", got.Pupil.Center)
	}
	if got.Sclera.Detected {
		t.Error("sclera should stay undetected")
	}
}

func TestBuild_UnknownPartIgnored(t *testing.T) {
	dets := []Detection{{Part: Part(7), Box: image.Rect(0, 0, 10, 10)}}
	if got := Build(dets, src640, Canvas, LastWins); got.DetectedCount() != 0 {
		t.Errorf("unknown part should be ignored, got %+v", got)
	}
}

func TestBuild_DuplicatePolicies(t *testing.T) {
	first := Detection{Part: Iris, Box: image.Rect(0, 0, 64, 48), Confidence: 0.95}
	second := Detection{Part: Iris, Box: image.Rect(320, 240, 384, 288), Confidence: 0.40}
	dets := []Detection{first, second}

	tests := []struct {
		name   string
		policy Policy
		center image.Point
	}{
		{"last wins", LastWins, image.Pt(1056, 594)},
		{"highest confidence", HighestConfidence, image.Pt(96, 54)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Build(dets, src640, Canvas, tc.policy)
			if got.Iris.Center != tc.center {
				t.Errorf("iris center = %v, want %v", got.Iris.Center, tc.center)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy(""); err != nil || p != LastWins {
		t.Errorf("ParsePolicy(\"\") = %v, %v", p, err)
	}
	if p, err := ParsePolicy("confidence"); err != nil || p != HighestConfidence {
		t.Errorf("ParsePolicy(confidence) = %v, %v", p, err)
	}
	if _, err := ParsePolicy("first"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestParsePart(t *testing.T) {
	tests := []struct {
		in   string
		want Part
		ok   bool
	}{
		{"sclera", Sclera, true},
		{"eye", Sclera, true},
		{"Iris", Iris, true},
		{" pupil ", Pupil, true},
		{"eyelid", 0, false},
	}
	for _, tc := range tests {
		got, ok := ParsePart(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("ParsePart(%q) = %v, %v", tc.in, got, ok)
		}
	}
}
