package control

import "github.com/teslashibe/eyesim/pkg/eye"

// Snapshot is a JSON view of the control state for the dashboard.
type Snapshot struct {
	ScleraColor     string `json:"sclera_color"`
	IrisColor       string `json:"iris_color"`
	PupilColor      string `json:"pupil_color"`
	TrackingEnabled bool   `json:"tracking_enabled"`
	ToggleLabel     string `json:"toggle_label"`
}

// Snapshot returns the current state. Fields are read independently.
func (s *State) Snapshot() Snapshot {
	enabled := s.TrackingEnabled()
	return Snapshot{
		ScleraColor:     FormatColor(s.Color(eye.Sclera)),
		IrisColor:       FormatColor(s.Color(eye.Iris)),
		PupilColor:      FormatColor(s.Color(eye.Pupil)),
		TrackingEnabled: enabled,
		ToggleLabel:     ToggleLabel(enabled),
	}
}
