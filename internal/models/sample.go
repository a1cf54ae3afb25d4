package models

import (
	"bytes"
	"cmp"
	"time"

	"github.com/golang/geo/s2"
	"github.com/google/uuid"
)

// Location is a single position fix
type Location struct {
	Latitude           float64 `json:"latitude" db:"latitude"`
	Longitude          float64 `json:"longitude" db:"longitude"`
	Altitude           float64 `json:"altitude" db:"altitude"`
	HorizontalAccuracy float64 `json:"horizontalAccuracy" db:"horizontal_accuracy"` // Meters, negative = invalid fix
	Speed              float64 `json:"speed" db:"speed"`                             // m/s, negative = unknown
	Course             float64 `json:"course" db:"course"`                           // Degrees, negative = unknown
}

// LatLng converts the location to an s2 LatLng
func (l Location) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(l.Latitude, l.Longitude)
}

// HasValidFix reports whether the coordinate is usable for geometry
func (l Location) HasValidFix() bool {
	return l.HorizontalAccuracy >= 0 && l.LatLng().IsValid()
}

// Sample is a timestamped location/motion sample.
// Samples are compared by pointer identity wherever set membership matters.
type Sample struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	Date           time.Time      `json:"date" db:"date"`
	Location       *Location      `json:"location,omitempty"`
	ActivityType   ActivityType   `json:"activityType" db:"activity_type"`
	RecordingState RecordingState `json:"recordingState" db:"recording_state"`
}

// NewSample creates a sample with a generated ID
func NewSample(date time.Time, location *Location, activityType ActivityType, state RecordingState) *Sample {
	return &Sample{
		ID:             uuid.New(),
		Date:           date,
		Location:       location,
		ActivityType:   activityType,
		RecordingState: state,
	}
}

// HasUsableLocation reports whether the sample carries a valid fix
func (s *Sample) HasUsableLocation() bool {
	return s != nil && s.Location != nil && s.Location.HasValidFix()
}

// CompareSamples orders samples by date, then ID, then by their remaining values,
// so distinct samples sharing a date and ID still sort the same way every time.
func CompareSamples(a, b *Sample) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	if c := bytes.Compare(a.ID[:], b.ID[:]); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ActivityType, b.ActivityType); c != 0 {
		return c
	}
	if c := cmp.Compare(a.RecordingState, b.RecordingState); c != 0 {
		return c
	}
	switch {
	case a.Location == nil && b.Location == nil:
		return 0
	case a.Location == nil:
		return -1
	case b.Location == nil:
		return 1
	}
	la, lb := a.Location, b.Location
	if c := cmp.Compare(la.Latitude, lb.Latitude); c != 0 {
		return c
	}
	if c := cmp.Compare(la.Longitude, lb.Longitude); c != 0 {
		return c
	}
	if c := cmp.Compare(la.HorizontalAccuracy, lb.HorizontalAccuracy); c != 0 {
		return c
	}
	if c := cmp.Compare(la.Altitude, lb.Altitude); c != 0 {
		return c
	}
	if c := cmp.Compare(la.Speed, lb.Speed); c != 0 {
		return c
	}
	return cmp.Compare(la.Course, lb.Course)
}

// SamplesResponse represents a list response of samples
type SamplesResponse struct {
	Data  []*Sample `json:"data"`
	Total int       `json:"total"`
}
