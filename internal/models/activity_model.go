package models

import "time"

// ActivityModel is a learned speed distribution for one activity type inside one
// s2 region cell
type ActivityModel struct {
	CellID       uint64       `json:"cell_id" db:"cell_id"`
	ActivityType ActivityType `json:"activity_type" db:"activity_type"`
	MeanSpeed    float64      `json:"mean_speed" db:"mean_speed"` // m/s
	SpeedSD      float64      `json:"speed_sd" db:"speed_sd"`     // m/s
	SampleCount  int          `json:"sample_count" db:"sample_count"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}
