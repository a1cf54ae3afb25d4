package models

import "time"

// SegmentSummary is the persisted projection of a timeline segment
type SegmentSummary struct {
	ID int64 `json:"id" db:"id"`

	// Segment identification
	ItemID         string         `json:"item_id" db:"item_id"`                 // Owning timeline item UUID
	ItemKind       string         `json:"item_kind" db:"item_kind"`             // VISIT, PATH, GAP
	ActivityType   ActivityType   `json:"activity_type" db:"activity_type"`     // Segment activity type
	RecordingState RecordingState `json:"recording_state" db:"recording_state"` // Segment recording state
	SampleCount    int            `json:"sample_count" db:"sample_count"`

	// Temporal info
	StartTime       int64   `json:"start_time" db:"start_time"`             // Unix timestamp
	EndTime         int64   `json:"end_time" db:"end_time"`                 // Unix timestamp
	DurationSeconds float64 `json:"duration_seconds" db:"duration_seconds"` // Duration in seconds

	// Spatial info
	DistanceMeters float64  `json:"distance_meters" db:"distance_meters"`
	CenterLat      *float64 `json:"center_lat,omitempty" db:"center_lat"`
	CenterLon      *float64 `json:"center_lon,omitempty" db:"center_lon"`
	RadiusMean     float64  `json:"radius_mean" db:"radius_mean"`
	RadiusSD       float64  `json:"radius_sd" db:"radius_sd"`

	// Classification
	ClassifiedType  ActivityType `json:"classified_type" db:"classified_type"`
	ClassifierScore float64      `json:"classifier_score" db:"classifier_score"` // 0~1

	// Policy
	IsValid        bool `json:"is_valid" db:"is_valid"`
	IsWorthKeeping bool `json:"is_worth_keeping" db:"is_worth_keeping"`

	// Metadata
	AlgoVersion string    `json:"algo_version,omitempty" db:"algo_version"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Item kind constants
const (
	ItemKindVisit = "VISIT"
	ItemKindPath  = "PATH"
	ItemKindGap   = "GAP"
)

// AlgoVersion tags persisted summaries
const AlgoVersion = "v1"

// SegmentsResponse represents a paginated response of segment summaries
type SegmentsResponse struct {
	Data       []SegmentSummary `json:"data"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}
