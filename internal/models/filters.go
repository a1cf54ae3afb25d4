package models

// SegmentFilter represents filter parameters for querying segment summaries
type SegmentFilter struct {
	ActivityType string  `form:"activityType"` // stationary, walking, car, ...
	ItemKind     string  `form:"itemKind"`     // VISIT, PATH, GAP
	StartTime    int64   `form:"startTime"`    // Unix timestamp
	EndTime      int64   `form:"endTime"`      // Unix timestamp
	MinDistance  float64 `form:"minDistance"`  // Meters
	MinDuration  float64 `form:"minDuration"`  // Seconds
	KeepersOnly  bool    `form:"keepersOnly"`
	Page         int     `form:"page"`
	PageSize     int     `form:"pageSize"`
}

// SampleFilter represents filter parameters for querying samples
type SampleFilter struct {
	StartTime int64 `form:"startTime"` // Unix timestamp
	EndTime   int64 `form:"endTime"`   // Unix timestamp
	Limit     int   `form:"limit"`
}

// RebuildRequest is the body of a timeline rebuild request
type RebuildRequest struct {
	StartTime int64 `json:"startTime" binding:"required"`
	EndTime   int64 `json:"endTime" binding:"required"`
}

// Normalize clamps pagination to sane bounds
func (f *SegmentFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 100
	}
	if f.PageSize > 1000 {
		f.PageSize = 1000
	}
}
