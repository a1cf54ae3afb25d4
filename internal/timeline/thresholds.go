package timeline

import "time"

// VisitThresholds are the limits for stationary segments
type VisitThresholds struct {
	MinimumValidDuration  time.Duration
	MinimumKeeperDuration time.Duration
}

// PathThresholds are the limits for moving segments
type PathThresholds struct {
	MinimumValidSamples   int
	MinimumValidDuration  time.Duration
	MinimumValidDistance  float64 // Meters
	MinimumKeeperDuration time.Duration
	MinimumKeeperDistance float64 // Meters
}

// Thresholds groups visit and path limits
type Thresholds struct {
	Visit VisitThresholds
	Path  PathThresholds
}

// DefaultThresholds returns the stock visit/path limits
func DefaultThresholds() Thresholds {
	return Thresholds{
		Visit: VisitThresholds{
			MinimumValidDuration:  10 * time.Second,
			MinimumKeeperDuration: 2 * time.Minute,
		},
		Path: PathThresholds{
			MinimumValidSamples:   2,
			MinimumValidDuration:  10 * time.Second,
			MinimumValidDistance:  10,
			MinimumKeeperDuration: time.Minute,
			MinimumKeeperDistance: 20,
		},
	}
}
