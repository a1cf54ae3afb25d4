package spatial

import (
	"github.com/golang/geo/s2"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters

	// RegionCellLevel is the s2 level used to key regional classifier models (~10km cells)
	RegionCellLevel = 10
)

// Distance returns the great-circle distance between two points in meters
func Distance(a, b s2.LatLng) float64 {
	return a.Distance(b).Radians() * EarthRadiusMeters
}

// RegionCell returns the region cell containing the point
func RegionCell(p s2.LatLng) s2.CellID {
	return s2.CellIDFromLatLng(p).Parent(RegionCellLevel)
}
