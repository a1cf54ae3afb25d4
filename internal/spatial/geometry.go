package spatial

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"gonum.org/v1/gonum/stat"
)

// MinAccuracyMeters floors horizontal accuracy when converting it to a weight
const MinAccuracyMeters = 1.0

// WeightedPoint is a point with its horizontal accuracy in meters
type WeightedPoint struct {
	LatLng   s2.LatLng
	Accuracy float64
}

// Weight is the centroid weight of the point: 1 / max(accuracy, 1m)
func (p WeightedPoint) Weight() float64 {
	return 1 / math.Max(p.Accuracy, MinAccuracyMeters)
}

// Radius is the dispersion of points around a center
type Radius struct {
	Mean float64 `json:"mean"` // Mean distance from center in meters
	SD   float64 `json:"sd"`   // Population standard deviation of the distances
}

// ZeroRadius is returned when no center can be computed
var ZeroRadius = Radius{}

// With1SD returns mean + 1 standard deviation
func (r Radius) With1SD() float64 {
	return r.Mean + r.SD
}

// With2SD returns mean + 2 standard deviations
func (r Radius) With2SD() float64 {
	return r.Mean + 2*r.SD
}

// WeightedCentroid calculates the accuracy weighted centroid of a set of points.
// Each point is taken as a unit vector on the sphere, scaled by its weight, and the
// normalised sum is projected back to a LatLng. Returns false for an empty input or
// when the weighted vectors cancel out.
func WeightedCentroid(points []WeightedPoint) (s2.LatLng, bool) {
	if len(points) == 0 {
		return s2.LatLng{}, false
	}
	if len(points) == 1 {
		return points[0].LatLng, true
	}

	var sum r3.Vector
	for _, p := range points {
		v := s2.PointFromLatLng(p.LatLng).Vector
		sum = sum.Add(v.Mul(p.Weight()))
	}

	if sum.Norm() < 1e-15 {
		return s2.LatLng{}, false
	}

	return s2.LatLngFromPoint(s2.Point{Vector: sum.Normalize()}), true
}

// RadiusFrom calculates the mean and population standard deviation of the distances
// from center to each point
func RadiusFrom(center s2.LatLng, points []s2.LatLng) Radius {
	if len(points) == 0 {
		return ZeroRadius
	}

	distances := make([]float64, len(points))
	for i, p := range points {
		distances[i] = Distance(center, p)
	}

	mean, sd := stat.PopMeanStdDev(distances, nil)
	if math.IsNaN(sd) {
		sd = 0
	}
	return Radius{Mean: mean, SD: sd}
}

// PathLength calculates the total length of a path (sequence of points) in meters
func PathLength(points []s2.LatLng) float64 {
	if len(points) < 2 {
		return 0
	}

	var totalDist float64
	for i := 1; i < len(points); i++ {
		totalDist += Distance(points[i-1], points[i])
	}

	return totalDist
}
