package timeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/golang/geo/s2"

	"github.com/jengzang/records-timeline/internal/classifier"
	"github.com/jengzang/records-timeline/internal/models"
	"github.com/jengzang/records-timeline/internal/spatial"
)

// DateRange is a closed time interval
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Duration returns End - Start
func (r DateRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Equal compares both ends as instants
func (r DateRange) Equal(other DateRange) bool {
	return r.Start.Equal(other.Start) && r.End.Equal(other.End)
}

type cached[T any] struct {
	value T
	valid bool
}

func (c *cached[T]) get(compute func() T) T {
	if !c.valid {
		c.value = compute()
		c.valid = true
	}
	return c.value
}

type centroid struct {
	latLng s2.LatLng
	ok     bool
}

type dateRange struct {
	r  DateRange
	ok bool
}

// derived holds every lazily computed value. Invalidation replaces it whole.
type derived struct {
	sorted            cached[[]*models.Sample]
	dateRange         cached[dateRange]
	centroid          cached[centroid]
	radius            cached[spatial.Radius]
	distance          cached[float64]
	results           cached[*classifier.Results]
	unfilteredResults cached[*classifier.Results]
}

// Segment is a run of samples with compatible activity type and recording state,
// plus an optional boundary sample it shares with the following segment.
//
// A Segment is not safe for concurrent use.
type Segment struct {
	samples  map[*models.Sample]struct{}
	boundary *models.Sample

	manualStartDate      *time.Time
	manualEndDate        *time.Time
	manualRecordingState *models.RecordingState
	manualActivityType   *models.ActivityType

	owner      ItemRef
	thresholds Thresholds

	cache derived
}

// SegmentOption configures a Segment at construction
type SegmentOption func(*Segment)

// WithOwner sets the owning item reference
func WithOwner(ref ItemRef) SegmentOption {
	return func(s *Segment) {
		s.owner = ref
	}
}

// WithThresholds sets the validity thresholds
func WithThresholds(t Thresholds) SegmentOption {
	return func(s *Segment) {
		s.thresholds = t
	}
}

// NewSegment creates a segment holding the given samples
func NewSegment(samples []*models.Sample, opts ...SegmentOption) *Segment {
	s := &Segment{
		samples:    make(map[*models.Sample]struct{}, len(samples)),
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, sample := range samples {
		if sample != nil {
			s.samples[sample] = struct{}{}
		}
	}
	return s
}

// NewPlaceholderSegment creates an empty segment whose start date, activity type and
// recording state are set by hand until samples arrive
func NewPlaceholderSegment(start time.Time, activityType models.ActivityType, state models.RecordingState, opts ...SegmentOption) *Segment {
	s := NewSegment(nil, opts...)
	s.manualStartDate = &start
	s.manualActivityType = &activityType
	s.manualRecordingState = &state
	return s
}

// Add inserts samples. Samples already present are ignored.
func (s *Segment) Add(samples ...*models.Sample) {
	for _, sample := range samples {
		if sample != nil {
			s.samples[sample] = struct{}{}
		}
	}
	s.Invalidate()
}

// Remove deletes samples. Non-members are ignored.
func (s *Segment) Remove(samples ...*models.Sample) {
	for _, sample := range samples {
		delete(s.samples, sample)
	}
	s.Invalidate()
}

// Contains reports whether the sample is a member
func (s *Segment) Contains(sample *models.Sample) bool {
	_, ok := s.samples[sample]
	return ok
}

// Count returns the number of member samples
func (s *Segment) Count() int {
	return len(s.samples)
}

// Boundary returns the shared trailing boundary sample, nil if none.
// The sample also belongs to the next segment and must not be modified.
func (s *Segment) Boundary() *models.Sample {
	return s.boundary
}

// SetBoundary replaces the trailing boundary sample
func (s *Segment) SetBoundary(sample *models.Sample) {
	s.boundary = sample
	s.Invalidate()
}

// SetEndDate sets or clears the manual end date override
func (s *Segment) SetEndDate(date *time.Time) {
	if date != nil {
		d := *date
		date = &d
	}
	s.manualEndDate = date
	s.Invalidate()
}

// Owner returns the item reference
func (s *Segment) Owner() ItemRef {
	return s.owner
}

// SetOwner replaces the item reference. Classifier results depend on the item, so
// this invalidates too.
func (s *Segment) SetOwner(ref ItemRef) {
	s.owner = ref
	s.Invalidate()
}

// Thresholds returns the validity thresholds in use
func (s *Segment) Thresholds() Thresholds {
	return s.thresholds
}

// Invalidate drops every derived value
func (s *Segment) Invalidate() {
	s.cache = derived{}
}

// CanAdd reports whether sample may join this segment. It does not modify the segment.
func (s *Segment) CanAdd(sample *models.Sample) bool {
	if sample == nil {
		return false
	}

	activityType := s.ActivityType()

	// motion items always record, so only the activity type matters
	if item, ok := s.owner.Resolve(); ok && item.IsPath() && !item.IsDataGap() {
		if sample.ActivityType == activityType {
			return true
		}
	}

	state := s.RecordingState()
	if state == models.RecordingStateUnknown {
		return false
	}

	if sample.RecordingState == state && sample.ActivityType == activityType {
		return true
	}

	if state.IsOff() && sample.RecordingState.IsOff() {
		return true
	}

	if state.IsSleepLike() && sample.RecordingState.IsSleepLike() {
		return true
	}

	return false
}

// SortedSamples returns the members ordered by date, ties broken by sample ID
// and then by sample values.
// The returned slice is shared with the cache and must not be modified.
func (s *Segment) SortedSamples() []*models.Sample {
	return s.cache.sorted.get(func() []*models.Sample {
		sorted := make([]*models.Sample, 0, len(s.samples))
		for sample := range s.samples {
			sorted = append(sorted, sample)
		}
		sort.SliceStable(sorted, func(i, j int) bool {
			return models.CompareSamples(sorted[i], sorted[j]) < 0
		})
		return sorted
	})
}

// StartDate is the manual start date, else the earliest sample date
func (s *Segment) StartDate() (time.Time, bool) {
	if s.manualStartDate != nil {
		return *s.manualStartDate, true
	}
	sorted := s.SortedSamples()
	if len(sorted) == 0 {
		return time.Time{}, false
	}
	return sorted[0].Date, true
}

// EndDate is the manual end date, else the boundary sample date, else the latest
// sample date
func (s *Segment) EndDate() (time.Time, bool) {
	if s.manualEndDate != nil {
		return *s.manualEndDate, true
	}
	if s.boundary != nil {
		return s.boundary.Date, true
	}
	sorted := s.SortedSamples()
	if len(sorted) == 0 {
		return time.Time{}, false
	}
	return sorted[len(sorted)-1].Date, true
}

// DateRange is defined when both ends are
func (s *Segment) DateRange() (DateRange, bool) {
	dr := s.cache.dateRange.get(func() dateRange {
		start, ok := s.StartDate()
		if !ok {
			return dateRange{}
		}
		end, ok := s.EndDate()
		if !ok {
			return dateRange{}
		}
		return dateRange{r: DateRange{Start: start, End: end}, ok: true}
	})
	return dr.r, dr.ok
}

// Duration is the date range span, 0 when undefined
func (s *Segment) Duration() time.Duration {
	if r, ok := s.DateRange(); ok {
		return r.Duration()
	}
	return 0
}

// Centroid is the accuracy weighted center of the located samples
func (s *Segment) Centroid() (s2.LatLng, bool) {
	c := s.cache.centroid.get(func() centroid {
		var points []spatial.WeightedPoint
		for _, sample := range s.SortedSamples() {
			if !sample.HasUsableLocation() {
				continue
			}
			points = append(points, spatial.WeightedPoint{
				LatLng:   sample.Location.LatLng(),
				Accuracy: sample.Location.HorizontalAccuracy,
			})
		}
		latLng, ok := spatial.WeightedCentroid(points)
		return centroid{latLng: latLng, ok: ok}
	})
	return c.latLng, c.ok
}

// Radius is the dispersion of the located samples around the centroid
func (s *Segment) Radius() spatial.Radius {
	return s.cache.radius.get(func() spatial.Radius {
		center, ok := s.Centroid()
		if !ok {
			return spatial.ZeroRadius
		}
		return spatial.RadiusFrom(center, s.locatedPoints())
	})
}

// Distance is the path length through the located samples in date order, in meters
func (s *Segment) Distance() float64 {
	return s.cache.distance.get(func() float64 {
		return spatial.PathLength(s.locatedPoints())
	})
}

func (s *Segment) locatedPoints() []s2.LatLng {
	var points []s2.LatLng
	for _, sample := range s.SortedSamples() {
		if sample.HasUsableLocation() {
			points = append(points, sample.Location.LatLng())
		}
	}
	return points
}

// RecordingState is the manual state, else recording for segments of a motion item,
// else the first sample's state. Unknown when none applies.
func (s *Segment) RecordingState() models.RecordingState {
	if s.manualRecordingState != nil {
		return *s.manualRecordingState
	}
	if item, ok := s.owner.Resolve(); ok && item.IsPath() && !item.IsDataGap() {
		return models.RecordingStateRecording
	}
	if sorted := s.SortedSamples(); len(sorted) > 0 {
		return sorted[0].RecordingState
	}
	return models.RecordingStateUnknown
}

// ActivityType is the manual type, else the first sample's type. Unknown when none.
func (s *Segment) ActivityType() models.ActivityType {
	if s.manualActivityType != nil {
		return *s.manualActivityType
	}
	if sorted := s.SortedSamples(); len(sorted) > 0 {
		return sorted[0].ActivityType
	}
	return models.ActivityTypeUnknown
}

// IsValid reports whether the segment is structurally usable
func (s *Segment) IsValid() bool {
	duration := s.Duration()

	if s.ActivityType() == models.ActivityTypeStationary {
		if len(s.samples) == 0 {
			return false
		}
		return duration >= s.thresholds.Visit.MinimumValidDuration
	}

	if len(s.samples) < s.thresholds.Path.MinimumValidSamples {
		return false
	}
	if duration < s.thresholds.Path.MinimumValidDuration {
		return false
	}
	return s.Distance() >= s.thresholds.Path.MinimumValidDistance
}

// IsInvalid is !IsValid
func (s *Segment) IsInvalid() bool {
	return !s.IsValid()
}

// IsWorthKeeping reports whether a valid segment is significant enough to retain
func (s *Segment) IsWorthKeeping() bool {
	if !s.IsValid() {
		return false
	}

	duration := s.Duration()

	if s.ActivityType() == models.ActivityTypeStationary {
		return duration >= s.thresholds.Visit.MinimumKeeperDuration
	}

	if duration < s.thresholds.Path.MinimumKeeperDuration {
		return false
	}
	return s.Distance() >= s.thresholds.Path.MinimumKeeperDistance
}

// ClassifierResults classifies the segment with its item's classifier. Final results
// are kept until the next mutation; results with MoreComing set are returned without
// being kept. Returns nil when there is no item or no classifier.
func (s *Segment) ClassifierResults(filtered bool) *classifier.Results {
	cache := &s.cache.unfilteredResults
	if filtered {
		cache = &s.cache.results
	}
	if cache.valid {
		return cache.value
	}

	item, ok := s.owner.Resolve()
	if !ok {
		return nil
	}
	c := item.Classifier()
	if c == nil {
		return nil
	}

	results := c.Classify(s, filtered)
	if results == nil || results.MoreComing {
		return results
	}

	cache.value = results
	cache.valid = true
	return results
}

// Equal reports whether both segments span the same date range and hold the same
// number of samples. It does not compare samples one by one.
func (s *Segment) Equal(other *Segment) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.samples) != len(other.samples) {
		return false
	}
	a, aok := s.DateRange()
	b, bok := other.DateRange()
	if aok != bok {
		return false
	}
	return !aok || a.Equal(b)
}

func (s *Segment) String() string {
	r, ok := s.DateRange()
	if !ok {
		return fmt.Sprintf("Segment(%s, %d samples)", s.ActivityType(), len(s.samples))
	}
	return fmt.Sprintf("Segment(%s, %d samples, %s - %s)",
		s.ActivityType(), len(s.samples), r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}
