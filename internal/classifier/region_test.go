package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/records-timeline/internal/models"
	"github.com/jengzang/records-timeline/internal/spatial"
)

type stubSegment struct {
	samples  []*models.Sample
	center   *s2.LatLng
	distance float64
	duration time.Duration
}

func (s *stubSegment) SortedSamples() []*models.Sample { return s.samples }
func (s *stubSegment) Distance() float64                { return s.distance }
func (s *stubSegment) Duration() time.Duration          { return s.duration }
func (s *stubSegment) Centroid() (s2.LatLng, bool) {
	if s.center == nil {
		return s2.LatLng{}, false
	}
	return *s.center, true
}

func withSpeeds(accuracy float64, speeds ...float64) []*models.Sample {
	var out []*models.Sample
	for i, v := range speeds {
		out = append(out, models.NewSample(time.Unix(int64(i), 0), &models.Location{
			Latitude: 22.5, Longitude: 114, HorizontalAccuracy: accuracy, Speed: v,
		}, models.ActivityTypeUnknown, models.RecordingStateRecording))
	}
	return out
}

type memoryStore struct {
	calls int
	rows  map[uint64][]models.ActivityModel
	err   error
}

func (m *memoryStore) LoadModels(ctx context.Context, cellID uint64) ([]models.ActivityModel, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.rows[cellID], nil
}

func TestBaseModel_Score(t *testing.T) {
	cases := []struct {
		speed float64
		want  models.ActivityType
	}{
		{0, models.ActivityTypeStationary},
		{1.3, models.ActivityTypeWalking},
		{3.2, models.ActivityTypeRunning},
		{5.5, models.ActivityTypeCycling},
		{15, models.ActivityTypeCar},
		{40, models.ActivityTypeTrain},
		{230, models.ActivityTypeAirplane},
	}
	for _, c := range cases {
		scores := BaseModel().Score(c.speed)
		require.NotEmpty(t, scores)
		assert.Equal(t, c.want, scores[0].Type, "speed %.1f", c.speed)

		var total float64
		for i, s := range scores {
			total += s.Score
			if i > 0 {
				assert.GreaterOrEqual(t, scores[i-1].Score, s.Score)
			}
		}
		assert.InDelta(t, 1, total, 1e-9)
	}
}

func TestNewModel_SkipsEmptyRows(t *testing.T) {
	m := NewModel([]models.ActivityModel{
		{ActivityType: models.ActivityTypeTram, MeanSpeed: 8, SpeedSD: 0, SampleCount: 10},
		{ActivityType: models.ActivityTypeBus, MeanSpeed: 6, SpeedSD: 2, SampleCount: 0},
		{ActivityType: models.ActivityTypeUnknown, MeanSpeed: 1, SpeedSD: 1, SampleCount: 5},
	})
	scores := m.Score(8)
	require.Len(t, scores, 1)
	assert.Equal(t, models.ActivityTypeTram, scores[0].Type)
	assert.True(t, NewModel(nil).IsEmpty())
}

func TestRegionClassifier_NoEvidence(t *testing.T) {
	c := NewRegionClassifier(nil, nil)
	assert.Nil(t, c.Classify(nil, true))
	assert.Nil(t, c.Classify(&stubSegment{}, true))
}

func TestRegionClassifier_SpeedSources(t *testing.T) {
	c := NewRegionClassifier(nil, nil)

	t.Run("reported speeds", func(t *testing.T) {
		r := c.Classify(&stubSegment{samples: withSpeeds(5, 1.2, 1.5, 1.4)}, false)
		best, ok := r.Best()
		require.True(t, ok)
		assert.Equal(t, models.ActivityTypeWalking, best.Type)
		assert.False(t, r.MoreComing)
	})

	t.Run("distance over duration when speed is unknown", func(t *testing.T) {
		r := c.Classify(&stubSegment{
			samples:  withSpeeds(5, -1, -1),
			distance: 1500,
			duration: 100 * time.Second,
		}, false)
		best, _ := r.Best()
		assert.Equal(t, models.ActivityTypeCar, best.Type)
	})

	t.Run("filtered drops inaccurate samples", func(t *testing.T) {
		samples := append(withSpeeds(5, 1.4), withSpeeds(500, 30, 30, 30)...)
		unfiltered, _ := c.Classify(&stubSegment{samples: samples}, false).Best()
		filtered, _ := c.Classify(&stubSegment{samples: samples}, true).Best()
		assert.Equal(t, models.ActivityTypeWalking, filtered.Type)
		assert.NotEqual(t, models.ActivityTypeWalking, unfiltered.Type)
	})
}

func TestRegionClassifier_RegionLoading(t *testing.T) {
	center := s2.LatLngFromDegrees(22.5, 114)
	cell := uint64(spatial.RegionCell(center))
	store := &memoryStore{rows: map[uint64][]models.ActivityModel{
		cell: {{CellID: cell, ActivityType: models.ActivityTypeTram, MeanSpeed: 1.4, SpeedSD: 0.3, SampleCount: 50}},
	}}
	c := NewRegionClassifier(store, nil)
	seg := &stubSegment{samples: withSpeeds(5, 1.4, 1.4), center: &center}

	first := c.Classify(seg, true)
	require.NotNil(t, first)
	assert.True(t, first.MoreComing)
	best, _ := first.Best()
	assert.Equal(t, models.ActivityTypeWalking, best.Type)
	assert.Equal(t, 1, c.PendingCount())

	again := c.Classify(seg, true)
	assert.True(t, again.MoreComing)
	assert.Equal(t, 1, c.PendingCount())

	require.NoError(t, c.LoadPending(context.Background()))
	assert.Equal(t, 0, c.PendingCount())
	assert.Equal(t, 1, store.calls)

	final := c.Classify(seg, true)
	assert.False(t, final.MoreComing)
	assert.Greater(t, scoreOf(final, models.ActivityTypeTram), 0.0)
	assert.Greater(t, scoreOf(final, models.ActivityTypeCar), 0.0, "base types are kept")

	c.Forget()
	assert.True(t, c.Classify(seg, true).MoreComing)
}

func TestRegionClassifier_ForgetDropsQueuedRegions(t *testing.T) {
	center := s2.LatLngFromDegrees(22.5, 114)
	store := &memoryStore{}
	c := NewRegionClassifier(store, nil)
	seg := &stubSegment{samples: withSpeeds(5, 1.4), center: &center}

	assert.True(t, c.Classify(seg, true).MoreComing)
	require.Equal(t, 1, c.PendingCount())

	c.Forget()
	assert.Zero(t, c.PendingCount())
	require.NoError(t, c.LoadPending(context.Background()))
	assert.Zero(t, store.calls, "nothing queued before the reset is loaded")

	// the region is queued again on the next request
	assert.True(t, c.Classify(seg, true).MoreComing)
	assert.Equal(t, 1, c.PendingCount())
}

func TestRegionClassifier_EmptyRegionResolves(t *testing.T) {
	center := s2.LatLngFromDegrees(-33.86, 151.2)
	c := NewRegionClassifier(&memoryStore{}, nil)
	seg := &stubSegment{samples: withSpeeds(5, 14), center: &center}

	assert.True(t, c.Classify(seg, false).MoreComing)
	require.NoError(t, c.LoadPending(context.Background()))
	assert.False(t, c.Classify(seg, false).MoreComing)
}

func TestRegionClassifier_LoadErrorKeepsPending(t *testing.T) {
	center := s2.LatLngFromDegrees(51.5, -0.1)
	store := &memoryStore{err: errors.New("disk gone")}
	c := NewRegionClassifier(store, nil)
	c.Classify(&stubSegment{samples: withSpeeds(5, 3), center: &center}, false)

	err := c.LoadPending(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
	assert.Equal(t, 1, c.PendingCount())
}

func TestRegionClassifier_Options(t *testing.T) {
	custom := NewModel([]models.ActivityModel{{ActivityType: models.ActivityTypeBoat, MeanSpeed: 5, SpeedSD: 1, SampleCount: 1}})
	c := NewRegionClassifier(nil, nil, WithBaseModel(custom), WithMaxFilteredAccuracy(10))

	samples := append(withSpeeds(5, 5), withSpeeds(20, 50)...)
	r := c.Classify(&stubSegment{samples: samples}, true)
	require.Len(t, r.Scores, 1)
	assert.Equal(t, models.ActivityTypeBoat, r.Scores[0].Type)
}

func TestResults_NilSafe(t *testing.T) {
	var r *Results
	_, ok := r.Best()
	assert.False(t, ok)
}

func scoreOf(r *Results, t models.ActivityType) float64 {
	for _, s := range r.Scores {
		if s.Type == t {
			return s.Score
		}
	}
	return 0
}
