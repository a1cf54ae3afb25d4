package segmentation

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/records-timeline/internal/classifier"
	"github.com/jengzang/records-timeline/internal/models"
)

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

const metersNorth = 1 / 111195.0

func run(start, end, step time.Duration, metersPerStep float64, activity models.ActivityType, state models.RecordingState) []*models.Sample {
	var out []*models.Sample
	var north float64
	for at := start; at <= end; at += step {
		out = append(out, models.NewSample(t0.Add(at), &models.Location{
			Latitude:           22.5 + north*metersNorth,
			Longitude:          114,
			HorizontalAccuracy: 5,
			Speed:              -1,
			Course:             -1,
		}, activity, state))
		north += metersPerStep
	}
	return out
}

// morning is a short stay, a walk, a drive, a long silence and another stay
func morning() []*models.Sample {
	var samples []*models.Sample
	samples = append(samples, run(0, 60*time.Second, 10*time.Second, 0, models.ActivityTypeStationary, models.RecordingStateRecording)...)
	samples = append(samples, run(70*time.Second, 190*time.Second, 10*time.Second, 15, models.ActivityTypeWalking, models.RecordingStateRecording)...)
	samples = append(samples, run(200*time.Second, 260*time.Second, 10*time.Second, 150, models.ActivityTypeCar, models.RecordingStateRecording)...)
	samples = append(samples, run(1460*time.Second, 1470*time.Second, 10*time.Second, 0, models.ActivityTypeStationary, models.RecordingStateRecording)...)
	return samples
}

func reversed(in []*models.Sample) []*models.Sample {
	out := make([]*models.Sample, len(in))
	for i, s := range in {
		out[len(in)-1-i] = s
	}
	return out
}

func TestBuilder_Empty(t *testing.T) {
	tl := NewBuilder(DefaultConfig(), nil, nil).Build(nil)
	assert.Empty(t, tl.Items())
	assert.Empty(t, tl.Segments())
}

func TestBuilder_Build(t *testing.T) {
	samples := morning()
	tl := NewBuilder(DefaultConfig(), nil, nil).Build(reversed(samples))

	var kinds []string
	for _, item := range tl.Items() {
		kinds = append(kinds, item.Kind)
	}
	want := []string{models.ItemKindVisit, models.ItemKindPath, models.ItemKindGap, models.ItemKindVisit}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("item kinds mismatch (-want +got):\n%s", diff)
	}

	segments := tl.Segments()
	require.Len(t, segments, 5)

	visit, walk, drive, gap, last := segments[0], segments[1], segments[2], segments[3], segments[4]

	assert.Equal(t, 7, visit.Count())
	assert.Same(t, samples[7], visit.Boundary(), "first walking sample closes the visit")
	assert.Equal(t, 70*time.Second, visit.Duration())
	assert.True(t, visit.IsValid())
	assert.False(t, visit.IsWorthKeeping())

	assert.Equal(t, 13, walk.Count())
	assert.True(t, walk.Contains(samples[7]))
	assert.Equal(t, 130*time.Second, walk.Duration())
	assert.InDelta(t, 180, walk.Distance(), 0.5)
	assert.True(t, walk.IsWorthKeeping())
	assert.Equal(t, models.RecordingStateRecording, walk.RecordingState())

	assert.Equal(t, 7, drive.Count())
	assert.Nil(t, drive.Boundary(), "silence closes without a boundary")
	assert.Equal(t, 60*time.Second, drive.Duration())

	assert.Zero(t, gap.Count())
	assert.Equal(t, models.RecordingStateOff, gap.RecordingState())
	assert.Equal(t, 1200*time.Second, gap.Duration())
	assert.False(t, gap.IsValid())

	assert.Equal(t, 2, last.Count())
	assert.Equal(t, models.ActivityTypeStationary, last.ActivityType())

	// walk and drive share the path item
	assert.Equal(t, walk.Owner().ID, drive.Owner().ID)
	assert.NotEqual(t, visit.Owner().ID, walk.Owner().ID)
}

func TestBuilder_OwnedPathsAcceptAnyState(t *testing.T) {
	tl := NewBuilder(DefaultConfig(), nil, nil).Build(morning())
	walk := tl.Segments()[1]

	sleepyWalk := models.NewSample(t0.Add(195*time.Second), nil, models.ActivityTypeWalking, models.RecordingStateSleeping)
	assert.True(t, walk.CanAdd(sleepyWalk))

	tl.Remove(walk.Owner().ID)
	assert.False(t, walk.CanAdd(sleepyWalk), "without its path the segment falls back to state rules")
	assert.Len(t, tl.Items(), 3)
}

func TestBuilder_SleepAndOffRuns(t *testing.T) {
	var samples []*models.Sample
	samples = append(samples, run(0, 30*time.Second, 10*time.Second, 0, models.ActivityTypeStationary, models.RecordingStateSleeping)...)
	samples = append(samples, run(40*time.Second, 60*time.Second, 10*time.Second, 0, models.ActivityTypeWalking, models.RecordingStateDeepSleeping)...)
	samples = append(samples, run(70*time.Second, 90*time.Second, 10*time.Second, 0, models.ActivityTypeWalking, models.RecordingStateOff)...)
	samples = append(samples, run(100*time.Second, 110*time.Second, 10*time.Second, 0, models.ActivityTypeCar, models.RecordingStateOff)...)

	tl := NewBuilder(DefaultConfig(), nil, nil).Build(samples)
	segments := tl.Segments()
	require.Len(t, segments, 2)
	assert.Equal(t, 7, segments[0].Count(), "sleep states merge regardless of type")
	assert.Equal(t, 5, segments[1].Count(), "off states merge regardless of type")
	assert.Equal(t, models.ItemKindGap, tl.Items()[1].Kind)
}

func TestSummarize(t *testing.T) {
	c := classifier.NewRegionClassifier(nil, nil)
	tl := NewBuilder(DefaultConfig(), c, nil).Build(morning())
	now := t0.Add(time.Hour)

	summaries := Summarize(tl, now)
	require.Len(t, summaries, 5)

	walk := summaries[1]
	assert.Equal(t, models.ItemKindPath, walk.ItemKind)
	assert.Equal(t, models.ActivityTypeWalking, walk.ActivityType)
	assert.Equal(t, models.ActivityTypeWalking, walk.ClassifiedType)
	assert.Equal(t, t0.Add(70*time.Second).Unix(), walk.StartTime)
	assert.Equal(t, t0.Add(200*time.Second).Unix(), walk.EndTime)
	assert.Equal(t, 13, walk.SampleCount)
	require.NotNil(t, walk.CenterLat)
	assert.InDelta(t, 22.5+90*metersNorth, *walk.CenterLat, 1e-6)
	assert.True(t, walk.IsWorthKeeping)
	assert.Equal(t, models.AlgoVersion, walk.AlgoVersion)
	assert.Equal(t, now, walk.CreatedAt)

	drive := summaries[2]
	assert.Equal(t, models.ActivityTypeCar, drive.ClassifiedType)

	gap := summaries[3]
	assert.Equal(t, models.ItemKindGap, gap.ItemKind)
	assert.Nil(t, gap.CenterLat)
	assert.Equal(t, models.ActivityTypeUnknown, gap.ClassifiedType, "gaps are not classified")
	assert.False(t, gap.IsValid)
}
