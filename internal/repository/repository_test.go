package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/records-timeline/internal/database"
	"github.com/jengzang/records-timeline/internal/models"
)

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenMigrated(database.Config{Path: database.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSampleRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSampleRepository(openDB(t))

	located := models.NewSample(t0.Add(1500*time.Millisecond), &models.Location{
		Latitude: 22.5, Longitude: 114.1, Altitude: 12, HorizontalAccuracy: 8, Speed: 1.2, Course: 90,
	}, models.ActivityTypeWalking, models.RecordingStateRecording)
	bare := models.NewSample(t0, nil, models.ActivityTypeUnknown, models.RecordingStateSleeping)

	n, err := repo.InsertBatch(ctx, []*models.Sample{located, nil, bare})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := repo.GetSamplesInRange(ctx, t0, t0.Add(time.Minute))
	require.NoError(t, err)
	if diff := cmp.Diff([]*models.Sample{bare, located}, got); diff != "" {
		t.Fatalf("samples mismatch (-want +got):\n%s", diff)
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	one, err := repo.GetSampleByID(ctx, located.ID)
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, models.ActivityTypeWalking, one.ActivityType)
}

func TestSampleRepository_UpsertAndFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewSampleRepository(openDB(t))

	var batch []*models.Sample
	for i := 0; i < 5; i++ {
		batch = append(batch, models.NewSample(t0.Add(time.Duration(i)*time.Minute), nil,
			models.ActivityTypeStationary, models.RecordingStateRecording))
	}
	_, err := repo.InsertBatch(ctx, batch)
	require.NoError(t, err)

	batch[0].ActivityType = models.ActivityTypeCar
	_, err = repo.InsertBatch(ctx, batch[:1])
	require.NoError(t, err)

	all, err := repo.GetSamples(ctx, models.SampleFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, models.ActivityTypeCar, all[0].ActivityType)

	ranged, err := repo.GetSamples(ctx, models.SampleFilter{
		StartTime: t0.Add(time.Minute).Unix(),
		EndTime:   t0.Add(3 * time.Minute).Unix(),
	})
	require.NoError(t, err)
	assert.Len(t, ranged, 3, "end second is inclusive")

	limited, err := repo.GetSamples(ctx, models.SampleFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	missing, err := repo.GetSampleByID(ctx, models.NewSample(t0, nil, 0, 0).ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func summary(itemKind string, start, end int64, keeper bool) models.SegmentSummary {
	lat, lon := 22.5, 114.0
	return models.SegmentSummary{
		ItemID:          "item",
		ItemKind:        itemKind,
		ActivityType:    models.ActivityTypeWalking,
		RecordingState:  models.RecordingStateRecording,
		SampleCount:     3,
		StartTime:       start,
		EndTime:         end,
		DurationSeconds: float64(end - start),
		DistanceMeters:  100,
		CenterLat:       &lat,
		CenterLon:       &lon,
		ClassifiedType:  models.ActivityTypeWalking,
		IsValid:         true,
		IsWorthKeeping:  keeper,
		AlgoVersion:     models.AlgoVersion,
		CreatedAt:       t0,
	}
}

func TestSegmentRepository_ReplaceAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewSegmentRepository(openDB(t))

	_, err := repo.ReplaceRange(ctx, 0, 1000, []models.SegmentSummary{
		summary(models.ItemKindPath, 100, 200, true),
		summary(models.ItemKindVisit, 200, 300, false),
		summary(models.ItemKindPath, 2000, 2100, true),
	})
	require.NoError(t, err)

	n, err := repo.ReplaceRange(ctx, 0, 1000, []models.SegmentSummary{
		summary(models.ItemKindVisit, 150, 250, false),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, total, err := repo.GetSegments(ctx, models.SegmentFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total, "segments outside the range survive")
	require.Len(t, all, 2)
	assert.EqualValues(t, 150, all[0].StartTime)
	assert.EqualValues(t, 2000, all[1].StartTime)
	require.NotNil(t, all[0].CenterLat)
	assert.Equal(t, 22.5, *all[0].CenterLat)
	assert.Equal(t, t0, all[0].CreatedAt)
	assert.Equal(t, models.RecordingStateRecording, all[0].RecordingState)

	keepers, total, err := repo.GetSegments(ctx, models.SegmentFilter{KeepersOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.True(t, keepers[0].IsWorthKeeping)

	visits, _, err := repo.GetSegments(ctx, models.SegmentFilter{ItemKind: "visit"})
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, models.ItemKindVisit, visits[0].ItemKind)

	page2, total, err := repo.GetSegments(ctx, models.SegmentFilter{Page: 2, PageSize: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, page2, 1)
	assert.EqualValues(t, 2000, page2[0].StartTime)

	byID, err := repo.GetSegmentByID(ctx, page2[0].ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, page2[0].ID, byID.ID)

	none, err := repo.GetSegmentByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSegmentRepository_ReplaceOverlapping(t *testing.T) {
	ctx := context.Background()
	repo := NewSegmentRepository(openDB(t))

	_, err := repo.ReplaceRange(ctx, 0, 3000, []models.SegmentSummary{
		summary(models.ItemKindVisit, 100, 600, true),   // crosses the start edge
		summary(models.ItemKindPath, 700, 800, true),    // inside
		summary(models.ItemKindVisit, 900, 1500, true),  // crosses the end edge
		summary(models.ItemKindVisit, 1500, 1600, true), // touches the widened end
		summary(models.ItemKindPath, 50, 100, true),     // touches the widened start
	})
	require.NoError(t, err)

	from, to, err := repo.CoveringRange(ctx, 500, 1000)
	require.NoError(t, err)
	assert.EqualValues(t, 100, from)
	assert.EqualValues(t, 1500, to)

	from, to, err = repo.CoveringRange(ctx, 5000, 6000)
	require.NoError(t, err)
	assert.EqualValues(t, 5000, from, "nothing stored there keeps the range")
	assert.EqualValues(t, 6000, to)

	_, err = repo.ReplaceRange(ctx, 500, 1000, []models.SegmentSummary{
		summary(models.ItemKindVisit, 100, 1500, true),
	})
	require.NoError(t, err)

	all, total, err := repo.GetSegments(ctx, models.SegmentFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	var spans [][2]int64
	for _, s := range all {
		spans = append(spans, [2]int64{s.StartTime, s.EndTime})
	}
	assert.Equal(t, [][2]int64{{50, 100}, {100, 1500}, {1500, 1600}}, spans)
}

func TestModelRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewModelRepository(openDB(t))

	// high bit set, as for s2 cells on the last faces
	const cell uint64 = 0xb000000000000000
	rows := []models.ActivityModel{
		{CellID: cell, ActivityType: models.ActivityTypeWalking, MeanSpeed: 1.3, SpeedSD: 0.4, SampleCount: 40, UpdatedAt: t0},
		{CellID: cell, ActivityType: models.ActivityTypeCar, MeanSpeed: 11, SpeedSD: 5, SampleCount: 80, UpdatedAt: t0},
		{CellID: 42, ActivityType: models.ActivityTypeCycling, MeanSpeed: 4, SpeedSD: 1, SampleCount: 10, UpdatedAt: t0},
	}
	require.NoError(t, repo.SaveModels(ctx, rows))

	got, err := repo.LoadModels(ctx, cell)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, cell, got[0].CellID)
	assert.Equal(t, models.ActivityTypeCar, got[0].ActivityType, "ordered by type name")

	cells, err := repo.CountCells(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, cells)

	require.NoError(t, repo.ReplaceAll(ctx, rows[2:]))
	got, err = repo.LoadModels(ctx, cell)
	require.NoError(t, err)
	assert.Empty(t, got)
}
