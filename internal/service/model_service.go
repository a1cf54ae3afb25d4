package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/golang/geo/s2"
	"github.com/hashicorp/go-hclog"
	"gonum.org/v1/gonum/stat"

	"github.com/jengzang/records-timeline/internal/classifier"
	"github.com/jengzang/records-timeline/internal/models"
	"github.com/jengzang/records-timeline/internal/repository"
	"github.com/jengzang/records-timeline/internal/spatial"
)

// DefaultMinModelSamples is the fewest labelled speeds needed to learn a region model
const DefaultMinModelSamples = 10

// ModelRebuildResult reports what a model rebuild learned
type ModelRebuildResult struct {
	Samples int `json:"samples"`
	Cells   int `json:"cells"`
	Models  int `json:"models"`
}

// ModelService learns region activity models from stored samples
type ModelService struct {
	samples    *repository.SampleRepository
	models     *repository.ModelRepository
	classifier *classifier.RegionClassifier
	minSamples int
	logger     hclog.Logger
	now        func() time.Time
}

// NewModelService creates a new model service. classifier may be nil.
func NewModelService(
	samples *repository.SampleRepository,
	modelRepo *repository.ModelRepository,
	c *classifier.RegionClassifier,
	logger hclog.Logger,
) *ModelService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ModelService{
		samples:    samples,
		models:     modelRepo,
		classifier: c,
		minSamples: DefaultMinModelSamples,
		logger:     logger.Named("models"),
		now:        time.Now,
	}
}

type modelKey struct {
	cell         s2.CellID
	activityType models.ActivityType
}

// Rebuild learns per-region, per-type speed distributions from every labelled sample
// with a valid fix and a reported speed, and replaces the stored models.
func (s *ModelService) Rebuild(ctx context.Context) (*ModelRebuildResult, error) {
	samples, err := s.samples.GetSamples(ctx, models.SampleFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}

	speeds := make(map[modelKey][]float64)
	for _, sample := range samples {
		if !sample.HasUsableLocation() || sample.Location.Speed < 0 {
			continue
		}
		if sample.ActivityType == models.ActivityTypeUnknown || sample.ActivityType == models.ActivityTypeBogus {
			continue
		}
		key := modelKey{
			cell:         spatial.RegionCell(sample.Location.LatLng()),
			activityType: sample.ActivityType,
		}
		speeds[key] = append(speeds[key], sample.Location.Speed)
	}

	now := s.now().UTC()
	cells := make(map[s2.CellID]struct{})
	var rows []models.ActivityModel
	for key, values := range speeds {
		if len(values) < s.minSamples {
			continue
		}
		mean, sd := stat.MeanStdDev(values, nil)
		rows = append(rows, models.ActivityModel{
			CellID:       uint64(key.cell),
			ActivityType: key.activityType,
			MeanSpeed:    mean,
			SpeedSD:      sd,
			SampleCount:  len(values),
			UpdatedAt:    now,
		})
		cells[key.cell] = struct{}{}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CellID != rows[j].CellID {
			return rows[i].CellID < rows[j].CellID
		}
		return rows[i].ActivityType < rows[j].ActivityType
	})

	if err := s.models.ReplaceAll(ctx, rows); err != nil {
		return nil, fmt.Errorf("failed to store models: %w", err)
	}
	if s.classifier != nil {
		s.classifier.Forget()
	}

	s.logger.Info("region models rebuilt", "samples", len(samples), "cells", len(cells), "models", len(rows))
	return &ModelRebuildResult{
		Samples: len(samples),
		Cells:   len(cells),
		Models:  len(rows),
	}, nil
}
