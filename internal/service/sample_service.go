package service

import (
	"context"
	"fmt"
	"math"

	"github.com/jengzang/records-timeline/internal/models"
	"github.com/jengzang/records-timeline/internal/repository"
)

// MaxImportBatch is the largest number of samples accepted by one import
const MaxImportBatch = 10000

// SampleService handles business logic for samples
type SampleService struct {
	repo *repository.SampleRepository
}

// NewSampleService creates a new sample service
func NewSampleService(repo *repository.SampleRepository) *SampleService {
	return &SampleService{repo: repo}
}

// Import validates and stores samples, returning how many were written
func (s *SampleService) Import(ctx context.Context, samples []*models.Sample) (int, error) {
	if len(samples) == 0 {
		return 0, fmt.Errorf("no samples to import")
	}
	if len(samples) > MaxImportBatch {
		return 0, fmt.Errorf("too many samples: %d (max %d)", len(samples), MaxImportBatch)
	}

	for i, sample := range samples {
		if err := validateSample(sample); err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
	}

	n, err := s.repo.InsertBatch(ctx, samples)
	if err != nil {
		return 0, fmt.Errorf("failed to import samples: %w", err)
	}
	return n, nil
}

// GetSamples retrieves samples in a time range
func (s *SampleService) GetSamples(ctx context.Context, filter models.SampleFilter) (*models.SamplesResponse, error) {
	if filter.StartTime > 0 && filter.EndTime > 0 && filter.EndTime < filter.StartTime {
		return nil, fmt.Errorf("endTime must not be before startTime")
	}

	samples, err := s.repo.GetSamples(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get samples: %w", err)
	}

	return &models.SamplesResponse{
		Data:  samples,
		Total: len(samples),
	}, nil
}

func validateSample(sample *models.Sample) error {
	if sample == nil {
		return fmt.Errorf("sample is null")
	}
	if sample.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if loc := sample.Location; loc != nil {
		if math.Abs(loc.Latitude) > 90 || math.Abs(loc.Longitude) > 180 {
			return fmt.Errorf("coordinate out of range: %f,%f", loc.Latitude, loc.Longitude)
		}
	}
	return nil
}
