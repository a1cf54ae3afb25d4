package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jengzang/records-timeline/internal/analysis/segmentation"
	"github.com/jengzang/records-timeline/internal/classifier"
	"github.com/jengzang/records-timeline/internal/models"
	"github.com/jengzang/records-timeline/internal/repository"
	"github.com/jengzang/records-timeline/internal/timeline"
)

var (
	// ErrSegmentNotFound is returned when a stored summary does not exist
	ErrSegmentNotFound = errors.New("segment not found")
	// ErrInvalidRange is returned when a range does not end after it starts
	ErrInvalidRange = errors.New("invalid range")
)

// RebuildResult reports what a timeline rebuild produced
type RebuildResult struct {
	Samples  int `json:"samples"`
	Items    int `json:"items"`
	Segments int `json:"segments"`
	Keepers  int `json:"keepers"`
	Invalid  int `json:"invalid"`
	Stored   int `json:"stored"`

	Summaries []models.SegmentSummary `json:"-"`
}

// TimelineService builds, classifies and persists timeline segments
type TimelineService struct {
	samples    *repository.SampleRepository
	segments   *repository.SegmentRepository
	classifier *classifier.RegionClassifier
	builder    *segmentation.Builder
	logger     hclog.Logger
	now        func() time.Time
}

// NewTimelineService creates a new timeline service
func NewTimelineService(
	samples *repository.SampleRepository,
	segments *repository.SegmentRepository,
	c *classifier.RegionClassifier,
	cfg segmentation.Config,
	logger hclog.Logger,
) *TimelineService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	var cls timeline.Classifier
	if c != nil {
		cls = c
	}
	return &TimelineService{
		samples:    samples,
		segments:   segments,
		classifier: c,
		builder:    segmentation.NewBuilder(cfg, cls, logger),
		logger:     logger.Named("timeline"),
		now:        time.Now,
	}
}

// Build segments and classifies samples in [from, to] without persisting anything
func (s *TimelineService) Build(ctx context.Context, from, to time.Time) (*RebuildResult, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidRange, from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	samples, err := s.samples.GetSamplesInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}

	tl := s.builder.Build(samples)
	s.classify(ctx, tl)

	summaries := segmentation.Summarize(tl, s.now().UTC())
	result := &RebuildResult{
		Samples:   len(samples),
		Items:     len(tl.Items()),
		Segments:  len(summaries),
		Summaries: summaries,
	}
	for _, summary := range summaries {
		if summary.IsWorthKeeping {
			result.Keepers++
		}
		if !summary.IsValid {
			result.Invalid++
		}
	}
	return result, nil
}

// Rebuild replaces the stored summaries overlapping [from, to] with a fresh build.
// The range is first widened to cover those summaries so none of their samples
// are left without a summary.
func (s *TimelineService) Rebuild(ctx context.Context, from, to time.Time) (*RebuildResult, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidRange, from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	start, end, err := s.segments.CoveringRange(ctx, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to widen range: %w", err)
	}
	if start < from.Unix() {
		from = time.Unix(start, 0).UTC()
	}
	if end > to.Unix() {
		// stored ends are truncated to the second
		to = time.Unix(end+1, 0).Add(-time.Millisecond).UTC()
	}

	result, err := s.Build(ctx, from, to)
	if err != nil {
		return nil, err
	}

	stored, err := s.segments.ReplaceRange(ctx, from.Unix(), to.Unix(), result.Summaries)
	if err != nil {
		return nil, fmt.Errorf("failed to store segments: %w", err)
	}
	result.Stored = stored

	s.logger.Info("timeline rebuilt",
		"from", from.Format(time.RFC3339), "to", to.Format(time.RFC3339),
		"samples", result.Samples, "segments", result.Segments, "keepers", result.Keepers)
	return result, nil
}

// GetSegments retrieves stored summaries with filtering and pagination
func (s *TimelineService) GetSegments(ctx context.Context, filter models.SegmentFilter) (*models.SegmentsResponse, error) {
	filter.Normalize()

	segments, total, err := s.segments.GetSegments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get segments: %w", err)
	}

	totalPages := int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize))
	return &models.SegmentsResponse{
		Data:       segments,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetSegmentByID retrieves a single stored summary
func (s *TimelineService) GetSegmentByID(ctx context.Context, id int64) (*models.SegmentSummary, error) {
	segment, err := s.segments.GetSegmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get segment: %w", err)
	}
	if segment == nil {
		return nil, ErrSegmentNotFound
	}
	return segment, nil
}

// classify asks every segment for results once, loads the regions that were missing,
// and leaves the final results to be computed on the next request. Provisional
// results are never cached by segments, so a failed load only costs region detail.
func (s *TimelineService) classify(ctx context.Context, tl *segmentation.Timeline) {
	if s.classifier == nil {
		return
	}

	provisional := 0
	for _, seg := range tl.Segments() {
		if res := seg.ClassifierResults(true); res != nil && res.MoreComing {
			provisional++
		}
	}
	if provisional == 0 {
		return
	}

	regions := s.classifier.PendingCount()
	if err := s.classifier.LoadPending(ctx); err != nil {
		s.logger.Warn("failed to load region models, using base model", "regions", regions, "error", err)
		return
	}
	s.logger.Debug("loaded region models", "segments", provisional, "regions", regions)
}
