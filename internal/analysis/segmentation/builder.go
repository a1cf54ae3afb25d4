// Package segmentation turns a run of samples into a timeline of visits, paths and
// data gaps built from timeline segments.
package segmentation

import (
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jengzang/records-timeline/internal/models"
	"github.com/jengzang/records-timeline/internal/timeline"
)

// DefaultMaxGap is the longest silence between two samples before a data gap is inserted
const DefaultMaxGap = 15 * time.Minute

// Config holds builder parameters
type Config struct {
	MaxGap     time.Duration
	Thresholds timeline.Thresholds
}

// DefaultConfig returns the stock builder parameters
func DefaultConfig() Config {
	return Config{
		MaxGap:     DefaultMaxGap,
		Thresholds: timeline.DefaultThresholds(),
	}
}

// Builder splits samples into segments and groups segments into items
type Builder struct {
	cfg        Config
	classifier timeline.Classifier
	logger     hclog.Logger
}

// NewBuilder creates a builder. classifier may be nil.
func NewBuilder(cfg Config, classifier timeline.Classifier, logger hclog.Logger) *Builder {
	if cfg.MaxGap <= 0 {
		cfg.MaxGap = DefaultMaxGap
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Builder{
		cfg:        cfg,
		classifier: classifier,
		logger:     logger.Named("segmentation"),
	}
}

// Build creates a timeline from samples in any order
func (b *Builder) Build(samples []*models.Sample) *Timeline {
	tl := NewTimeline()
	segments := b.split(sortSamples(samples))
	if len(segments) == 0 {
		return tl
	}

	var path *Item
	for _, seg := range segments {
		kind := kindOf(seg)
		if kind == models.ItemKindPath && path != nil {
			path.Segments = append(path.Segments, seg)
			continue
		}
		if path != nil {
			tl.Append(path)
			path = nil
		}

		item := &Item{Kind: kind, Segments: []*timeline.Segment{seg}}
		if kind != models.ItemKindGap {
			item.classifier = b.classifier
		}
		if kind == models.ItemKindPath {
			path = item
			continue
		}
		tl.Append(item)
	}
	if path != nil {
		tl.Append(path)
	}

	b.logger.Debug("built timeline", "samples", len(samples), "segments", len(segments), "items", len(tl.order))
	return tl
}

// split grows a segment while the next sample is compatible and close enough in time.
// An incompatible sample becomes the boundary of the closing segment and the first
// member of the next one. A silence longer than MaxGap closes the segment without a
// boundary and inserts an empty gap segment covering the silence.
func (b *Builder) split(sorted []*models.Sample) []*timeline.Segment {
	if len(sorted) == 0 {
		return nil
	}

	opts := []timeline.SegmentOption{timeline.WithThresholds(b.cfg.Thresholds)}
	var segments []*timeline.Segment
	current := timeline.NewSegment(sorted[:1], opts...)
	last := sorted[0]

	for _, sample := range sorted[1:] {
		if sample.Date.Sub(last.Date) > b.cfg.MaxGap {
			segments = append(segments, current)

			gap := timeline.NewPlaceholderSegment(last.Date, models.ActivityTypeUnknown, models.RecordingStateOff, opts...)
			end := sample.Date
			gap.SetEndDate(&end)
			segments = append(segments, gap)

			current = timeline.NewSegment([]*models.Sample{sample}, opts...)
			last = sample
			continue
		}

		if current.CanAdd(sample) {
			current.Add(sample)
		} else {
			current.SetBoundary(sample)
			segments = append(segments, current)
			current = timeline.NewSegment([]*models.Sample{sample}, opts...)
		}
		last = sample
	}

	return append(segments, current)
}

func kindOf(seg *timeline.Segment) string {
	switch {
	case seg.RecordingState().IsOff():
		return models.ItemKindGap
	case seg.ActivityType() == models.ActivityTypeStationary:
		return models.ItemKindVisit
	default:
		return models.ItemKindPath
	}
}

func sortSamples(samples []*models.Sample) []*models.Sample {
	sorted := make([]*models.Sample, 0, len(samples))
	for _, s := range samples {
		if s != nil {
			sorted = append(sorted, s)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return models.CompareSamples(sorted[i], sorted[j]) < 0
	})
	return sorted
}
