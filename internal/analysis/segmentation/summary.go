package segmentation

import (
	"time"

	"github.com/jengzang/records-timeline/internal/models"
	"github.com/jengzang/records-timeline/internal/timeline"
)

// Summarize projects every segment of the timeline into a persistable summary.
// Segments without a date range are skipped.
func Summarize(tl *Timeline, now time.Time) []models.SegmentSummary {
	var summaries []models.SegmentSummary
	for _, item := range tl.Items() {
		for _, seg := range item.Segments {
			summary, ok := Summary(item, seg, now)
			if !ok {
				continue
			}
			summaries = append(summaries, summary)
		}
	}
	return summaries
}

// Summary projects one segment of item
func Summary(item *Item, seg *timeline.Segment, now time.Time) (models.SegmentSummary, bool) {
	dr, ok := seg.DateRange()
	if !ok {
		return models.SegmentSummary{}, false
	}

	radius := seg.Radius()
	summary := models.SegmentSummary{
		ItemID:          item.ID.String(),
		ItemKind:        item.Kind,
		ActivityType:    seg.ActivityType(),
		RecordingState:  seg.RecordingState(),
		SampleCount:     seg.Count(),
		StartTime:       dr.Start.Unix(),
		EndTime:         dr.End.Unix(),
		DurationSeconds: seg.Duration().Seconds(),
		DistanceMeters:  seg.Distance(),
		RadiusMean:      radius.Mean,
		RadiusSD:        radius.SD,
		IsValid:         seg.IsValid(),
		IsWorthKeeping:  seg.IsWorthKeeping(),
		AlgoVersion:     models.AlgoVersion,
		CreatedAt:       now,
	}

	if center, ok := seg.Centroid(); ok {
		lat, lon := center.Lat.Degrees(), center.Lng.Degrees()
		summary.CenterLat = &lat
		summary.CenterLon = &lon
	}

	if best, ok := seg.ClassifierResults(true).Best(); ok {
		summary.ClassifiedType = best.Type
		summary.ClassifierScore = best.Score
	}

	return summary, true
}
