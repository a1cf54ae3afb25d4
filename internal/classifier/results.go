// Package classifier scores timeline segments against activity type speed models.
package classifier

import (
	"sort"
	"time"

	"github.com/golang/geo/s2"

	"github.com/jengzang/records-timeline/internal/models"
)

// Classifiable is what a classifier needs to read from a segment
type Classifiable interface {
	SortedSamples() []*models.Sample
	Centroid() (s2.LatLng, bool)
	Distance() float64
	Duration() time.Duration
}

// Score is the normalised likelihood of one activity type
type Score struct {
	Type  models.ActivityType `json:"type"`
	Score float64             `json:"score"`
}

// Results holds scores in descending order.
// MoreComing is set when a better model may become available and the caller
// should ask again later instead of keeping these results.
type Results struct {
	Scores     []Score `json:"scores"`
	MoreComing bool    `json:"moreComing"`
}

// Best returns the highest scoring type
func (r *Results) Best() (Score, bool) {
	if r == nil || len(r.Scores) == 0 {
		return Score{}, false
	}
	return r.Scores[0], true
}

func sortScores(scores []Score) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Type < scores[j].Type
	})
}
