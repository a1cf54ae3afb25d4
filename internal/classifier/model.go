package classifier

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jengzang/records-timeline/internal/models"
)

// minSpeedSD keeps learned distributions from collapsing to a spike
const minSpeedSD = 0.25

// Model scores a mean speed against per-activity normal distributions
type Model struct {
	speeds map[models.ActivityType]distuv.Normal
}

// BaseModel returns the global speed bands (m/s):
// stationary ~0, walking ~1.4, running ~3, cycling ~5, car ~14, train ~30, airplane ~220
func BaseModel() *Model {
	return &Model{speeds: map[models.ActivityType]distuv.Normal{
		models.ActivityTypeStationary: {Mu: 0, Sigma: 0.4},
		models.ActivityTypeWalking:    {Mu: 1.4, Sigma: 0.5},
		models.ActivityTypeRunning:    {Mu: 3.0, Sigma: 0.8},
		models.ActivityTypeCycling:    {Mu: 5.0, Sigma: 1.8},
		models.ActivityTypeCar:        {Mu: 14.0, Sigma: 7.0},
		models.ActivityTypeTrain:      {Mu: 30.0, Sigma: 12.0},
		models.ActivityTypeAirplane:   {Mu: 220.0, Sigma: 60.0},
	}}
}

// NewModel builds a model from learned region rows. Rows with no samples are skipped.
func NewModel(rows []models.ActivityModel) *Model {
	m := &Model{speeds: make(map[models.ActivityType]distuv.Normal, len(rows))}
	for _, row := range rows {
		if row.SampleCount == 0 || row.ActivityType == models.ActivityTypeUnknown {
			continue
		}
		m.speeds[row.ActivityType] = distuv.Normal{
			Mu:    row.MeanSpeed,
			Sigma: math.Max(row.SpeedSD, minSpeedSD),
		}
	}
	return m
}

// IsEmpty reports whether the model has no distributions
func (m *Model) IsEmpty() bool {
	return m == nil || len(m.speeds) == 0
}

// Score returns normalised likelihoods for the given mean speed, best first
func (m *Model) Score(speed float64) []Score {
	if m.IsEmpty() {
		return nil
	}

	scores := make([]Score, 0, len(m.speeds))
	var total float64
	for t, dist := range m.speeds {
		p := dist.Prob(speed)
		scores = append(scores, Score{Type: t, Score: p})
		total += p
	}

	if total > 0 {
		for i := range scores {
			scores[i].Score /= total
		}
	}

	sortScores(scores)
	return scores
}

// Merge returns a model with the distributions of override replacing those of m
func (m *Model) Merge(override *Model) *Model {
	merged := &Model{speeds: make(map[models.ActivityType]distuv.Normal)}
	if m != nil {
		for t, d := range m.speeds {
			merged.speeds[t] = d
		}
	}
	if override != nil {
		for t, d := range override.speeds {
			merged.speeds[t] = d
		}
	}
	return merged
}
