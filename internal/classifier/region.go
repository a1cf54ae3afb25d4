package classifier

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/geo/s2"
	"github.com/hashicorp/go-hclog"

	"github.com/jengzang/records-timeline/internal/models"
	"github.com/jengzang/records-timeline/internal/spatial"
)

// DefaultMaxFilteredAccuracy is the worst horizontal accuracy (meters) a sample may
// have to take part in filtered classification
const DefaultMaxFilteredAccuracy = 100.0

// ModelStore loads learned region models
type ModelStore interface {
	LoadModels(ctx context.Context, cellID uint64) ([]models.ActivityModel, error)
}

// RegionClassifier classifies with the model of the region a segment sits in.
// Region models are loaded on demand: the first request for an unloaded region is
// answered with the base model and MoreComing set, and the region is queued for
// LoadPending.
type RegionClassifier struct {
	mu      sync.Mutex
	base    *Model
	regions map[s2.CellID]*Model
	pending map[s2.CellID]struct{}

	store               ModelStore
	logger              hclog.Logger
	maxFilteredAccuracy float64
}

// Option configures a RegionClassifier
type Option func(*RegionClassifier)

// WithMaxFilteredAccuracy sets the filtered classification accuracy cutoff
func WithMaxFilteredAccuracy(meters float64) Option {
	return func(c *RegionClassifier) {
		if meters > 0 {
			c.maxFilteredAccuracy = meters
		}
	}
}

// WithBaseModel replaces the global fallback model
func WithBaseModel(m *Model) Option {
	return func(c *RegionClassifier) {
		if !m.IsEmpty() {
			c.base = m
		}
	}
}

// NewRegionClassifier creates a classifier backed by store. A nil store means every
// region resolves to the base model immediately.
func NewRegionClassifier(store ModelStore, logger hclog.Logger, opts ...Option) *RegionClassifier {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	c := &RegionClassifier{
		base:                BaseModel(),
		regions:             make(map[s2.CellID]*Model),
		pending:             make(map[s2.CellID]struct{}),
		store:               store,
		logger:              logger.Named("classifier"),
		maxFilteredAccuracy: DefaultMaxFilteredAccuracy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify scores the segment. Returns nil when the segment has no speed evidence.
func (c *RegionClassifier) Classify(seg Classifiable, filtered bool) *Results {
	if seg == nil {
		return nil
	}

	speed, ok := c.meanSpeed(seg, filtered)
	if !ok {
		return nil
	}

	model, moreComing := c.modelFor(seg)
	return &Results{
		Scores:     model.Score(speed),
		MoreComing: moreComing,
	}
}

// modelFor picks the region model for the segment centroid, queueing unloaded regions
func (c *RegionClassifier) modelFor(seg Classifiable) (*Model, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	center, ok := seg.Centroid()
	if !ok || c.store == nil {
		return c.base, false
	}

	cell := spatial.RegionCell(center)
	region, loaded := c.regions[cell]
	if !loaded {
		c.pending[cell] = struct{}{}
		return c.base, true
	}
	return c.base.Merge(region), false
}

// meanSpeed averages reported speeds, falling back to distance over duration
func (c *RegionClassifier) meanSpeed(seg Classifiable, filtered bool) (float64, bool) {
	var sum float64
	var n int
	for _, sample := range seg.SortedSamples() {
		if !sample.HasUsableLocation() {
			continue
		}
		if filtered && sample.Location.HorizontalAccuracy > c.maxFilteredAccuracy {
			continue
		}
		if sample.Location.Speed < 0 {
			continue
		}
		sum += sample.Location.Speed
		n++
	}
	if n > 0 {
		return sum / float64(n), true
	}

	duration := seg.Duration().Seconds()
	if duration <= 0 {
		return 0, false
	}
	return seg.Distance() / duration, true
}

// PendingCount returns the number of regions waiting to be loaded
func (c *RegionClassifier) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// LoadPending loads every queued region from the store. Regions without learned
// rows are remembered as empty so they resolve to the base model from then on.
func (c *RegionClassifier) LoadPending(ctx context.Context) error {
	c.mu.Lock()
	cells := make([]s2.CellID, 0, len(c.pending))
	for cell := range c.pending {
		cells = append(cells, cell)
	}
	c.mu.Unlock()

	if c.store == nil || len(cells) == 0 {
		return nil
	}

	for _, cell := range cells {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows, err := c.store.LoadModels(ctx, uint64(cell))
		if err != nil {
			return fmt.Errorf("failed to load region model %s: %w", cell.ToToken(), err)
		}

		c.mu.Lock()
		c.regions[cell] = NewModel(rows)
		delete(c.pending, cell)
		c.mu.Unlock()

		c.logger.Debug("loaded region model", "cell", cell.ToToken(), "types", len(rows))
	}

	return nil
}

// Forget drops every loaded and queued region, so the next request reloads from the store
func (c *RegionClassifier) Forget() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regions = make(map[s2.CellID]*Model)
	c.pending = make(map[s2.CellID]struct{})
}
