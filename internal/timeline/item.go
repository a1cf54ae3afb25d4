// Package timeline models segments of a location timeline: runs of compatible
// samples with lazily derived geometry and the validity rules timeline building
// relies on.
package timeline

import (
	"github.com/google/uuid"

	"github.com/jengzang/records-timeline/internal/classifier"
)

// Classifier scores a segment. A result with MoreComing set is provisional.
type Classifier interface {
	Classify(seg classifier.Classifiable, filtered bool) *classifier.Results
}

// Item is the timeline item a segment belongs to
type Item interface {
	// IsPath reports whether the item is a continuous-motion item
	IsPath() bool
	// IsDataGap reports whether the item stands for missing data
	IsDataGap() bool
	// Classifier returns the classifier for the item's segments, nil if none
	Classifier() Classifier
}

// ItemLookup resolves items by ID
type ItemLookup interface {
	LookupItem(id uuid.UUID) (Item, bool)
}

// ItemRef is a non-owning reference to a segment's item. It holds only the item ID
// and the registry to resolve it through, so the segment never keeps the item alive.
type ItemRef struct {
	ID     uuid.UUID
	Lookup ItemLookup
}

// NoItem is the zero ItemRef
var NoItem = ItemRef{}

// Resolve looks the item up. Returns false when the reference is empty or the item
// is gone.
func (r ItemRef) Resolve() (Item, bool) {
	if r.Lookup == nil || r.ID == uuid.Nil {
		return nil, false
	}
	item, ok := r.Lookup.LookupItem(r.ID)
	if !ok || item == nil {
		return nil, false
	}
	return item, true
}
