package segmentation

import (
	"github.com/google/uuid"

	"github.com/jengzang/records-timeline/internal/models"
	"github.com/jengzang/records-timeline/internal/timeline"
)

// Item is a visit, path or data gap made of one or more segments
type Item struct {
	ID       uuid.UUID
	Kind     string // models.ItemKindVisit, ItemKindPath, ItemKindGap
	Segments []*timeline.Segment

	classifier timeline.Classifier
}

// IsPath reports whether the item is a path or a data gap
func (i *Item) IsPath() bool {
	return i.Kind != models.ItemKindVisit
}

// IsDataGap reports whether the item stands for missing data
func (i *Item) IsDataGap() bool {
	return i.Kind == models.ItemKindGap
}

// Classifier returns the classifier for the item's segments
func (i *Item) Classifier() timeline.Classifier {
	return i.classifier
}

// Timeline is an ordered registry of items. Segments reference their item through
// it by ID only.
type Timeline struct {
	items map[uuid.UUID]*Item
	order []uuid.UUID
}

// NewTimeline creates an empty timeline
func NewTimeline() *Timeline {
	return &Timeline{items: make(map[uuid.UUID]*Item)}
}

// LookupItem implements timeline.ItemLookup
func (t *Timeline) LookupItem(id uuid.UUID) (timeline.Item, bool) {
	item, ok := t.items[id]
	if !ok {
		return nil, false
	}
	return item, true
}

// Append adds the item at the end and points its segments at it
func (t *Timeline) Append(item *Item) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	t.items[item.ID] = item
	t.order = append(t.order, item.ID)
	for _, seg := range item.Segments {
		seg.SetOwner(timeline.ItemRef{ID: item.ID, Lookup: t})
	}
}

// Remove drops an item. Its segments keep their now dangling reference.
func (t *Timeline) Remove(id uuid.UUID) {
	if _, ok := t.items[id]; !ok {
		return
	}
	delete(t.items, id)
	for i, other := range t.order {
		if other == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Items returns the items in timeline order
func (t *Timeline) Items() []*Item {
	items := make([]*Item, 0, len(t.order))
	for _, id := range t.order {
		items = append(items, t.items[id])
	}
	return items
}

// Segments returns every segment in timeline order
func (t *Timeline) Segments() []*timeline.Segment {
	var segments []*timeline.Segment
	for _, item := range t.Items() {
		segments = append(segments, item.Segments...)
	}
	return segments
}
