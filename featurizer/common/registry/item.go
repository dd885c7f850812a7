package registry

import (
	"sort"

	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/events"
)

// Item is what the run knows about one item id. Flags only move from false to
// true, and category / price only move from unknown to known.
type Item struct {
	ID                int
	Price             int
	CategoryID        int
	Purchased         bool
	MultiPurchase     bool
	SeenWithPurchased bool

	// Purchases counts purchasing sessions that ended on this item. Filled by the analysis pass.
	Purchases int
}

// FromEvent builds the snapshot of an item carried by a single event.
func FromEvent(e events.Event) Item {
	it := Item{ID: e.ItemID}
	if b, ok := e.Browse(); ok {
		it.CategoryID = b.CategoryID
	}
	if p, ok := e.Purchase(); ok {
		it.Price = p.Price
		it.Purchased = true
		it.MultiPurchase = p.Quantity > 1
	}
	return it
}

// merge promotes fields of it with better data from candidate.
func (it *Item) merge(candidate Item) {
	if it.CategoryID == events.UnknownCategoryID && candidate.CategoryID != events.UnknownCategoryID {
		it.CategoryID = candidate.CategoryID
	}
	if candidate.Price > 0 && candidate.Price != it.Price {
		it.Price = candidate.Price
	}
	it.Purchased = it.Purchased || candidate.Purchased
	it.MultiPurchase = it.MultiPurchase || candidate.MultiPurchase
	it.SeenWithPurchased = it.SeenWithPurchased || candidate.SeenWithPurchased
}

// Registry holds one Item per item id for the whole run.
type Registry struct {
	items map[int]*Item
}

func New(sizeHint int) *Registry {
	return &Registry{items: make(map[int]*Item, sizeHint)}
}

// Upsert inserts candidate if its id is new, otherwise merges it into the stored item.
func (r *Registry) Upsert(candidate Item) {
	current, ok := r.items[candidate.ID]
	if !ok {
		c := candidate
		r.items[candidate.ID] = &c
		return
	}
	current.merge(candidate)
}

func (r *Registry) Get(id int) (*Item, bool) {
	it, ok := r.items[id]
	return it, ok
}

// MarkSeenWithPurchased flags the item as viewed in a session that later bought something.
// Unknown ids are ignored.
func (r *Registry) MarkSeenWithPurchased(id int) {
	if it, ok := r.items[id]; ok {
		it.SeenWithPurchased = true
	}
}

// AddPurchase bumps the purchasing-session counter of the item.
func (r *Registry) AddPurchase(id int) {
	if it, ok := r.items[id]; ok {
		it.Purchases++
	}
}

func (r *Registry) WasPurchased(id int) bool {
	it, ok := r.items[id]
	return ok && it.Purchased
}

func (r *Registry) WasMultiPurchase(id int) bool {
	it, ok := r.items[id]
	return ok && it.MultiPurchase
}

// Price is the last known price of the item, 0 if unknown.
func (r *Registry) Price(id int) int {
	if it, ok := r.items[id]; ok {
		return it.Price
	}
	return 0
}

func (r *Registry) Len() int {
	return len(r.items)
}

// Snapshot returns copies of every item ordered by id.
func (r *Registry) Snapshot() []Item {
	out := make([]Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
