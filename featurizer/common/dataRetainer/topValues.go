package dataretainer

import (
	"cmp"
	"container/heap"
	"sort"
)

// Entry pairs a key with an ordered value.
type Entry[K cmp.Ordered, V cmp.Ordered] struct {
	Key   K
	Value V
}

// better reports whether a ranks ahead of b. Ties on Value go to the smaller Key.
func better[K cmp.Ordered, V cmp.Ordered](a, b Entry[K, V], largest bool) bool {
	if a.Value != b.Value {
		if largest {
			return a.Value > b.Value
		}
		return a.Value < b.Value
	}
	return a.Key < b.Key
}

type entryHeap[K cmp.Ordered, V cmp.Ordered] struct {
	items   []Entry[K, V]
	largest bool // true => keep the N largest
}

func (h entryHeap[K, V]) Len() int      { return len(h.items) }
func (h entryHeap[K, V]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

// Less puts the worst retained entry at the root.
func (h entryHeap[K, V]) Less(i, j int) bool {
	return better(h.items[j], h.items[i], h.largest)
}
func (h *entryHeap[K, V]) Push(x any) { h.items = append(h.items, x.(Entry[K, V])) }
func (h *entryHeap[K, V]) Pop() any {
	old := h.items
	n := len(old)
	x := old[n-1]
	h.items = old[:n-1]
	return x
}

// TopN retains at most capacity entries, the largest (or smallest) by Value.
type TopN[K cmp.Ordered, V cmp.Ordered] struct {
	h        *entryHeap[K, V]
	capacity int
}

func NewTopN[K cmp.Ordered, V cmp.Ordered](capacity int, largest bool) *TopN[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	h := &entryHeap[K, V]{items: make([]Entry[K, V], 0, capacity), largest: largest}
	heap.Init(h)
	return &TopN[K, V]{h: h, capacity: capacity}
}

func (t *TopN[K, V]) Insert(e Entry[K, V]) {
	if t.h.Len() < t.capacity {
		heap.Push(t.h, e)
		return
	}
	if better(e, t.h.items[0], t.h.largest) {
		t.h.items[0] = e
		heap.Fix(t.h, 0)
	}
}

func (t *TopN[K, V]) Len() int {
	return t.h.Len()
}

// Values returns the retained entries best first.
func (t *TopN[K, V]) Values() []Entry[K, V] {
	out := make([]Entry[K, V], len(t.h.items))
	copy(out, t.h.items)
	sort.Slice(out, func(i, j int) bool { return better(out[i], out[j], t.h.largest) })
	return out
}

// RetainTop keeps the n entries of values with the largest value.
func RetainTop[K cmp.Ordered, V cmp.Ordered](values map[K]V, n int) []Entry[K, V] {
	top := NewTopN[K, V](n, true)
	for k, v := range values {
		top.Insert(Entry[K, V]{Key: k, Value: v})
	}
	return top.Values()
}
