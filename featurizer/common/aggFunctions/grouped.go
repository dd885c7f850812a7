package aggfunctions

import "sort"

// Grouped keeps one aggregation per integer key.
type Grouped struct {
	funcName string
	groups   map[int]Aggregation
}

func NewGrouped(funcName string) (*Grouped, error) {
	if _, err := NewAggregation(funcName); err != nil {
		return nil, err
	}
	return &Grouped{funcName: funcName, groups: make(map[int]Aggregation)}, nil
}

func (g *Grouped) Add(key int, value int64) {
	agg, ok := g.groups[key]
	if !ok {
		agg, _ = NewAggregation(g.funcName)
		g.groups[key] = agg
	}
	agg.Add(value)
}

func (g *Grouped) Remove(key int) {
	delete(g.groups, key)
}

func (g *Grouped) Len() int {
	return len(g.groups)
}

// Results returns key -> result.
func (g *Grouped) Results() map[int]int64 {
	out := make(map[int]int64, len(g.groups))
	for k, agg := range g.groups {
		out[k] = agg.Result()
	}
	return out
}

// Keys returns the keys in ascending order.
func (g *Grouped) Keys() []int {
	keys := make([]int, 0, len(g.groups))
	for k := range g.groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
