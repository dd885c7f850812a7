package aggfunctions

func NewMaxAggregation() *MaxAggregation {
	return &MaxAggregation{}
}

// MaxAggregation keeps the largest value added. The result of an empty max is 0.
type MaxAggregation struct {
	max  int64
	seen bool
}

func (m *MaxAggregation) Add(value int64) Aggregation {
	if !m.seen || value > m.max {
		m.max = value
		m.seen = true
	}
	return m
}

func (m *MaxAggregation) Result() int64 {
	return m.max
}
