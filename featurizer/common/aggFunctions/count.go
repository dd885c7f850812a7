package aggfunctions

func NewCountAggregation() *CountAggregation {
	return &CountAggregation{count: 0}
}

type CountAggregation struct {
	count int64
}

// Add counts one occurrence, the value is ignored.
func (c *CountAggregation) Add(int64) Aggregation {
	c.count++
	return c
}

func (c *CountAggregation) Result() int64 {
	return c.count
}
