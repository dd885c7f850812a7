package aggfunctions

func NewSumAggregation() *SumAggregation {
	return &SumAggregation{sum: 0}
}

type SumAggregation struct {
	sum int64
}

func (s *SumAggregation) Add(value int64) Aggregation {
	s.sum += value
	return s
}

func (s *SumAggregation) Result() int64 {
	return s.sum
}
