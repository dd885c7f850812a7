package aggfunctions

import "fmt"

type Aggregation interface {
	Add(value int64) Aggregation
	Result() int64
}

func NewAggregation(funcName string) (Aggregation, error) {
	switch funcName {
	case "sum":
		return NewSumAggregation(), nil
	case "count":
		return NewCountAggregation(), nil
	case "max":
		return NewMaxAggregation(), nil
	}
	return nil, fmt.Errorf("unknown aggregation %q", funcName)
}
