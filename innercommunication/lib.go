package innercommunication

import (
	"encoding/json"
	"fmt"
)

// RowsBatch carries raw rows between a source and the ingestion loop, and
// encoded sessions from the featurizer to the queue consumers.
type RowsBatch struct {
	JobID       string     `json:"job_id,omitempty"`
	EndSignal   bool       `json:"end_signal,omitempty"`
	ColumnNames []string   `json:"column_names,omitempty"`
	Rows        [][]string `json:"rows,omitempty"`
	// Total rows sent before the end signal, for consumers to check completeness.
	TotalRows int64 `json:"total_rows,omitempty"`
}

func (rb *RowsBatch) Marshal() ([]byte, error) {
	data, err := json.Marshal(rb)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal RowsBatch: %v", err)
	}
	return data, nil
}

func RowsBatchFromString(data string) (*RowsBatch, error) {
	var rb RowsBatch
	if err := json.Unmarshal([]byte(data), &rb); err != nil {
		return nil, fmt.Errorf("failed to unmarshal RowsBatch: %v", err)
	}
	return &rb, nil
}

func NewEndSignal(jobID string, totalRows int64) *RowsBatch {
	return &RowsBatch{
		JobID:     jobID,
		EndSignal: true,
		TotalRows: totalRows,
	}
}

func (rb *RowsBatch) IsEndSignal() bool {
	return rb.EndSignal
}

func (rb *RowsBatch) IsEmpty() bool {
	return len(rb.Rows) == 0
}

func NewRowsBatch(columnNames []string, rows [][]string) *RowsBatch {
	return &RowsBatch{
		EndSignal:   false,
		ColumnNames: columnNames,
		Rows:        rows,
	}
}
