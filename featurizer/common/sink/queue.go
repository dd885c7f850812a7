package sink

import (
	"fmt"

	ic "github.com/patricioibar/yoochoose-featurizer/innercommunication"
	mw "github.com/patricioibar/yoochoose-featurizer/middleware"
)

const DefaultQueueBatchSize = 1000

var queueColumns = []string{"visitor_id", "line"}

// QueueSink publishes sessions as RowsBatch messages tagged with the run id.
// Close flushes the pending rows and sends an end signal.
type QueueSink struct {
	output    mw.MessageMiddleware
	jobID     string
	batchSize int
	pending   [][]string
	sent      int64
}

func NewQueueSink(output mw.MessageMiddleware, jobID string, batchSize int) *QueueSink {
	if batchSize <= 0 {
		batchSize = DefaultQueueBatchSize
	}
	return &QueueSink{output: output, jobID: jobID, batchSize: batchSize}
}

func (s *QueueSink) WriteSession(line, label string) error {
	s.pending = append(s.pending, []string{label, line})
	if len(s.pending) >= s.batchSize {
		return s.flush()
	}
	return nil
}

func (s *QueueSink) flush() error {
	if len(s.pending) == 0 {
		return nil
	}
	batch := ic.NewRowsBatch(queueColumns, s.pending)
	batch.JobID = s.jobID
	if err := s.send(batch); err != nil {
		return err
	}
	s.sent += int64(len(s.pending))
	s.pending = nil
	return nil
}

func (s *QueueSink) send(batch *ic.RowsBatch) error {
	data, err := batch.Marshal()
	if err != nil {
		return err
	}
	if mwErr := s.output.Send(data); mwErr != nil {
		return fmt.Errorf("could not publish batch: %w", mwErr)
	}
	return nil
}

func (s *QueueSink) Close() error {
	if err := s.flush(); err != nil {
		return err
	}
	if err := s.send(ic.NewEndSignal(s.jobID, s.sent)); err != nil {
		return err
	}
	log.Infof("Published %d sessions for job %s", s.sent, s.jobID)
	if mwErr := s.output.Close(); mwErr != nil {
		return mwErr
	}
	return nil
}
