package source

import (
	"context"

	"github.com/op/go-logging"

	ic "github.com/patricioibar/yoochoose-featurizer/innercommunication"
)

var log = logging.MustGetLogger("log")

const DefaultBatchSize = 1000

// RowSource yields raw rows of one event kind in batches. Next returns io.EOF
// once every row was delivered; the last batch may come with io.EOF.
type RowSource interface {
	Name() string
	Next(ctx context.Context) (*ic.RowsBatch, error)
	Close() error
}
