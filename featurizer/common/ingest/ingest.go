package ingest

import (
	"errors"

	"github.com/op/go-logging"

	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/events"
	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/registry"
)

var log = logging.MustGetLogger("log")

type Stats struct {
	Ingested          int
	Skipped           int
	MissingTimestamps int
	Purchases         int
}

// Ingester builds sessions and the item registry from parsed rows.
type Ingester struct {
	sessions *events.Store
	items    *registry.Registry
	stats    Stats
}

func NewIngester(sessions *events.Store, items *registry.Registry) *Ingester {
	return &Ingester{sessions: sessions, items: items}
}

// Ingest adds one row to its visitor's session. A purchase flags every item
// already in the session as seen with purchased.
func (in *Ingester) Ingest(row Row) {
	session := in.sessions.GetOrCreate(row.VisitorID)
	e := row.Event

	in.items.Upsert(registry.FromEvent(e))

	if e.IsPurchase() {
		for _, earlier := range session.Events() {
			in.items.MarkSeenWithPurchased(earlier.ItemID)
		}
		in.stats.Purchases++
	}

	session.Append(e)
	in.stats.Ingested++
	if !row.TimestampOK {
		in.stats.MissingTimestamps++
	}
}

// IngestFields parses and ingests raw fields. Rows that cannot be parsed are
// logged and skipped; the returned error tells the caller why.
func (in *Ingester) IngestFields(kind events.Kind, fields []string) error {
	row, err := ParseRow(kind, fields)
	if err != nil {
		in.stats.Skipped++
		if !errors.Is(err, ErrBlankRow) {
			log.Warningf("Skipping row %v: %v", fields, err)
		}
		return err
	}
	in.Ingest(row)
	return nil
}

func (in *Ingester) Stats() Stats {
	return in.stats
}
