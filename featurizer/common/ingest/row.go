package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/events"
)

// specialMarker in the category column flags a special offer click.
const specialMarker = "S"

var (
	ErrBlankRow     = errors.New("blank row")
	ErrUnknownKind  = errors.New("unknown event kind")
	ErrMalformedRow = errors.New("malformed row")
)

// Row is one parsed line of a clicks or buys file.
type Row struct {
	VisitorID int
	Event     events.Event
	// TimestampOK is false when the date column was blank or unparsable.
	TimestampOK bool
}

// ParseRow turns raw fields into a Row. Browse rows are
// [visitorId, timestamp, itemId, category], purchase rows are
// [visitorId, timestamp, itemId, price, quantity]; trailing purchase fields may be missing.
func ParseRow(kind events.Kind, fields []string) (Row, error) {
	if len(fields) == 0 || strings.TrimSpace(fields[0]) == "" {
		return Row{}, ErrBlankRow
	}
	visitorID, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return Row{}, fmt.Errorf("%w: visitor id %q", ErrMalformedRow, fields[0])
	}

	var ts time.Time
	var tsOK bool
	if len(fields) > 1 {
		ts, tsOK = events.ParseTimestamp(strings.TrimSpace(fields[1]))
	}

	itemID := 0
	if len(fields) > 2 {
		itemID, err = parseID(fields[2])
		if err != nil {
			return Row{}, fmt.Errorf("%w: item id %q", ErrMalformedRow, fields[2])
		}
	}

	row := Row{VisitorID: visitorID, TimestampOK: tsOK}
	switch kind {
	case events.Browse:
		categoryID := events.UnknownCategoryID
		if len(fields) > 3 {
			categoryID, err = parseCategory(fields[3])
			if err != nil {
				return Row{}, fmt.Errorf("%w: category %q", ErrMalformedRow, fields[3])
			}
		}
		row.Event = events.NewBrowse(ts, itemID, categoryID)
	case events.Purchase:
		price := optionalInt(fields, 3, 0)
		quantity := optionalInt(fields, 4, 1)
		row.Event = events.NewPurchase(ts, itemID, price, quantity)
	default:
		return Row{}, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
	return row, nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if id < 0 {
		return 0, fmt.Errorf("negative id %d", id)
	}
	return id, nil
}

func parseCategory(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == specialMarker {
		return events.SpecialCategoryID, nil
	}
	if s == "" {
		return events.UnknownCategoryID, nil
	}
	return parseID(s)
}

// optionalInt reads fields[idx], falling back to def when it is missing or not a number.
func optionalInt(fields []string, idx, def int) int {
	if idx >= len(fields) {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(fields[idx]))
	if err != nil {
		return def
	}
	return v
}
