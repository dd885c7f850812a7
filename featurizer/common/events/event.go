package events

import (
	"fmt"
	"time"
)

// TimestampLayout is the layout of the date column in the clicks, buys and test files.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const (
	// UnknownCategoryID means no category data is available for the item.
	UnknownCategoryID = 0
	// SpecialCategoryID marks a special offer click ("S" in the category column).
	SpecialCategoryID = -1
)

type Kind int

const (
	Browse Kind = iota + 1
	Purchase
)

func (k Kind) String() string {
	switch k {
	case Browse:
		return "browse"
	case Purchase:
		return "purchase"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ParseKind maps a config value to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "browse", "click", "clicks":
		return Browse, nil
	case "purchase", "buy", "buys":
		return Purchase, nil
	default:
		return 0, fmt.Errorf("unknown event kind %q", s)
	}
}

type BrowseData struct {
	CategoryID int
}

// Special reports whether the click was on a special offer.
func (b BrowseData) Special() bool {
	return b.CategoryID == SpecialCategoryID
}

type PurchaseData struct {
	Price    int
	Quantity int
}

// Event is one visitor interaction. Exactly one of Browse and Purchase is set,
// matching Kind. Events are built with NewBrowse / NewPurchase and the kind
// cannot change afterwards.
type Event struct {
	kind      Kind
	Timestamp time.Time
	ItemID    int
	browse    BrowseData
	purchase  PurchaseData
}

func NewBrowse(ts time.Time, itemID, categoryID int) Event {
	return Event{
		kind:      Browse,
		Timestamp: ts,
		ItemID:    itemID,
		browse:    BrowseData{CategoryID: categoryID},
	}
}

func NewPurchase(ts time.Time, itemID, price, quantity int) Event {
	return Event{
		kind:      Purchase,
		Timestamp: ts,
		ItemID:    itemID,
		purchase:  PurchaseData{Price: price, Quantity: quantity},
	}
}

func (e Event) Kind() Kind {
	return e.kind
}

// Browse returns the click payload; ok is false for purchases.
func (e Event) Browse() (BrowseData, bool) {
	return e.browse, e.kind == Browse
}

// Purchase returns the buy payload; ok is false for clicks.
func (e Event) Purchase() (PurchaseData, bool) {
	return e.purchase, e.kind == Purchase
}

func (e Event) IsPurchase() bool {
	return e.kind == Purchase
}

func (e Event) HasTimestamp() bool {
	return !e.Timestamp.IsZero()
}

// Before orders events by timestamp. Events without a timestamp sort first.
func (e Event) Before(other Event) bool {
	switch {
	case !e.HasTimestamp():
		return other.HasTimestamp()
	case !other.HasTimestamp():
		return false
	default:
		return e.Timestamp.Before(other.Timestamp)
	}
}

// SecondsUntil returns whole seconds from e to other, truncated toward zero.
// It is 0 when either timestamp is absent.
func (e Event) SecondsUntil(other Event) int64 {
	if !e.HasTimestamp() || !other.HasTimestamp() {
		return 0
	}
	return int64(other.Timestamp.Sub(e.Timestamp) / time.Second)
}

// Calendar holds the date parts emitted as features. All zero when the timestamp is absent.
type Calendar struct {
	Month   int
	Day     int
	Weekday int // ISO: Monday=1 .. Sunday=7
	Hour    int
	Minute  int
	Second  int
}

func (e Event) Calendar() Calendar {
	if !e.HasTimestamp() {
		return Calendar{}
	}
	t := e.Timestamp
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return Calendar{
		Month:   int(t.Month()),
		Day:     t.Day(),
		Weekday: wd,
		Hour:    t.Hour(),
		Minute:  t.Minute(),
		Second:  t.Second(),
	}
}

// ParseTimestamp parses the date column. Blank or malformed values return ok=false.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
