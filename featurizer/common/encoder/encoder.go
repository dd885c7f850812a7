package encoder

import (
	"fmt"
	"strconv"
	"strings"

	roaring "github.com/RoaringBitmap/roaring/roaring64"

	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/analysis"
	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/events"
	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/registry"
)

const (
	DefaultMaxEvents = 400

	// LastEventDwell is the dwell time written for the final event of a session.
	LastEventDwell int64 = 100

	buyerLabel   = "1"
	clickerLabel = "0"
	importance   = "1.0"

	vwDelimiter     = "|"
	featSep         = " "
	featValSep      = ":"
	sessionNS       = "AggregateFeatures"
	eventNamePrefix = "Event"
)

// Category buckets written as category-simplified.
const (
	CategoryUnknown = 1
	CategorySmall   = 2
	CategorySpecial = 3
	CategoryBrand   = 4
)

type Config struct {
	Format    Format
	Mode      Mode
	MaxEvents int
}

// Encoder writes one line of features per session. It reads the final item
// registry and rankings, so it must only be used after the analysis pass.
type Encoder struct {
	cfg      Config
	items    *registry.Registry
	rankings analysis.Rankings
	mapper   LabelMapper
}

func New(cfg Config, items *registry.Registry, rankings analysis.Rankings) (*Encoder, error) {
	if cfg.Format != VW && cfg.Format != LIBSVM {
		return nil, fmt.Errorf("unsupported format %v", cfg.Format)
	}
	if cfg.Mode != Train && cfg.Mode != Test {
		return nil, fmt.Errorf("unsupported mode %v", cfg.Mode)
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = DefaultMaxEvents
	}
	if rankings.Items == nil || rankings.Categories == nil {
		rankings = analysis.EmptyRankings()
	}
	return &Encoder{cfg: cfg, items: items, rankings: rankings, mapper: newMapper(cfg.Format)}, nil
}

// Mapper exposes the label mapping used so far.
func (enc *Encoder) Mapper() LabelMapper {
	return enc.mapper
}

// Encode sorts the session chronologically and returns its feature line and the
// visitor id for the parallel label file. The session must not be empty.
func (enc *Encoder) Encode(s *events.Session) (line string, label string) {
	s.SortByTime()
	evs := s.Events()

	w := &lineWriter{mapper: enc.mapper}
	enc.writeStart(w, s.Last().IsPurchase(), s.VisitorID)
	enc.writeSessionFeatures(w, evs)
	enc.writeEvents(w, evs)

	return w.String(), strconv.Itoa(s.VisitorID)
}

// writeStart writes [label] [importance] ['tag]. LIBSVM has no tags and test
// files carry no label for VW.
func (enc *Encoder) writeStart(w *lineWriter, buyer bool, visitorID int) {
	label := clickerLabel
	if buyer {
		label = buyerLabel
	}
	switch enc.cfg.Format {
	case VW:
		if enc.cfg.Mode == Train {
			w.raw(label + featSep + importance + featSep)
		}
		w.raw("'" + strconv.Itoa(visitorID) + vwDelimiter + sessionNS)
	case LIBSVM:
		w.raw(label)
	}
}

func (enc *Encoder) writeSessionFeatures(w *lineWriter, evs []events.Event) {
	first, last := evs[0], evs[len(evs)-1]

	w.num("numClicks", int64(len(evs)))
	w.num("lifespan", first.SecondsUntil(last))

	start, end := first.Calendar(), last.Calendar()
	w.calendar("s", start)
	w.calendar("e", end)

	w.num("numItems", int64(uniqueItems(evs)))
	w.num("numCategories", int64(uniqueCategories(evs)))
	w.flag("viewedPopularItems", enc.viewedPopularItem(evs))
	w.flag("viewedPopularCats", enc.viewedPopularCategory(evs))
	w.num("catSimilarity", int64(PrevalentCategory(evs)))
}

func (enc *Encoder) writeEvents(w *lineWriter, evs []events.Event) {
	limit := min(len(evs), enc.cfg.MaxEvents)
	for i := 0; i < limit; i++ {
		e := evs[i]
		dwell := LastEventDwell
		if i < len(evs)-1 {
			dwell = e.SecondsUntil(evs[i+1])
		}

		ns := eventNamePrefix + strconv.Itoa(i)
		if enc.cfg.Format == VW {
			w.raw(featSep + vwDelimiter + ns)
			w.prefix = ""
		} else {
			w.prefix = ns + featSep
		}

		c := e.Calendar()
		w.num("mth", int64(c.Month))
		w.num("day", int64(c.Day))
		w.num("hour", int64(c.Hour))
		w.num("minute", int64(c.Minute))
		w.num("second", int64(c.Second))

		item := strconv.Itoa(e.ItemID)
		w.num(item+"-itemId", 1)
		w.bit(item+"item-was-purchased", enc.items.WasPurchased(e.ItemID))
		w.bit(item+"item-was-multi-purchase", enc.items.WasMultiPurchase(e.ItemID))
		w.num(item+"item-price", int64(enc.items.Price(e.ItemID)))
		w.num("dwellTime", dwell)

		if b, ok := e.Browse(); ok {
			w.num(strconv.Itoa(b.CategoryID)+"-catId", 1)
			w.bit("special", b.Special())
			w.num("category-simplified", int64(SimplifyCategory(b.CategoryID)))
		}
	}
	w.prefix = ""
}

func (enc *Encoder) viewedPopularItem(evs []events.Event) bool {
	for _, e := range evs {
		if enc.rankings.Items.Contains(e.ItemID) {
			return true
		}
	}
	return false
}

func (enc *Encoder) viewedPopularCategory(evs []events.Event) bool {
	for _, e := range evs {
		if b, ok := e.Browse(); ok && enc.rankings.Categories.Contains(b.CategoryID) {
			return true
		}
	}
	return false
}

// SimplifyCategory buckets a click category into unknown, one of the small
// numeric categories, special offer, or brand.
func SimplifyCategory(categoryID int) int {
	switch {
	case categoryID == events.UnknownCategoryID:
		return CategoryUnknown
	case categoryID > 0 && categoryID < 12:
		return CategorySmall
	case categoryID == events.SpecialCategoryID:
		return CategorySpecial
	default:
		return CategoryBrand
	}
}

// PrevalentCategory is the leader of the running click tally at the moment the
// tally first has one, which is the category of the session's first click.
// Purchases carry no category and are passed over. Sessions without clicks
// return the unknown category.
func PrevalentCategory(evs []events.Event) int {
	for _, e := range evs {
		if b, ok := e.Browse(); ok {
			return b.CategoryID
		}
	}
	return events.UnknownCategoryID
}

func uniqueItems(evs []events.Event) uint64 {
	set := roaring.New()
	for _, e := range evs {
		set.Add(uint64(e.ItemID))
	}
	return set.GetCardinality()
}

func uniqueCategories(evs []events.Event) uint64 {
	set := roaring.New()
	for _, e := range evs {
		if b, ok := e.Browse(); ok {
			set.Add(uint64(int64(b.CategoryID)))
		}
	}
	return set.GetCardinality()
}

// lineWriter accumulates name:value pairs, mapping every name on the way.
type lineWriter struct {
	sb     strings.Builder
	mapper LabelMapper
	prefix string
}

func (w *lineWriter) raw(s string) {
	w.sb.WriteString(s)
}

func (w *lineWriter) feature(name, value string) {
	w.sb.WriteString(featSep)
	w.sb.WriteString(w.mapper.Map(w.prefix + name))
	w.sb.WriteString(featValSep)
	w.sb.WriteString(value)
}

func (w *lineWriter) num(name string, v int64) {
	w.feature(name, strconv.FormatInt(v, 10))
}

// bit writes per-event booleans as 1 / 0.
func (w *lineWriter) bit(name string, v bool) {
	if v {
		w.feature(name, "1")
		return
	}
	w.feature(name, "0")
}

// flag writes session booleans as 1.0 / 0.0.
func (w *lineWriter) flag(name string, v bool) {
	if v {
		w.feature(name, "1.0")
		return
	}
	w.feature(name, "0.0")
}

func (w *lineWriter) calendar(p string, c events.Calendar) {
	w.num(p+"Month", int64(c.Month))
	w.num(p+"Day", int64(c.Day))
	w.num(p+"WeekDay", int64(c.Weekday))
	w.num(p+"Hour", int64(c.Hour))
	w.num(p+"Min", int64(c.Minute))
	w.num(p+"Sec", int64(c.Second))
}

func (w *lineWriter) String() string {
	return w.sb.String()
}
