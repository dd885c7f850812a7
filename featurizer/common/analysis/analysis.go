package analysis

import (
	"fmt"
	"strings"

	"github.com/op/go-logging"

	a "github.com/patricioibar/yoochoose-featurizer/featurizer/common/aggFunctions"
	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/events"
	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/registry"
)

var log = logging.MustGetLogger("log")

const (
	DefaultTopItems      = 400
	DefaultTopCategories = 100
)

type Config struct {
	TopItems      int
	TopCategories int
}

// Report holds the session statistics of one run.
type Report struct {
	Sessions       int
	SingleClick    int
	SinglePurchase int
	Analysed       int
	Purchasers     int

	MaxDuration          int64
	PurchaserMaxDuration int64
	AvgDuration          float64
	MaxEvents            int64
	AvgEvents            float64

	// EventBuckets maps a purchaser session length to the number of such sessions.
	EventBuckets map[int]int64
	// EventLengths are the keys of EventBuckets, ascending.
	EventLengths []int

	UniqueItemsPurchased    int
	UniqueCategoriesBrowsed int

	Rankings Rankings
}

func (r *Report) String() string {
	return fmt.Sprintf(
		"All max: %d secs, purchasers max: %d secs, avg: %.2f secs, single click %d, single purchase %d, max events %d, avg events %.2f, purchasers %d/%d",
		r.MaxDuration, r.PurchaserMaxDuration, r.AvgDuration, r.SingleClick, r.SinglePurchase,
		r.MaxEvents, r.AvgEvents, r.Purchasers, r.Sessions,
	)
}

// BucketsString renders the event-count histogram in ascending length order.
func (r *Report) BucketsString() string {
	var sb strings.Builder
	for _, l := range r.EventLengths {
		fmt.Fprintf(&sb, "%d:%d\n", l, r.EventBuckets[l])
	}
	return sb.String()
}

// Analyse scans every session once ingestion is complete. Sessions are not modified;
// the item registry only gets its purchase counters bumped.
func Analyse(sessions *events.Store, items *registry.Registry, cfg Config) (*Report, error) {
	if cfg.TopItems <= 0 {
		cfg.TopItems = DefaultTopItems
	}
	if cfg.TopCategories <= 0 {
		cfg.TopCategories = DefaultTopCategories
	}

	// Durations start from 0 so out-of-order sessions never report a negative maximum.
	maxDuration := a.NewMaxAggregation().Add(0)
	purchaserMax := a.NewMaxAggregation().Add(0)
	durationSum := a.NewSumAggregation()
	eventsSum := a.NewSumAggregation()
	maxEvents := a.NewMaxAggregation()
	analysed := a.NewCountAggregation()
	buckets, err := a.NewGrouped("count")
	if err != nil {
		return nil, err
	}
	itemsPurchased, err := a.NewGrouped("count")
	if err != nil {
		return nil, err
	}
	categoriesBrowsed, err := a.NewGrouped("count")
	if err != nil {
		return nil, err
	}

	report := &Report{Sessions: sessions.Len()}

	err = sessions.Each(func(s *events.Session) error {
		if s.IsPurchaser() {
			report.Purchasers++
		}
		if s.Len() <= 1 {
			if s.Len() == 1 {
				switch s.First().Kind() {
				case events.Browse:
					report.SingleClick++
				case events.Purchase:
					report.SinglePurchase++
				}
			}
			return nil
		}

		duration := s.Duration()
		numEvents := int64(s.Len())
		analysed.Add(1)
		durationSum.Add(duration)
		eventsSum.Add(numEvents)
		maxEvents.Add(numEvents)
		maxDuration.Add(duration)

		if !s.IsPurchaser() {
			return nil
		}
		buckets.Add(s.Len(), 1)
		purchaserMax.Add(duration)

		// clicks loaded after the buys may trail the purchase in arrival order
		if bought, ok := s.LastPurchase(); ok {
			itemsPurchased.Add(bought.ItemID, 1)
			items.AddPurchase(bought.ItemID)
		}

		for _, e := range s.Events() {
			if b, ok := e.Browse(); ok {
				categoriesBrowsed.Add(b.CategoryID, 1)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 0 means the category is unknown, not a real category.
	categoriesBrowsed.Remove(events.UnknownCategoryID)

	report.Analysed = int(analysed.Result())
	report.MaxDuration = maxDuration.Result()
	report.PurchaserMaxDuration = purchaserMax.Result()
	report.MaxEvents = maxEvents.Result()
	if report.Analysed > 0 {
		report.AvgDuration = float64(durationSum.Result()) / float64(report.Analysed)
		report.AvgEvents = float64(eventsSum.Result()) / float64(report.Analysed)
	}
	report.EventBuckets = buckets.Results()
	report.EventLengths = buckets.Keys()
	report.UniqueItemsPurchased = itemsPurchased.Len()
	report.UniqueCategoriesBrowsed = categoriesBrowsed.Len()
	report.Rankings = Rankings{
		Items:      NewRanking(itemsPurchased.Results(), cfg.TopItems),
		Categories: NewRanking(categoriesBrowsed.Results(), cfg.TopCategories),
	}

	log.Infof("%s", report)
	log.Infof("Unique items purchased: %d, unique categories: %d", report.UniqueItemsPurchased, report.UniqueCategoriesBrowsed)
	log.Debugf("Purchaser event buckets:\n%s", report.BucketsString())
	log.Debugf("Top %d items purchased:\n%s", cfg.TopItems, report.Rankings.Items)
	log.Debugf("Top %d categories browsed:\n%s", cfg.TopCategories, report.Rankings.Categories)
	return report, nil
}
