package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/events"
	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/ingest"
	"github.com/patricioibar/yoochoose-featurizer/featurizer/common/registry"
)

var t0 = time.Date(2014, time.April, 7, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store *events.Store
	items *registry.Registry
	in    *ingest.Ingester
}

func newFixture() *fixture {
	st := events.NewStore(0)
	reg := registry.New(0)
	return &fixture{store: st, items: reg, in: ingest.NewIngester(st, reg)}
}

func (f *fixture) browse(visitor int, at time.Duration, item, category int) {
	f.in.Ingest(ingest.Row{VisitorID: visitor, Event: events.NewBrowse(t0.Add(at), item, category), TimestampOK: true})
}

func (f *fixture) buy(visitor int, at time.Duration, item int) {
	f.in.Ingest(ingest.Row{VisitorID: visitor, Event: events.NewPurchase(t0.Add(at), item, 100, 1), TimestampOK: true})
}

func TestAnalyseStatistics(t *testing.T) {
	f := newFixture()
	// purchaser: 3 events, 60s
	f.browse(1, 0, 100, 5)
	f.browse(1, 30*time.Second, 101, 0)
	f.buy(1, 60*time.Second, 100)
	// clicker: 2 events, 500s
	f.browse(2, 0, 200, 6)
	f.browse(2, 500*time.Second, 201, 6)
	// single click and single purchase sessions
	f.browse(3, 0, 300, 7)
	f.buy(4, 0, 400)
	// purchaser: 2 events, 10s
	f.browse(5, 0, 500, 5)
	f.buy(5, 10*time.Second, 100)

	report, err := Analyse(f.store, f.items, Config{})
	require.NoError(t, err)

	assert.Equal(t, 5, report.Sessions)
	assert.Equal(t, 1, report.SingleClick)
	assert.Equal(t, 1, report.SinglePurchase)
	assert.Equal(t, 3, report.Analysed)
	assert.Equal(t, 3, report.Purchasers)
	assert.Equal(t, int64(500), report.MaxDuration)
	assert.Equal(t, int64(60), report.PurchaserMaxDuration)
	assert.InDelta(t, 190.0, report.AvgDuration, 1e-9)
	assert.Equal(t, int64(3), report.MaxEvents)
	assert.InDelta(t, 7.0/3.0, report.AvgEvents, 1e-9)
	assert.Equal(t, map[int]int64{3: 1, 2: 1}, report.EventBuckets)
	assert.Equal(t, []int{2, 3}, report.EventLengths)
	assert.Equal(t, "2:1\n3:1\n", report.BucketsString())
	assert.Equal(t, 1, report.UniqueItemsPurchased)
	assert.Equal(t, 1, report.UniqueCategoriesBrowsed)

	assert.Equal(t, []int{100}, report.Rankings.Items.IDs())
	assert.Equal(t, int64(2), report.Rankings.Items.Entries()[0].Value)
	assert.Equal(t, []int{5}, report.Rankings.Categories.IDs())
	assert.False(t, report.Rankings.Categories.Contains(events.UnknownCategoryID))

	it, _ := f.items.Get(100)
	assert.Equal(t, 2, it.Purchases)
	it, _ = f.items.Get(400)
	assert.Equal(t, 0, it.Purchases, "single-event sessions are excluded")
}

func TestPurchasedItemIgnoresTrailingClicks(t *testing.T) {
	f := newFixture()
	// buys ingested before clicks
	f.buy(1, 60*time.Second, 100)
	f.browse(1, 0, 700, 5)
	f.browse(1, 30*time.Second, 701, 5)

	report, err := Analyse(f.store, f.items, Config{})
	require.NoError(t, err)

	assert.Equal(t, []int{100}, report.Rankings.Items.IDs())
	assert.False(t, report.Rankings.Items.Contains(701))
	it, _ := f.items.Get(100)
	assert.Equal(t, 1, it.Purchases)
	it, _ = f.items.Get(701)
	assert.Equal(t, 0, it.Purchases)
}

func TestAnalyseDoesNotReorderSessions(t *testing.T) {
	f := newFixture()
	f.browse(1, time.Minute, 1, 5)
	f.browse(1, 0, 2, 5)
	_, err := Analyse(f.store, f.items, Config{})
	require.NoError(t, err)

	s, _ := f.store.Get(1)
	assert.Equal(t, 1, s.Events()[0].ItemID)
	assert.Equal(t, 2, s.Events()[1].ItemID)
}

func TestRankingsAreBoundedAndDeterministic(t *testing.T) {
	f := newFixture()
	visitor := 1
	for item := 1; item <= 6; item++ {
		for n := 0; n < item%3+1; n++ {
			f.browse(visitor, 0, 1000+item, item)
			f.buy(visitor, time.Second, item)
			visitor++
		}
	}

	report, err := Analyse(f.store, f.items, Config{TopItems: 3, TopCategories: 2})
	require.NoError(t, err)

	// counts: item%3+1 -> 1:2 2:3 3:1 4:2 5:3 6:1
	assert.Equal(t, []int{2, 5, 1}, report.Rankings.Items.IDs())
	assert.Equal(t, []int{2, 5}, report.Rankings.Categories.IDs())
	assert.True(t, report.Rankings.Items.Contains(1))
	assert.False(t, report.Rankings.Items.Contains(4))
	assert.LessOrEqual(t, report.Rankings.Items.Len(), 3)
}

func TestSpecialCategoryCanRank(t *testing.T) {
	f := newFixture()
	f.browse(1, 0, 10, events.SpecialCategoryID)
	f.buy(1, time.Second, 10)

	report, err := Analyse(f.store, f.items, Config{})
	require.NoError(t, err)
	assert.True(t, report.Rankings.Categories.Contains(events.SpecialCategoryID))
	assert.False(t, report.Rankings.Categories.Contains(1))
}

func TestEmptyRankings(t *testing.T) {
	r := EmptyRankings()
	assert.Equal(t, 0, r.Items.Len())
	assert.False(t, r.Categories.Contains(0))
}
