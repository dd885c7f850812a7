package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceRange(t *testing.T) {
	cases := map[int]int{
		0:         0,
		1:         1,
		2:         1,
		100:       1,
		101:       2,
		500:       2,
		501:       3,
		350_000:   9,
		350_001:   10,
		1_000_000: 10,
	}
	for price, want := range cases {
		assert.Equal(t, want, PriceRange(price), "price %d", price)
	}
}

func TestComputeStatsIsShardIndependent(t *testing.T) {
	r := New(0)
	r.Upsert(Item{ID: 1, Price: 50, Purchased: true})
	r.Upsert(Item{ID: 2, Price: 150, Purchased: true, MultiPurchase: true})
	r.Upsert(Item{ID: 3, CategoryID: 4})
	r.Upsert(Item{ID: 4, Price: 400})
	r.MarkSeenWithPurchased(3)

	one, err := r.ComputeStats(context.Background(), 1)
	require.NoError(t, err)
	many, err := r.ComputeStats(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, one, many)

	assert.Equal(t, 4, one.Items)
	assert.Equal(t, 2, one.Purchased)
	assert.Equal(t, 2, one.Unpurchased())
	assert.Equal(t, 1, one.MultiPurchase)
	assert.Equal(t, 1, one.SeenWithPurchased)
	assert.Equal(t, 3, one.WithPrice)
	assert.Equal(t, 0, one.MinPrice)
	assert.Equal(t, 400, one.MaxPrice)
	assert.InDelta(t, 150.0, one.AvgPrice, 1e-9)
	assert.Equal(t, PriceBucket{Count: 2, Min: 150, Max: 400}, one.PriceRanges[2])
	assert.Equal(t, PriceBucket{Count: 1, Min: 0, Max: 0}, one.PriceRanges[0])
}

func TestComputeStatsEmptyRegistry(t *testing.T) {
	s, err := New(0).ComputeStats(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Items)
	assert.Equal(t, 0, s.MinPrice)
	assert.Zero(t, s.AvgPrice)
}
