package registry

import (
	"context"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"
)

// priceWaypoints are the upper bounds of the price range histogram.
var priceWaypoints = []int{1, 100, 500, 1_000, 2_000, 5_000, 10_000, 50_000, 100_000, 350_000}

// PriceRange returns the histogram bucket of a price. 0 means no price, bucket i
// holds prices in (priceWaypoints[i-1], priceWaypoints[i]] and anything above the
// last waypoint lands in len(priceWaypoints).
func PriceRange(price int) int {
	if price <= 0 {
		return 0
	}
	if price <= priceWaypoints[0] {
		return 1
	}
	for i := 1; i < len(priceWaypoints); i++ {
		if price > priceWaypoints[i-1] && price <= priceWaypoints[i] {
			return i
		}
	}
	return len(priceWaypoints)
}

type PriceBucket struct {
	Count int
	Min   int
	Max   int
}

type Stats struct {
	Items             int
	Purchased         int
	MultiPurchase     int
	SeenWithPurchased int
	WithPrice         int
	MinPrice          int
	MaxPrice          int
	AvgPrice          float64
	PriceRanges       map[int]PriceBucket

	priceSum int64
}

func newStats() Stats {
	return Stats{MinPrice: math.MaxInt, PriceRanges: make(map[int]PriceBucket)}
}

func (s *Stats) add(it Item) {
	s.Items++
	if it.Purchased {
		s.Purchased++
	}
	if it.MultiPurchase {
		s.MultiPurchase++
	}
	if it.SeenWithPurchased {
		s.SeenWithPurchased++
	}
	if it.Price > 0 {
		s.WithPrice++
	}
	s.priceSum += int64(it.Price)
	s.MinPrice = min(s.MinPrice, it.Price)
	s.MaxPrice = max(s.MaxPrice, it.Price)

	r := PriceRange(it.Price)
	b, ok := s.PriceRanges[r]
	if !ok {
		b = PriceBucket{Min: it.Price, Max: it.Price}
	}
	b.Count++
	b.Min = min(b.Min, it.Price)
	b.Max = max(b.Max, it.Price)
	s.PriceRanges[r] = b
}

func (s *Stats) combine(o Stats) {
	s.Items += o.Items
	s.Purchased += o.Purchased
	s.MultiPurchase += o.MultiPurchase
	s.SeenWithPurchased += o.SeenWithPurchased
	s.WithPrice += o.WithPrice
	s.priceSum += o.priceSum
	s.MinPrice = min(s.MinPrice, o.MinPrice)
	s.MaxPrice = max(s.MaxPrice, o.MaxPrice)
	for r, ob := range o.PriceRanges {
		b, ok := s.PriceRanges[r]
		if !ok {
			s.PriceRanges[r] = ob
			continue
		}
		b.Count += ob.Count
		b.Min = min(b.Min, ob.Min)
		b.Max = max(b.Max, ob.Max)
		s.PriceRanges[r] = b
	}
}

func (s Stats) Unpurchased() int {
	return s.Items - s.Purchased
}

func (s Stats) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d items, %d purchased, %d unpurchased, %d multi-purchase, %d seen with purchased, %d with prices",
		s.Items, s.Purchased, s.Unpurchased(), s.MultiPurchase, s.SeenWithPurchased, s.WithPrice)
	fmt.Fprintf(&sb, "; price min %d max %d avg %.2f", s.MinPrice, s.MaxPrice, s.AvgPrice)
	for r := 0; r <= len(priceWaypoints); r++ {
		if b, ok := s.PriceRanges[r]; ok {
			fmt.Fprintf(&sb, "\n%d:%d (min=%d, max=%d)", r, b.Count, b.Min, b.Max)
		}
	}
	return sb.String()
}

// ComputeStats scans the registry in shards. The registry must not be mutated
// while it runs.
func (r *Registry) ComputeStats(ctx context.Context, shards int) (Stats, error) {
	items := r.Snapshot()
	if shards < 1 {
		shards = 1
	}
	partial := make([]Stats, shards)
	chunk := (len(items) + shards - 1) / shards

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < shards; i++ {
		lo := i * chunk
		hi := min(lo+chunk, len(items))
		partial[i] = newStats()
		if lo >= hi {
			continue
		}
		i := i
		g.Go(func() error {
			for _, it := range items[lo:hi] {
				if err := ctx.Err(); err != nil {
					return err
				}
				partial[i].add(it)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	total := newStats()
	for _, p := range partial {
		total.combine(p)
	}
	if total.Items == 0 {
		total.MinPrice = 0
		return total, nil
	}
	total.AvgPrice = float64(total.priceSum) / float64(total.Items)
	return total, nil
}
