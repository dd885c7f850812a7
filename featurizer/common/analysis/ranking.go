package analysis

import (
	"fmt"
	"strings"

	roaring "github.com/RoaringBitmap/roaring/roaring64"

	dr "github.com/patricioibar/yoochoose-featurizer/featurizer/common/dataRetainer"
)

// Ranking is a bounded list of ids ordered by descending count, ties by ascending id.
type Ranking struct {
	entries []dr.Entry[int, int64]
	members *roaring.Bitmap
}

func NewRanking(counts map[int]int64, limit int) *Ranking {
	r := &Ranking{members: roaring.New()}
	if len(counts) > 0 && limit > 0 {
		r.entries = dr.RetainTop(counts, limit)
	}
	for _, e := range r.entries {
		r.members.Add(idKey(e.Key))
	}
	return r
}

// idKey maps an id onto the bitmap key space; negative sentinels stay distinct.
func idKey(id int) uint64 {
	return uint64(int64(id))
}

func (r *Ranking) Contains(id int) bool {
	return r.members.Contains(idKey(id))
}

func (r *Ranking) Len() int {
	return len(r.entries)
}

func (r *Ranking) Entries() []dr.Entry[int, int64] {
	return r.entries
}

func (r *Ranking) IDs() []int {
	ids := make([]int, len(r.entries))
	for i, e := range r.entries {
		ids[i] = e.Key
	}
	return ids
}

func (r *Ranking) String() string {
	var sb strings.Builder
	for _, e := range r.entries {
		fmt.Fprintf(&sb, "%d:%d\n", e.Key, e.Value)
	}
	return sb.String()
}

// Rankings are the popularity views read by the encoder.
type Rankings struct {
	Items      *Ranking
	Categories *Ranking
}

// EmptyRankings is used when no analysis ran.
func EmptyRankings() Rankings {
	return Rankings{Items: NewRanking(nil, 0), Categories: NewRanking(nil, 0)}
}
