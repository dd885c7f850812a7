package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionPurchaserFlag(t *testing.T) {
	s := NewSession(1)
	s.Append(NewBrowse(t0, 100, 5))
	assert.False(t, s.IsPurchaser())
	s.Append(NewPurchase(t0.Add(time.Second), 100, 10, 1))
	assert.True(t, s.IsPurchaser())
	s.Append(NewBrowse(t0.Add(2*time.Second), 101, 5))
	assert.True(t, s.IsPurchaser())
}

func TestSessionSortByTimeIsStableAndIdempotent(t *testing.T) {
	s := NewSession(1)
	s.Append(NewPurchase(t0.Add(20*time.Second), 100, 10, 1))
	s.Append(NewBrowse(t0, 100, 5))
	s.Append(NewBrowse(t0, 101, 5))
	s.Append(NewBrowse(time.Time{}, 102, 5))

	s.SortByTime()
	ids := func() []int {
		var out []int
		for _, e := range s.Events() {
			out = append(out, e.ItemID)
		}
		return out
	}
	assert.Equal(t, []int{102, 100, 101, 100}, ids())
	assert.True(t, s.Last().IsPurchase())

	s.SortByTime()
	assert.Equal(t, []int{102, 100, 101, 100}, ids())
}

func TestSessionDuration(t *testing.T) {
	s := NewSession(1)
	s.Append(NewBrowse(t0, 100, 5))
	s.Append(NewBrowse(t0.Add(90*time.Second), 100, 5))
	assert.Equal(t, int64(90), s.Duration())

	s.Append(NewPurchase(time.Time{}, 100, 0, 1))
	assert.Equal(t, int64(0), s.Duration())

	assert.Equal(t, int64(0), NewSession(2).Duration())
}

func TestStoreIteratesInVisitorOrder(t *testing.T) {
	st := NewStore(4)
	for _, id := range []int{42, 7, 19} {
		st.GetOrCreate(id).Append(NewBrowse(t0, id, 0))
	}
	st.GetOrCreate(7).Append(NewBrowse(t0, 8, 0))

	assert.Equal(t, 3, st.Len())
	assert.Equal(t, []int{7, 19, 42}, st.VisitorIDs())

	s, ok := st.Get(7)
	assert.True(t, ok)
	assert.Equal(t, 2, s.Len())

	var seen []int
	err := st.Each(func(s *Session) error {
		seen = append(seen, s.VisitorID)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, []int{7, 19, 42}, seen)
}

func TestSessionLastPurchase(t *testing.T) {
	s := NewSession(1)
	_, ok := s.LastPurchase()
	assert.False(t, ok)

	s.Append(NewPurchase(t0, 10, 1, 1))
	s.Append(NewPurchase(t0, 11, 1, 1))
	s.Append(NewBrowse(t0, 12, 3))

	last, ok := s.LastPurchase()
	require.True(t, ok)
	assert.Equal(t, 11, last.ItemID)
}
