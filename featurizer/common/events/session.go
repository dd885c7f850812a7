package events

import (
	"sort"
)

// Session is the ordered list of events of one visitor.
type Session struct {
	VisitorID int
	events    []Event
	purchaser bool
}

func NewSession(visitorID int) *Session {
	return &Session{VisitorID: visitorID}
}

// Append adds e in arrival order. A purchase flags the session as a purchaser.
func (s *Session) Append(e Event) {
	if e.IsPurchase() {
		s.purchaser = true
	}
	s.events = append(s.events, e)
}

func (s *Session) Events() []Event {
	return s.events
}

func (s *Session) Len() int {
	return len(s.events)
}

func (s *Session) IsPurchaser() bool {
	return s.purchaser
}

func (s *Session) First() Event {
	return s.events[0]
}

func (s *Session) Last() Event {
	return s.events[len(s.events)-1]
}

// LastPurchase is the latest purchase in the current event order.
func (s *Session) LastPurchase() (Event, bool) {
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].IsPurchase() {
			return s.events[i], true
		}
	}
	return Event{}, false
}

// SortByTime sorts the events chronologically. The sort is stable, so sorting an
// already sorted session is a no-op.
func (s *Session) SortByTime() {
	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[i].Before(s.events[j])
	})
}

// Duration is the number of seconds between the first and last event.
func (s *Session) Duration() int64 {
	if len(s.events) == 0 {
		return 0
	}
	return s.First().SecondsUntil(s.Last())
}

// Store maps visitor ids to their sessions.
type Store struct {
	sessions map[int]*Session
}

func NewStore(sizeHint int) *Store {
	return &Store{sessions: make(map[int]*Session, sizeHint)}
}

func (st *Store) GetOrCreate(visitorID int) *Session {
	s, ok := st.sessions[visitorID]
	if !ok {
		s = NewSession(visitorID)
		st.sessions[visitorID] = s
	}
	return s
}

func (st *Store) Get(visitorID int) (*Session, bool) {
	s, ok := st.sessions[visitorID]
	return s, ok
}

func (st *Store) Len() int {
	return len(st.sessions)
}

// VisitorIDs returns every visitor id in ascending order.
func (st *Store) VisitorIDs() []int {
	ids := make([]int, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Each visits the sessions in ascending visitor id order.
func (st *Store) Each(fn func(*Session) error) error {
	for _, id := range st.VisitorIDs() {
		if err := fn(st.sessions[id]); err != nil {
			return err
		}
	}
	return nil
}
