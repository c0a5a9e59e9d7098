package filters

import (
	"strings"
	"sync"

	"findash/internal/core"
)

// Store is the single mutable query of one page instance. It changes only
// through its setters; every setter notifies subscribers with a snapshot.
type Store struct {
	mu           sync.Mutex
	current      TransactionFilters
	defaultLimit int
	subscribers  []func(TransactionFilters)
}

func NewStore(defaultLimit int) *Store {
	return &Store{
		current:      Defaults(defaultLimit),
		defaultLimit: defaultLimit,
	}
}

// Subscribe registers fn to be called after every mutation. Callbacks run
// outside the store lock and may read the store.
func (s *Store) Subscribe(fn func(TransactionFilters)) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// Snapshot returns a copy of the current query.
func (s *Store) Snapshot() TransactionFilters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.ActiveCount()
}

func (s *Store) update(resetPage bool, fn func(f *TransactionFilters)) {
	s.mu.Lock()
	fn(&s.current)
	if resetPage {
		s.current.Page = 1
	}
	snap := s.current.Clone()
	subs := append([]func(TransactionFilters){}, s.subscribers...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// SetSearch sets the free-text search; "" clears it.
func (s *Store) SetSearch(text string) {
	s.update(true, func(f *TransactionFilters) { f.Search = optionalString(text) })
}

// SetCategory filters by category; "" clears it.
func (s *Store) SetCategory(c core.Category) error {
	if c != "" && !c.Valid() {
		return core.ErrInvalidCategory
	}
	s.update(true, func(f *TransactionFilters) {
		if c == "" {
			f.Category = nil
			return
		}
		f.Category = &c
	})
	return nil
}

// SetStatus filters by status; "" clears it.
func (s *Store) SetStatus(st core.Status) error {
	if st != "" && !st.Valid() {
		return core.ErrInvalidStatus
	}
	s.update(true, func(f *TransactionFilters) {
		if st == "" {
			f.Status = nil
			return
		}
		f.Status = &st
	})
	return nil
}

// SetUser filters by owning user id; "" clears it.
func (s *Store) SetUser(userID string) {
	s.update(true, func(f *TransactionFilters) { f.UserID = optionalString(strings.TrimSpace(userID)) })
}

// SetDateFrom sets the inclusive lower date bound; the zero date clears it.
func (s *Store) SetDateFrom(d core.Date) {
	s.update(true, func(f *TransactionFilters) {
		if d.IsZero() {
			f.DateFrom = nil
			return
		}
		f.DateFrom = &d
	})
}

// SetDateTo sets the inclusive upper date bound; the zero date clears it.
func (s *Store) SetDateTo(d core.Date) {
	s.update(true, func(f *TransactionFilters) {
		if d.IsZero() {
			f.DateTo = nil
			return
		}
		f.DateTo = &d
	})
}

// SetSort changes the sort field and direction and returns to page 1.
func (s *Store) SetSort(field string, order SortOrder) error {
	if !ValidSortField(field) {
		return ErrInvalidSortField
	}
	if order != Asc && order != Desc {
		return ErrInvalidSortOrder
	}
	s.update(true, func(f *TransactionFilters) {
		f.SortBy = field
		f.SortOrder = order
	})
	return nil
}

// SetPage moves to page (1-based) and leaves every other field alone.
func (s *Store) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.update(false, func(f *TransactionFilters) { f.Page = page })
}

// SetLimit changes the page size and returns to page 1; no filter is reset.
func (s *Store) SetLimit(limit int) {
	if limit < 1 {
		limit = s.defaultLimit
	}
	s.update(true, func(f *TransactionFilters) { f.Limit = limit })
}

// Clear restores every field to the page defaults.
func (s *Store) Clear() {
	s.update(false, func(f *TransactionFilters) { *f = Defaults(s.defaultLimit) })
}
