package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"findash/internal/alert"
	"findash/internal/core"
	"findash/internal/debounce"
	"findash/internal/filters"
)

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu    sync.Mutex
	calls []filters.TransactionFilters
	page  core.PaginatedResponse[core.Transaction]
	err   error
	// gate, when set, is consulted per call index; the call blocks until
	// the channel is closed.
	gate map[int]chan struct{}
}

func (s *fakeSource) Transactions(ctx context.Context, f filters.TransactionFilters) (core.PaginatedResponse[core.Transaction], error) {
	s.mu.Lock()
	idx := len(s.calls)
	s.calls = append(s.calls, f)
	page, err := s.page, s.err
	gate := s.gate[idx]
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return page, err
}

func (s *fakeSource) Calls() []filters.TransactionFilters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]filters.TransactionFilters(nil), s.calls...)
}

func (s *fakeSource) set(page core.PaginatedResponse[core.Transaction], err error) {
	s.mu.Lock()
	s.page, s.err = page, err
	s.mu.Unlock()
}

func pageOf(n, total int, ids ...string) core.PaginatedResponse[core.Transaction] {
	data := make([]core.Transaction, 0, len(ids))
	for _, id := range ids {
		data = append(data, core.Transaction{ID: id, Category: core.Revenue, Status: core.Paid})
	}
	pages := (total + n - 1) / n
	if pages == 0 {
		pages = 1
	}
	return core.PaginatedResponse[core.Transaction]{
		Data:       data,
		Pagination: core.Pagination{CurrentPage: 1, TotalPages: pages, TotalItems: total, ItemsPerPage: n},
	}
}

type harness struct {
	clock  *debounce.ManualClock
	store  *filters.Store
	source *fakeSource
	alerts *alert.Notifier
	ctrl   *Controller
}

func newHarness(limit int) *harness {
	h := &harness{
		clock:  debounce.NewManualClock(epoch),
		store:  filters.NewStore(limit),
		source: &fakeSource{page: pageOf(limit, 0)},
	}
	h.alerts = alert.New(h.clock, 6*time.Second, nil)
	h.ctrl = NewController(Config{
		Store:  h.store,
		Source: h.source,
		Clock:  h.clock,
		Window: 300 * time.Millisecond,
		Alerts: h.alerts,
	})
	return h
}

func TestInitialFetchOnStart(t *testing.T) {
	h := newHarness(10)
	h.store.SetSearch("ignored until start")
	if len(h.source.Calls()) != 0 || h.ctrl.Pending() {
		t.Fatal("controller reacted before Start")
	}

	h.ctrl.Start(context.Background())
	if !h.ctrl.Pending() {
		t.Fatal("Start did not arm a fetch")
	}
	h.clock.Advance(300 * time.Millisecond)

	calls := h.source.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	if calls[0].Search == nil || *calls[0].Search != "ignored until start" {
		t.Errorf("initial fetch did not use current filters: %+v", calls[0])
	}
}

func TestScenarioCategoryFilterFillsCache(t *testing.T) {
	h := newHarness(10)
	h.source.set(pageOf(10, 3, "a", "b", "c"), nil)
	h.ctrl.Start(context.Background())
	h.clock.Advance(300 * time.Millisecond)

	if err := h.store.SetCategory(core.Revenue); err != nil {
		t.Fatal(err)
	}
	h.clock.Advance(300 * time.Millisecond)

	calls := h.source.Calls()
	last := calls[len(calls)-1]
	if last.Category == nil || *last.Category != core.Revenue || last.Page != 1 || last.Limit != 10 {
		t.Fatalf("fetched with %+v", last)
	}

	got := h.ctrl.Cache().Current()
	if len(got.Data) != 3 {
		t.Fatalf("cache has %d items, want 3", len(got.Data))
	}
	if got.HasNext() || got.HasPrev() {
		t.Error("single page should enable no pagination controls")
	}
}

func TestBurstOfChangesFetchesOnce(t *testing.T) {
	h := newHarness(10)
	h.ctrl.Start(context.Background())
	h.clock.Advance(300 * time.Millisecond)
	before := len(h.source.Calls())

	h.store.SetSearch("coffee")
	h.clock.Advance(40 * time.Millisecond)
	h.store.SetSearch("coffee2")
	h.clock.Advance(40 * time.Millisecond)
	h.store.SetSearch("")
	h.clock.Advance(20 * time.Millisecond)

	if got := len(h.source.Calls()) - before; got != 0 {
		t.Fatalf("%d fetches issued inside the window", got)
	}
	h.clock.Advance(300 * time.Millisecond)

	calls := h.source.Calls()[before:]
	if len(calls) != 1 {
		t.Fatalf("fetches = %d, want exactly 1", len(calls))
	}
	if calls[0].Search != nil {
		t.Errorf("search = %q, want unset", *calls[0].Search)
	}
	if q := calls[0].Encode(); q.Has("search") {
		t.Error("empty search was serialized")
	}
}

func TestFailureKeepsCacheAndAlerts(t *testing.T) {
	h := newHarness(10)
	h.source.set(pageOf(10, 2, "a", "b"), nil)
	h.ctrl.Start(context.Background())
	h.clock.Advance(300 * time.Millisecond)
	version := h.ctrl.Cache().Version()

	h.source.set(core.PaginatedResponse[core.Transaction]{}, errors.New("Failed to fetch transactions"))
	h.store.SetPage(2)
	h.clock.Advance(300 * time.Millisecond)

	if h.ctrl.Cache().Version() != version {
		t.Error("failed fetch replaced the cache")
	}
	if got := h.ctrl.Cache().Current(); len(got.Data) != 2 {
		t.Errorf("cache = %d items, want the previous 2", len(got.Data))
	}
	st := h.alerts.State()
	if !st.Open || st.Severity != alert.Error || st.Message != "Failed to fetch transactions" {
		t.Errorf("alert = %+v", st)
	}
	if h.ctrl.Err() == nil {
		t.Error("Err not recorded")
	}
	if h.ctrl.Loading() {
		t.Error("loading flag left set after failure")
	}
}

func TestStaleResponseIsDropped(t *testing.T) {
	h := newHarness(10)
	release := make(chan struct{})
	h.source.gate = map[int]chan struct{}{0: release}
	h.source.set(pageOf(10, 1, "old"), nil)

	slow := make(chan Outcome, 1)
	go func() { slow <- h.ctrl.Fetch(context.Background()) }()

	// wait for the slow call to be in flight
	deadline := time.Now().Add(2 * time.Second)
	for len(h.source.Calls()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("slow fetch never started")
		}
		time.Sleep(time.Millisecond)
	}
	if !h.ctrl.Loading() {
		t.Error("loading flag not set while a fetch is in flight")
	}

	h.source.set(pageOf(10, 1, "new"), nil)
	fast := h.ctrl.Fetch(context.Background())
	if !fast.Applied {
		t.Fatal("newer fetch not applied")
	}
	if !h.ctrl.Loading() {
		t.Error("loading flag cleared while the slow fetch is still in flight")
	}

	close(release)
	out := <-slow
	if out.Applied || !out.Stale {
		t.Fatalf("slow outcome = %+v, want stale", out)
	}
	if got := h.ctrl.Cache().Current(); got.Data[0].ID != "new" {
		t.Errorf("cache shows %q, want the newer page", got.Data[0].ID)
	}
	if h.ctrl.Loading() {
		t.Error("loading flag still set")
	}
}

func TestStopCancelsPendingFetch(t *testing.T) {
	h := newHarness(10)
	h.ctrl.Start(context.Background())
	h.ctrl.Stop()
	h.store.SetSearch("x")
	h.clock.Advance(time.Second)

	if n := len(h.source.Calls()); n != 0 {
		t.Fatalf("fetches after Stop = %d", n)
	}
}

func TestOnResult(t *testing.T) {
	h := newHarness(10)
	var outcomes []Outcome
	h.ctrl.OnResult(func(o Outcome) { outcomes = append(outcomes, o) })

	h.ctrl.Start(context.Background())
	h.clock.Advance(300 * time.Millisecond)
	h.store.SetLimit(50)
	h.clock.Advance(300 * time.Millisecond)

	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}
	if outcomes[1].Seq <= outcomes[0].Seq {
		t.Error("sequence numbers not increasing")
	}
	if outcomes[1].Filters.Limit != 50 || outcomes[1].Filters.Page != 1 {
		t.Errorf("second fetch filters = %+v", outcomes[1].Filters)
	}
}

func TestLoadingIndependentPerKind(t *testing.T) {
	l := NewLoading()
	doneSummary := l.Begin(KindSummary)
	if !l.Is(KindSummary) || l.Is(KindTransactions) {
		t.Fatal("flags are not independent")
	}
	doneSummary()
	doneSummary()
	if l.Is(KindSummary) {
		t.Fatal("summary still loading")
	}

	a := l.Begin(KindTransactions)
	b := l.Begin(KindTransactions)
	a()
	if !l.Is(KindTransactions) {
		t.Error("flag cleared with one request still in flight")
	}
	b()
	if l.Is(KindTransactions) {
		t.Error("flag still set")
	}
}

func TestFlushRunsPendingFetch(t *testing.T) {
	h := newHarness(10)
	h.ctrl.Start(context.Background())
	h.store.SetSearch("rent")

	out, ok := h.ctrl.Flush(context.Background())
	if !ok || !out.Applied {
		t.Fatalf("flush = %+v, %v", out, ok)
	}
	if _, ok := h.ctrl.Flush(context.Background()); ok {
		t.Error("second flush found a pending fetch")
	}
	h.clock.Advance(time.Second)
	calls := h.source.Calls()
	if len(calls) != 1 || calls[0].Search == nil || *calls[0].Search != "rent" {
		t.Fatalf("calls = %+v, want one fetch of the flushed filters", calls)
	}
}
