// Package query turns filter changes into debounced transaction fetches and
// keeps the page cache in sync with the latest answer.
package query

import (
	"context"
	"sync"
	"time"

	"findash/internal/alert"
	"findash/internal/cache"
	"findash/internal/core"
	"findash/internal/debounce"
	"findash/internal/filters"
	"findash/internal/log"
)

// Source lists transactions. *api.Client satisfies it.
type Source interface {
	Transactions(ctx context.Context, f filters.TransactionFilters) (core.PaginatedResponse[core.Transaction], error)
}

// Outcome describes one completed fetch.
type Outcome struct {
	Seq     uint64
	Filters filters.TransactionFilters
	Applied bool // false when a newer answer was already applied or the fetch failed
	Stale   bool // a newer answer was applied first; Err is dropped with it
	Err     error
}

// Controller owns the debounce timer of one page. Every filter change re-arms
// it; when it fires, the filters of that moment are fetched once.
type Controller struct {
	store     *filters.Store
	source    Source
	cache     *cache.PageCache[core.Transaction]
	debouncer *debounce.Debouncer
	loading   *Loading
	alerts    *alert.Notifier
	logger    *log.Logger

	mu       sync.Mutex
	ctx      context.Context
	started  bool
	seq      uint64
	applied  uint64
	lastErr  error
	onResult []func(Outcome)
}

// Config wires a Controller. Loading and Alerts may be shared with the rest
// of the page; nil values get private instances.
type Config struct {
	Store   *filters.Store
	Source  Source
	Cache   *cache.PageCache[core.Transaction]
	Clock   debounce.Clock
	Window  time.Duration
	Loading *Loading
	Alerts  *alert.Notifier
	Logger  *log.Logger
}

func NewController(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	loading := cfg.Loading
	if loading == nil {
		loading = NewLoading()
	}
	pageCache := cfg.Cache
	if pageCache == nil {
		pageCache = cache.NewPageCache[core.Transaction](cfg.Store.Snapshot().Limit)
	}
	alerts := cfg.Alerts
	if alerts == nil {
		alerts = alert.New(cfg.Clock, 0, logger)
	}

	c := &Controller{
		store:     cfg.Store,
		source:    cfg.Source,
		cache:     pageCache,
		debouncer: debounce.New(cfg.Clock, cfg.Window),
		loading:   loading,
		alerts:    alerts,
		logger:    logger.WithComponent(log.ComponentQuery),
		ctx:       context.Background(),
	}
	cfg.Store.Subscribe(func(filters.TransactionFilters) { c.schedule() })
	return c
}

// Start arms the initial fetch. Filter changes before Start are not fetched;
// the initial fetch picks them up. Fetches run with ctx.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	c.ctx = ctx
	c.started = true
	c.mu.Unlock()
	c.debouncer.Trigger(c.fire)
}

// Stop cancels a pending fetch and ignores later filter changes. A fetch
// already running still completes.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.started = false
	c.mu.Unlock()
	c.debouncer.Stop()
}

// OnResult registers fn to run after every completed fetch.
func (c *Controller) OnResult(fn func(Outcome)) {
	c.mu.Lock()
	c.onResult = append(c.onResult, fn)
	c.mu.Unlock()
}

func (c *Controller) schedule() {
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if started {
		c.debouncer.Trigger(c.fire)
	}
}

func (c *Controller) fire() {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()
	c.Fetch(ctx)
}

// Fetch snapshots the filters and fetches them now, bypassing the timer.
func (c *Controller) Fetch(ctx context.Context) Outcome {
	snap := c.store.Snapshot()

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	done := c.loading.Begin(KindTransactions)
	c.logger.DebugContext(ctx, "Fetching transactions",
		log.FieldSequence, seq, log.FieldPage, snap.Page, log.FieldLimit, snap.Limit)
	page, err := c.source.Transactions(ctx, snap)
	done()

	out := Outcome{Seq: seq, Filters: snap, Err: err}

	c.mu.Lock()
	stale := seq < c.applied
	switch {
	case stale:
		out.Stale = true
		out.Err = nil
	case err != nil:
		c.lastErr = err
	default:
		c.applied = seq
		c.lastErr = nil
		c.cache.Replace(page)
		out.Applied = true
	}
	applied := c.applied
	subs := append([]func(Outcome){}, c.onResult...)
	c.mu.Unlock()

	switch {
	case stale:
		c.logger.DebugContext(ctx, "Dropping stale response",
			log.FieldSequence, seq, "applied_seq", applied, log.FieldError, err)
	case err != nil:
		c.logger.WarnContext(ctx, "Transaction fetch failed",
			log.FieldSequence, seq, log.FieldError, err)
		c.alerts.Show(err.Error(), alert.Error)
	default:
		c.logger.DebugContext(ctx, "Transactions applied",
			log.FieldSequence, seq, log.FieldItems, len(page.Data))
	}
	for _, fn := range subs {
		fn(out)
	}
	return out
}

// Flush runs an armed fetch immediately instead of waiting for the window.
// It reports false when nothing was pending.
func (c *Controller) Flush(ctx context.Context) (Outcome, bool) {
	if !c.debouncer.Stop() {
		return Outcome{}, false
	}
	return c.Fetch(ctx), true
}

// Cache is the page cache the controller writes.
func (c *Controller) Cache() *cache.PageCache[core.Transaction] {
	return c.cache
}

// Loading reports whether a transactions fetch is in flight.
func (c *Controller) Loading() bool {
	return c.loading.Is(KindTransactions)
}

// Err returns the error of the most recent fetch, nil after a success.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Pending reports whether a fetch is armed and waiting for the window.
func (c *Controller) Pending() bool {
	return c.debouncer.State() == debounce.Armed
}

// Stats exposes the debounce counters.
func (c *Controller) Stats() debounce.Stats {
	return c.debouncer.Stats()
}
