// Package dashboard composes the pipeline of one page: filter store,
// debounced query controller, page cache, export dialog and alerts.
package dashboard

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"findash/internal/aggregate"
	"findash/internal/alert"
	"findash/internal/cache"
	"findash/internal/core"
	"findash/internal/debounce"
	"findash/internal/export"
	"findash/internal/filters"
	"findash/internal/log"
	"findash/internal/query"
)

// Kind selects which page is being composed.
type Kind int

const (
	// Dashboard shows the summary and charts above a short transaction table.
	Dashboard Kind = iota
	// Transactions is the full transaction list.
	Transactions
)

func (k Kind) String() string {
	if k == Transactions {
		return "transactions"
	}
	return "dashboard"
}

const usersKey = "users"

// Backend is everything a page asks of the REST backend. *api.Client
// satisfies it.
type Backend interface {
	query.Source
	export.Source
	DashboardSummary(ctx context.Context) (core.DashboardSummary, error)
	UniqueUsers(ctx context.Context) ([]core.UserRef, error)
}

// Config wires a Page. Zero values fall back to the page defaults.
type Config struct {
	Kind          Kind
	Backend       Backend
	Sink          export.Sink
	Clock         debounce.Clock
	Window        time.Duration
	AlertDuration time.Duration
	PageSize      int
	UserCacheTTL  time.Duration
	Now           func() time.Time
	Logger        *log.Logger
}

// Page is one page instance.
type Page struct {
	Kind    Kind
	Filters *filters.Store
	Query   *query.Controller
	Export  *export.Pipeline
	Alerts  *alert.Notifier
	Loading *query.Loading

	backend Backend
	users   *cache.LRUCache[[]core.UserRef]
	logger  *log.Logger

	mu      sync.Mutex
	summary *core.DashboardSummary
}

func NewPage(cfg Config) *Page {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentDashboard).With("page", cfg.Kind.String())

	pageSize := cfg.PageSize
	if pageSize < 1 {
		pageSize = 10
		if cfg.Kind == Transactions {
			pageSize = 20
		}
	}
	window := cfg.Window
	if window <= 0 {
		window = 300 * time.Millisecond
	}
	alertDuration := cfg.AlertDuration
	if alertDuration <= 0 {
		alertDuration = 6 * time.Second
	}
	ttl := cfg.UserCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	columns := export.AllColumns
	if cfg.Kind == Dashboard {
		columns = export.DashboardColumns
	}

	alerts := alert.New(cfg.Clock, alertDuration, logger)
	loading := query.NewLoading()
	store := filters.NewStore(pageSize)

	users := cache.NewLRUCache[[]core.UserRef](1, ttl)
	if cfg.Clock != nil {
		users.WithClock(cfg.Clock.Now)
	}

	return &Page{
		Kind:    cfg.Kind,
		Filters: store,
		Query: query.NewController(query.Config{
			Store:   store,
			Source:  cfg.Backend,
			Clock:   cfg.Clock,
			Window:  window,
			Loading: loading,
			Alerts:  alerts,
			Logger:  logger,
		}),
		Export: export.New(export.Config{
			Source:  cfg.Backend,
			Sink:    cfg.Sink,
			Columns: columns,
			Alerts:  alerts,
			Now:     cfg.Now,
			Logger:  logger,
		}),
		Alerts:  alerts,
		Loading: loading,
		backend: cfg.Backend,
		users:   users,
		logger:  logger,
	}
}

// Start loads the page data and arms the first transaction fetch. The
// returned error is the summary failure, already shown as an alert.
func (p *Page) Start(ctx context.Context) error {
	err := p.Load(ctx)
	p.Query.Start(ctx)
	return err
}

// Stop cancels a pending transaction fetch.
func (p *Page) Stop() {
	p.Query.Stop()
}

// Load fetches the summary (dashboard page only) and the user directory
// concurrently. A failing user directory is not an error: the user filter
// just offers no choices.
func (p *Page) Load(ctx context.Context) error {
	var g errgroup.Group

	if p.Kind == Dashboard {
		g.Go(func() error {
			return p.loadSummary(ctx)
		})
	}
	g.Go(func() error {
		if _, err := p.loadUsers(ctx); err != nil {
			p.logger.DebugContext(ctx, "User directory unavailable", log.FieldError, err)
		}
		return nil
	})

	return g.Wait()
}

func (p *Page) loadSummary(ctx context.Context) error {
	done := p.Loading.Begin(query.KindSummary)
	defer done()

	summary, err := p.backend.DashboardSummary(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "Summary fetch failed", log.FieldError, err)
		p.Alerts.Show(err.Error(), alert.Error)
		return err
	}

	p.mu.Lock()
	p.summary = &summary
	p.mu.Unlock()
	return nil
}

func (p *Page) loadUsers(ctx context.Context) ([]core.UserRef, error) {
	return p.users.GetOrLoad(ctx, usersKey, p.backend.UniqueUsers)
}

// Summary returns the loaded summary, false before a successful load.
func (p *Page) Summary() (core.DashboardSummary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.summary == nil {
		return core.DashboardSummary{}, false
	}
	return *p.summary, true
}

// Chart buckets the summary's monthly series by g.
func (p *Page) Chart(g aggregate.Granularity) []aggregate.Point {
	summary, _ := p.Summary()
	return aggregate.Bucket(summary.MonthlyData, g)
}

// Users returns the cached user directory, refetching it once the cache
// entry expired. Failures yield an empty list.
func (p *Page) Users(ctx context.Context) []core.UserRef {
	users, err := p.loadUsers(ctx)
	if err != nil {
		return []core.UserRef{}
	}
	return users
}

// UserCache exposes the user directory cache for periodic sweeping.
func (p *Page) UserCache() cache.Cleaner {
	return p.users
}

// Transactions returns the current page of transactions.
func (p *Page) Transactions() core.PaginatedResponse[core.Transaction] {
	return p.Query.Cache().Current()
}
