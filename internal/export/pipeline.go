// Package export drives the export dialog: preview the matching count, let
// the user pick columns, then fetch the generated CSV and save it.
package export

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"findash/internal/alert"
	"findash/internal/core"
	"findash/internal/filters"
	"findash/internal/log"
)

// State of the export dialog.
type State int

const (
	Idle State = iota
	Previewing
	Confirming
	Exporting
)

func (s State) String() string {
	switch s {
	case Previewing:
		return "previewing"
	case Confirming:
		return "confirming"
	case Exporting:
		return "exporting"
	default:
		return "idle"
	}
}

// Exportable columns.
const (
	ColumnID          = "id"
	ColumnDate        = "date"
	ColumnAmount      = "amount"
	ColumnCategory    = "category"
	ColumnStatus      = "status"
	ColumnUserID      = "user_id"
	ColumnUserProfile = "user_profile"
)

var (
	// AllColumns is offered by the transactions page.
	AllColumns = []string{ColumnID, ColumnDate, ColumnAmount, ColumnCategory, ColumnStatus, ColumnUserID, ColumnUserProfile}
	// DashboardColumns is offered by the dashboard page.
	DashboardColumns = []string{ColumnDate, ColumnAmount, ColumnCategory, ColumnStatus, ColumnUserID, ColumnUserProfile}
)

var (
	ErrNoColumns     = errors.New("select at least one column to export")
	ErrInvalidState  = errors.New("export dialog is not in a state that allows this")
	ErrUnknownColumn = errors.New("unknown export column")
	ErrCancelled     = errors.New("export cancelled")
	ErrNoSink        = errors.New("export has no destination")
)

const successMessage = "Export completed successfully!"

// Source is the backend side of an export. *api.Client satisfies it.
type Source interface {
	ExportPreview(ctx context.Context, f filters.TransactionFilters) (core.ExportPreview, error)
	ExportCSV(ctx context.Context, f filters.TransactionFilters, columns []string) ([]byte, error)
}

// Config wires a Pipeline.
type Config struct {
	Source  Source
	Sink    Sink
	Columns []string // available columns; AllColumns when empty
	Alerts  *alert.Notifier
	Now     func() time.Time
	Logger  *log.Logger
}

// Pipeline is the export dialog of one page. Steps of one flow run strictly
// in sequence; a result arriving after Cancel is discarded.
type Pipeline struct {
	source    Source
	sink      Sink
	available []string
	alerts    *alert.Notifier
	now       func() time.Time
	logger    *log.Logger

	mu       sync.Mutex
	state    State
	flow     uint64
	filters  filters.TransactionFilters
	preview  core.ExportPreview
	selected map[string]bool
}

func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	available := cfg.Columns
	if len(available) == 0 {
		available = AllColumns
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	alerts := cfg.Alerts
	if alerts == nil {
		alerts = alert.New(nil, 0, logger)
	}
	return &Pipeline{
		source:    cfg.Source,
		sink:      cfg.Sink,
		available: append([]string(nil), available...),
		alerts:    alerts,
		now:       now,
		logger:    logger.WithComponent(log.ComponentExport),
		selected:  map[string]bool{},
	}
}

// Filename is the name of the file saved for an export made at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("transactions-%s.csv", t.UTC().Format(core.DateLayout))
}

// Open starts a flow for f: it requests the preview count and, on success,
// moves to Confirming with every available column selected. On failure the
// dialog returns to Idle and an error alert is shown.
func (p *Pipeline) Open(ctx context.Context, f filters.TransactionFilters) (core.ExportPreview, error) {
	p.mu.Lock()
	if p.state != Idle {
		state := p.state
		p.mu.Unlock()
		return core.ExportPreview{}, fmt.Errorf("open from %s: %w", state, ErrInvalidState)
	}
	p.flow++
	flow := p.flow
	p.state = Previewing
	p.filters = f.WithoutPaging()
	p.preview = core.ExportPreview{}
	p.selected = map[string]bool{}
	for _, c := range p.available {
		p.selected[c] = true
	}
	query := p.filters.Clone()
	p.mu.Unlock()

	p.logger.DebugContext(ctx, "Requesting export preview", log.FieldState, Previewing.String())
	preview, err := p.source.ExportPreview(ctx, query)

	p.mu.Lock()
	if p.flow != flow || p.state != Previewing {
		p.mu.Unlock()
		return core.ExportPreview{}, ErrCancelled
	}
	if err != nil {
		p.state = Idle
		p.mu.Unlock()
		p.logger.WarnContext(ctx, "Export preview failed", log.FieldError, err)
		p.alerts.Show(err.Error(), alert.Error)
		return core.ExportPreview{}, err
	}
	p.preview = preview
	p.state = Confirming
	p.mu.Unlock()

	p.logger.DebugContext(ctx, "Export preview ready", "total", preview.TotalTransactions)
	return preview, nil
}

// Toggle flips column in the selection. Only allowed while confirming.
func (p *Pipeline) Toggle(column string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkColumnLocked(column); err != nil {
		return err
	}
	p.selected[column] = !p.selected[column]
	return nil
}

// Select replaces the selection with columns. Only allowed while confirming.
func (p *Pipeline) Select(columns ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := map[string]bool{}
	for _, c := range columns {
		if err := p.checkColumnLocked(c); err != nil {
			return err
		}
		next[c] = true
	}
	p.selected = next
	return nil
}

func (p *Pipeline) checkColumnLocked(column string) error {
	if p.state != Confirming {
		return fmt.Errorf("change columns while %s: %w", p.state, ErrInvalidState)
	}
	for _, c := range p.available {
		if c == column {
			return nil
		}
	}
	return fmt.Errorf("%q: %w", column, ErrUnknownColumn)
}

// Selected returns the selected columns in their display order.
func (p *Pipeline) Selected() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selectedLocked()
}

func (p *Pipeline) selectedLocked() []string {
	out := make([]string, 0, len(p.available))
	for _, c := range p.available {
		if p.selected[c] {
			out = append(out, c)
		}
	}
	return out
}

// Available returns the columns the dialog offers.
func (p *Pipeline) Available() []string {
	return append([]string(nil), p.available...)
}

// CanConfirm reports whether the export action is enabled.
func (p *Pipeline) CanConfirm() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == Confirming && p.sink != nil && len(p.selectedLocked()) > 0
}

// Confirm requests the file for the flow's filters and selected columns and
// saves it through the sink. It returns where the file was written. Any
// failure returns the dialog to Idle with an error alert and no file. A
// pipeline built without a Sink rejects Confirm with ErrNoSink before any
// request is made.
func (p *Pipeline) Confirm(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.state != Confirming {
		state := p.state
		p.mu.Unlock()
		return "", fmt.Errorf("confirm from %s: %w", state, ErrInvalidState)
	}
	columns := p.selectedLocked()
	if len(columns) == 0 {
		p.mu.Unlock()
		return "", ErrNoColumns
	}
	if p.sink == nil {
		p.mu.Unlock()
		return "", ErrNoSink
	}
	p.state = Exporting
	flow := p.flow
	query := p.filters.Clone()
	p.mu.Unlock()

	p.logger.DebugContext(ctx, "Requesting export file", log.FieldColumns, columns)
	data, err := p.source.ExportCSV(ctx, query, columns)

	p.mu.Lock()
	cancelled := p.flow != flow || p.state != Exporting
	p.mu.Unlock()
	if cancelled {
		return "", ErrCancelled
	}

	var location string
	if err == nil {
		name := Filename(p.now())
		location, err = p.sink.Save(ctx, name, data)
		if err != nil {
			err = fmt.Errorf("save %s: %w", name, err)
		}
	}

	p.mu.Lock()
	if p.flow == flow {
		p.state = Idle
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.ErrorContext(ctx, "Export failed", log.FieldError, err)
		p.alerts.Show(err.Error(), alert.Error)
		return "", err
	}
	p.logger.InfoContext(ctx, "Export saved", log.FieldFile, location, log.FieldColumns, columns)
	p.alerts.Show(successMessage, alert.Success)
	return location, nil
}

// Cancel closes the dialog from any state. A request still in flight is not
// aborted, but its result is ignored.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Idle {
		return
	}
	p.flow++
	p.state = Idle
	p.preview = core.ExportPreview{}
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Preview returns the preview of the open dialog, false outside Confirming
// and Exporting.
func (p *Pipeline) Preview() (core.ExportPreview, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Confirming && p.state != Exporting {
		return core.ExportPreview{}, false
	}
	return p.preview, true
}
