package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"findash/internal/aggregate"
	"findash/internal/alert"
	"findash/internal/cache"
	"findash/internal/core"
	"findash/internal/dashboard"
	"findash/internal/export"
	"findash/internal/filters"
	"findash/internal/query"
	"findash/internal/ui"
)

const browseHelp = `Commands:
  search [text]          set or clear the search text
  category [name]        Revenue, Expense, or empty to clear
  status [name]          Paid, Pending, or empty to clear
  user [id]              owning user id, empty to clear
  from [date] / to [date]  inclusive date bounds, YYYY-MM-DD
  sort <field> [asc|desc]
  page <n> | next | prev
  limit <n>
  clear                  reset every filter
  users                  list the user directory
  chart [month|quarter|year]
  show                   fetch now and show the table
  export                 open the export dialog
  toggle <column>        while exporting: flip a column
  confirm | cancel       while exporting: save or close the dialog
  help | quit`

// browser is the interactive session of the browse command.
type browser struct {
	app  *App
	page *dashboard.Page
}

func (a *App) runBrowse(ctx context.Context, args []string) error {
	fs := a.newFlagSet("browse")
	kind := fs.String("page", "transactions", "page to browse: dashboard or transactions")
	dir := fs.String("dir", a.Config.ExportDir, "directory exports are written to")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if a.input == nil {
		return fmt.Errorf("browse needs an input stream: %w", ErrUsage)
	}

	pageKind := dashboard.Transactions
	if *kind == "dashboard" {
		pageKind = dashboard.Dashboard
	}
	b := &browser{app: a, page: a.newPage(pageKind, export.DirSink{Dir: *dir})}

	b.page.Alerts.Subscribe(func(st alert.State) {
		if line := ui.Alert(st); line != "" {
			fmt.Fprintln(a.Out, line)
		}
	})
	b.page.Query.OnResult(func(o query.Outcome) {
		if o.Applied {
			b.renderTable()
		}
	})

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go cache.NewSweeper(a.Logger, b.page.UserCache()).Run(sweepCtx, time.Minute)

	// summary failures are already shown as an alert
	_ = b.page.Start(ctx)
	defer b.page.Stop()
	if summary, ok := b.page.Summary(); ok {
		fmt.Fprintln(a.Out, ui.Summary(summary))
	}
	fmt.Fprintln(a.Out, "Type 'help' for commands.")

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, ok := a.readLine("> ")
		if !ok {
			break
		}
		quit, err := b.handle(ctx, line)
		if err != nil {
			fmt.Fprintf(a.Err, "error: %v\n", err)
		}
		if quit {
			break
		}
	}

	// input ended inside a settling window: fetch the final filters once
	b.page.Query.Flush(ctx)
	return nil
}

func (b *browser) handle(ctx context.Context, line string) (bool, error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	cmd = strings.ToLower(cmd)
	arg = strings.TrimSpace(arg)
	store := b.page.Filters

	switch cmd {
	case "":
		return false, nil
	case "quit", "exit", "q":
		return true, nil
	case "help":
		fmt.Fprintln(b.app.Out, browseHelp)
	case "search":
		store.SetSearch(arg)
	case "category":
		var c core.Category
		if arg != "" {
			parsed, err := core.ParseCategory(arg)
			if err != nil {
				return false, err
			}
			c = parsed
		}
		return false, store.SetCategory(c)
	case "status":
		var st core.Status
		if arg != "" {
			parsed, err := core.ParseStatus(arg)
			if err != nil {
				return false, err
			}
			st = parsed
		}
		return false, store.SetStatus(st)
	case "user":
		store.SetUser(arg)
	case "from", "to":
		var d core.Date
		if arg != "" {
			parsed, err := core.ParseDate(arg)
			if err != nil {
				return false, err
			}
			d = parsed
		}
		if cmd == "from" {
			store.SetDateFrom(d)
		} else {
			store.SetDateTo(d)
		}
	case "sort":
		field, dir, _ := strings.Cut(arg, " ")
		order := filters.Asc
		if strings.TrimSpace(dir) != "" {
			parsed, err := filters.ParseSortOrder(dir)
			if err != nil {
				return false, err
			}
			order = parsed
		}
		return false, store.SetSort(field, order)
	case "page", "limit":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return false, fmt.Errorf("%s needs a positive number", cmd)
		}
		if cmd == "page" {
			store.SetPage(n)
		} else {
			store.SetLimit(n)
		}
	case "next":
		if cur := b.page.Transactions(); cur.HasNext() {
			store.SetPage(cur.Pagination.CurrentPage + 1)
		}
	case "prev":
		if cur := b.page.Transactions(); cur.HasPrev() {
			store.SetPage(cur.Pagination.CurrentPage - 1)
		}
	case "clear":
		store.Clear()
	case "users":
		for _, u := range b.page.Users(ctx) {
			fmt.Fprintf(b.app.Out, "  %s  %s\n", u.ID, u.Name)
		}
	case "chart":
		g := aggregate.ParseGranularity(arg)
		fmt.Fprintln(b.app.Out, ui.Chart(b.page.Chart(g), g))
	case "show":
		if _, flushed := b.page.Query.Flush(ctx); !flushed {
			b.renderTable()
		}
	case "export":
		return false, b.openExport(ctx)
	case "toggle":
		if err := b.page.Export.Toggle(arg); err != nil {
			return false, err
		}
		b.renderDialog()
	case "confirm":
		location, err := b.page.Export.Confirm(ctx)
		if err != nil {
			if errors.Is(err, export.ErrNoColumns) || errors.Is(err, export.ErrInvalidState) || errors.Is(err, export.ErrNoSink) {
				return false, err
			}
			// failure is already shown as an alert
			return false, nil
		}
		fmt.Fprintf(b.app.Out, "Saved %s\n", location)
	case "cancel":
		b.page.Export.Cancel()
	default:
		return false, fmt.Errorf("unknown command %q, type 'help'", cmd)
	}
	return false, nil
}

func (b *browser) openExport(ctx context.Context) error {
	if _, err := b.page.Export.Open(ctx, b.page.Filters.Snapshot()); err != nil {
		if errors.Is(err, export.ErrInvalidState) {
			return err
		}
		return nil
	}
	b.renderDialog()
	return nil
}

func (b *browser) renderDialog() {
	preview, ok := b.page.Export.Preview()
	if !ok {
		return
	}
	fmt.Fprintln(b.app.Out, ui.ExportDialog(preview, b.page.Export.Available(), b.page.Export.Selected()))
}

func (b *browser) renderTable() {
	fmt.Fprintln(b.app.Out, ui.Table(ui.TableView{
		Page:          b.page.Transactions(),
		ActiveFilters: b.page.Filters.ActiveCount(),
		Loading:       b.page.Query.Loading(),
	}))
}
