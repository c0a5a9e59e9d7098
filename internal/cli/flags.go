package cli

import (
	"flag"
	"fmt"
	"strings"

	"findash/internal/core"
	"findash/internal/filters"
)

// filterFlags are the filter options shared by transactions and export.
type filterFlags struct {
	search   string
	category string
	status   string
	user     string
	from     string
	to       string
	sortBy   string
	order    string
	page     int
	limit    int
}

func bindFilterFlags(fs *flag.FlagSet) *filterFlags {
	ff := &filterFlags{}
	fs.StringVar(&ff.search, "search", "", "free-text search")
	fs.StringVar(&ff.category, "category", "", "Revenue or Expense")
	fs.StringVar(&ff.status, "status", "", "Paid or Pending")
	fs.StringVar(&ff.user, "user", "", "owning user id")
	fs.StringVar(&ff.from, "from", "", "first date, YYYY-MM-DD (inclusive)")
	fs.StringVar(&ff.to, "to", "", "last date, YYYY-MM-DD (inclusive)")
	fs.StringVar(&ff.sortBy, "sort", filters.SortByDate, "sort field: date, amount, category, status, user_id")
	fs.StringVar(&ff.order, "order", string(filters.Desc), "sort order: asc or desc")
	fs.IntVar(&ff.page, "page", 1, "page number (1-based)")
	fs.IntVar(&ff.limit, "limit", 0, "page size (0 = page default)")
	return ff
}

// apply writes the flags into store through its setters. The page is set
// last since every other setter returns to page 1.
func (ff *filterFlags) apply(store *filters.Store) error {
	store.SetSearch(ff.search)
	if ff.category != "" {
		c, err := core.ParseCategory(ff.category)
		if err != nil {
			return fmt.Errorf("-category %q: %w", ff.category, err)
		}
		if err := store.SetCategory(c); err != nil {
			return err
		}
	}
	if ff.status != "" {
		st, err := core.ParseStatus(ff.status)
		if err != nil {
			return fmt.Errorf("-status %q: %w", ff.status, err)
		}
		if err := store.SetStatus(st); err != nil {
			return err
		}
	}
	store.SetUser(ff.user)
	if ff.from != "" {
		d, err := core.ParseDate(ff.from)
		if err != nil {
			return fmt.Errorf("-from %q: %w", ff.from, err)
		}
		store.SetDateFrom(d)
	}
	if ff.to != "" {
		d, err := core.ParseDate(ff.to)
		if err != nil {
			return fmt.Errorf("-to %q: %w", ff.to, err)
		}
		store.SetDateTo(d)
	}
	order, err := filters.ParseSortOrder(ff.order)
	if err != nil {
		return fmt.Errorf("-order %q: %w", ff.order, err)
	}
	if err := store.SetSort(ff.sortBy, order); err != nil {
		return fmt.Errorf("-sort %q: %w", ff.sortBy, err)
	}
	if ff.limit > 0 {
		store.SetLimit(ff.limit)
	}
	store.SetPage(ff.page)
	return nil
}

// splitColumns parses a comma separated column list.
func splitColumns(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
