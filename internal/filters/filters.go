// Package filters holds the transaction query of one page and its query
// string encoding.
package filters

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"findash/internal/core"
)

// SortOrder is the sort direction of the listing.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Sortable fields accepted by the backend.
const (
	SortByDate     = "date"
	SortByAmount   = "amount"
	SortByCategory = "category"
	SortByStatus   = "status"
	SortByUser     = "user_id"
)

// Query parameter and JSON keys.
const (
	KeySearch    = "search"
	KeyCategory  = "category"
	KeyStatus    = "status"
	KeyUserID    = "user_id"
	KeyDateFrom  = "dateFrom"
	KeyDateTo    = "dateTo"
	KeyPage      = "page"
	KeyLimit     = "limit"
	KeySortBy    = "sortBy"
	KeySortOrder = "sortOrder"
)

var (
	ErrInvalidSortField = errors.New("invalid sort field")
	ErrInvalidSortOrder = errors.New("invalid sort order")
)

// TransactionFilters is the transaction query. Nil members are unset and
// never serialized.
type TransactionFilters struct {
	Search    *string        `json:"search,omitempty"`
	Category  *core.Category `json:"category,omitempty"`
	Status    *core.Status   `json:"status,omitempty"`
	UserID    *string        `json:"user_id,omitempty"`
	DateFrom  *core.Date     `json:"dateFrom,omitempty"` // inclusive
	DateTo    *core.Date     `json:"dateTo,omitempty"`   // inclusive
	SortBy    string         `json:"sortBy,omitempty"`
	SortOrder SortOrder      `json:"sortOrder,omitempty"`
	Page      int            `json:"page,omitempty"`
	Limit     int            `json:"limit,omitempty"`
}

// Defaults returns the cleared query for a page showing limit rows.
func Defaults(limit int) TransactionFilters {
	return TransactionFilters{
		SortBy:    SortByDate,
		SortOrder: Desc,
		Page:      1,
		Limit:     limit,
	}
}

func ValidSortField(field string) bool {
	switch field {
	case SortByDate, SortByAmount, SortByCategory, SortByStatus, SortByUser:
		return true
	}
	return false
}

func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	}
	return "", ErrInvalidSortOrder
}

// Clone returns a copy that shares no pointers with f.
func (f TransactionFilters) Clone() TransactionFilters {
	out := f
	if f.Search != nil {
		v := *f.Search
		out.Search = &v
	}
	if f.Category != nil {
		v := *f.Category
		out.Category = &v
	}
	if f.Status != nil {
		v := *f.Status
		out.Status = &v
	}
	if f.UserID != nil {
		v := *f.UserID
		out.UserID = &v
	}
	if f.DateFrom != nil {
		v := *f.DateFrom
		out.DateFrom = &v
	}
	if f.DateTo != nil {
		v := *f.DateTo
		out.DateTo = &v
	}
	return out
}

// WithoutPaging drops page and limit, as used for export requests.
func (f TransactionFilters) WithoutPaging() TransactionFilters {
	out := f.Clone()
	out.Page = 0
	out.Limit = 0
	return out
}

// ActiveCount is the number of set, non-empty filter dimensions. Paging and
// sorting do not count.
func (f TransactionFilters) ActiveCount() int {
	n := 0
	if f.Search != nil && *f.Search != "" {
		n++
	}
	if f.Category != nil && *f.Category != "" {
		n++
	}
	if f.Status != nil && *f.Status != "" {
		n++
	}
	if f.UserID != nil && *f.UserID != "" {
		n++
	}
	if f.DateFrom != nil && !f.DateFrom.IsZero() {
		n++
	}
	if f.DateTo != nil && !f.DateTo.IsZero() {
		n++
	}
	return n
}

// Encode serializes every set, non-empty field as a string query parameter.
func (f TransactionFilters) Encode() url.Values {
	v := url.Values{}
	setString := func(key string, s *string) {
		if s != nil && *s != "" {
			v.Set(key, *s)
		}
	}

	setString(KeySearch, f.Search)
	if f.Category != nil && *f.Category != "" {
		v.Set(KeyCategory, string(*f.Category))
	}
	if f.Status != nil && *f.Status != "" {
		v.Set(KeyStatus, string(*f.Status))
	}
	setString(KeyUserID, f.UserID)
	if f.DateFrom != nil && !f.DateFrom.IsZero() {
		v.Set(KeyDateFrom, f.DateFrom.String())
	}
	if f.DateTo != nil && !f.DateTo.IsZero() {
		v.Set(KeyDateTo, f.DateTo.String())
	}
	if f.SortBy != "" {
		v.Set(KeySortBy, f.SortBy)
	}
	if f.SortOrder != "" {
		v.Set(KeySortOrder, string(f.SortOrder))
	}
	if f.Page > 0 {
		v.Set(KeyPage, strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		v.Set(KeyLimit, strconv.Itoa(f.Limit))
	}
	return v
}

// Decode parses the keys written by Encode. Absent or empty keys stay unset.
func Decode(v url.Values) (TransactionFilters, error) {
	var f TransactionFilters

	if s := v.Get(KeySearch); s != "" {
		f.Search = &s
	}
	if s := v.Get(KeyCategory); s != "" {
		c, err := core.ParseCategory(s)
		if err != nil {
			return f, fmt.Errorf("%s %q: %w", KeyCategory, s, err)
		}
		f.Category = &c
	}
	if s := v.Get(KeyStatus); s != "" {
		st, err := core.ParseStatus(s)
		if err != nil {
			return f, fmt.Errorf("%s %q: %w", KeyStatus, s, err)
		}
		f.Status = &st
	}
	if s := v.Get(KeyUserID); s != "" {
		f.UserID = &s
	}
	dates := []struct {
		key string
		dst **core.Date
	}{
		{KeyDateFrom, &f.DateFrom},
		{KeyDateTo, &f.DateTo},
	}
	for _, field := range dates {
		if s := v.Get(field.key); s != "" {
			d, err := core.ParseDate(s)
			if err != nil {
				return f, fmt.Errorf("%s %q: %w", field.key, s, err)
			}
			*field.dst = &d
		}
	}
	if s := v.Get(KeySortBy); s != "" {
		if !ValidSortField(s) {
			return f, fmt.Errorf("%s %q: %w", KeySortBy, s, ErrInvalidSortField)
		}
		f.SortBy = s
	}
	if s := v.Get(KeySortOrder); s != "" {
		o, err := ParseSortOrder(s)
		if err != nil {
			return f, fmt.Errorf("%s %q: %w", KeySortOrder, s, err)
		}
		f.SortOrder = o
	}
	counts := []struct {
		key string
		dst *int
	}{
		{KeyPage, &f.Page},
		{KeyLimit, &f.Limit},
	}
	for _, field := range counts {
		if s := v.Get(field.key); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				return f, fmt.Errorf("%s %q: must be a positive integer", field.key, s)
			}
			*field.dst = n
		}
	}
	return f, nil
}
