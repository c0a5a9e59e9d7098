package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Revenue Category = "Revenue"
	Expense Category = "Expense"

	Paid    Status = "Paid"
	Pending Status = "Pending"
)

// DateLayout is the calendar date format used on the wire and in filters.
const DateLayout = "2006-01-02"

type (
	Category string

	Status string

	Date struct {
		time.Time
	}

	Transaction struct {
		ID          string          `json:"id"`
		Date        Date            `json:"date"`
		Amount      decimal.Decimal `json:"amount"`
		Category    Category        `json:"category"`
		Status      Status          `json:"status"`
		UserID      string          `json:"user_id"`
		UserProfile string          `json:"user_profile"`
	}

	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}

	// UserRef is an entry of the unique user directory used by the user filter.
	UserRef struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	}

	AuthResponse struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}

	ExportPreview struct {
		TotalTransactions int    `json:"totalTransactions"`
		Message           string `json:"message"`
	}
)

var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidDate     = errors.New("invalid date")
)

func (c Category) Valid() bool {
	return c == Revenue || c == Expense
}

// ParseCategory accepts the category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "revenue":
		return Revenue, nil
	case "expense":
		return Expense, nil
	}
	return "", ErrInvalidCategory
}

func (s Status) Valid() bool {
	return s == Paid || s == Pending
}

// ParseStatus accepts the status name case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paid":
		return Paid, nil
	case "pending":
		return Pending, nil
	}
	return "", ErrInvalidStatus
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date. Full RFC3339 timestamps are accepted and
// truncated to their UTC date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Signed returns the amount with expenses negative and revenue positive,
// whatever sign the backend stored.
func (t Transaction) Signed() decimal.Decimal {
	if t.Category == Expense {
		return t.Amount.Abs().Neg()
	}
	return t.Amount.Abs()
}
