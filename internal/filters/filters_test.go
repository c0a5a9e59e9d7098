package filters

import (
	"encoding/json"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"findash/internal/core"
)

func ptr[T any](v T) *T { return &v }

func TestEncodeOmitsUnsetAndEmpty(t *testing.T) {
	f := TransactionFilters{
		Search:    ptr(""),
		Category:  ptr(core.Revenue),
		UserID:    nil,
		SortBy:    SortByDate,
		SortOrder: Desc,
		Page:      1,
		Limit:     10,
	}
	got := f.Encode()
	want := url.Values{
		"category":  {"Revenue"},
		"sortBy":    {"date"},
		"sortOrder": {"desc"},
		"page":      {"1"},
		"limit":     {"10"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Encode() = %v, want %v", got, want)
	}
	if got.Encode() != "category=Revenue&limit=10&page=1&sortBy=date&sortOrder=desc" {
		t.Fatalf("query string = %q", got.Encode())
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []TransactionFilters{
		{},
		Defaults(20),
		{
			Search:    ptr("coffee & tea"),
			Category:  ptr(core.Expense),
			Status:    ptr(core.Pending),
			UserID:    ptr("65a1f0"),
			DateFrom:  ptr(core.NewDate(2024, 1, 1)),
			DateTo:    ptr(core.NewDate(2024, 3, 31)),
			SortBy:    SortByAmount,
			SortOrder: Asc,
			Page:      3,
			Limit:     50,
		},
		{Status: ptr(core.Paid), Page: 2},
	}
	for i, in := range cases {
		q := in.Encode().Encode()
		parsed, err := url.ParseQuery(q)
		if err != nil {
			t.Fatalf("case %d: parse query: %v", i, err)
		}
		out, err := Decode(parsed)
		if err != nil {
			t.Fatalf("case %d: decode: %v", i, err)
		}
		if !reflect.DeepEqual(in, out) {
			t.Fatalf("case %d: round trip mismatch\n in: %+v\nout: %+v", i, in, out)
		}
	}
}

func TestDecodeRejectsBadValues(t *testing.T) {
	cases := []url.Values{
		{"category": {"Refund"}},
		{"status": {"void"}},
		{"dateFrom": {"yesterday"}},
		{"sortBy": {"colour"}},
		{"sortOrder": {"up"}},
		{"page": {"0"}},
		{"limit": {"ten"}},
	}
	for _, v := range cases {
		if _, err := Decode(v); err == nil {
			t.Fatalf("Decode(%v) expected error", v)
		}
	}
}

func TestDecodeReportsFirstBadKey(t *testing.T) {
	tests := []struct {
		name string
		in   url.Values
		want string
	}{
		{"both dates", url.Values{"dateFrom": {"soon"}, "dateTo": {"later"}}, `dateFrom "soon"`},
		{"page and limit", url.Values{"page": {"-1"}, "limit": {"x"}}, `page "-1"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 50; i++ {
				_, err := Decode(tt.in)
				if err == nil || !strings.HasPrefix(err.Error(), tt.want) {
					t.Fatalf("run %d: err = %v, want prefix %s", i, err, tt.want)
				}
			}
		})
	}
}

func TestJSONBodyKeys(t *testing.T) {
	f := Defaults(10)
	f.Category = ptr(core.Revenue)
	f.DateFrom = ptr(core.NewDate(2024, 2, 1))

	b, err := json.Marshal(f.WithoutPaging())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"category":"Revenue","dateFrom":"2024-02-01","sortBy":"date","sortOrder":"desc"}`
	if string(b) != want {
		t.Fatalf("json = %s, want %s", b, want)
	}
}

func TestActiveCountIgnoresPagingAndSort(t *testing.T) {
	f := Defaults(10)
	f.Page = 4
	f.SortBy = SortByAmount
	if n := f.ActiveCount(); n != 0 {
		t.Fatalf("ActiveCount() = %d, want 0", n)
	}
	f.Search = ptr("rent")
	f.UserID = ptr("")
	f.DateTo = ptr(core.NewDate(2024, 1, 31))
	if n := f.ActiveCount(); n != 2 {
		t.Fatalf("ActiveCount() = %d, want 2", n)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	f := TransactionFilters{Search: ptr("a")}
	c := f.Clone()
	*c.Search = "b"
	if *f.Search != "a" {
		t.Fatalf("clone shares search pointer")
	}
}
