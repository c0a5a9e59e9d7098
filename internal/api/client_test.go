package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"findash/internal/backendtest"
	"findash/internal/core"
	"findash/internal/filters"
	"findash/internal/session"
)

type fixture struct {
	backend *backendtest.Server
	client  *Client
	session *session.Session
	toLogin int
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	ctx := context.Background()
	store := session.NewMemoryStore()
	if token != "" {
		_ = store.Save(ctx, token)
	}
	sess, err := session.Open(ctx, store, nil)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}

	f := &fixture{backend: backendtest.New(t), session: sess}
	f.client = NewClient(Options{
		BaseURL:   f.backend.BaseURL(),
		Timeout:   2 * time.Second,
		Navigator: NavigatorFunc(func() { f.toLogin++ }),
	}, sess)
	return f
}

func TestRequestsCarryBearerToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"with token", "tok-1", "Bearer tok-1"},
		{"signed out", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.token)
			f.backend.Reply(http.MethodGet, "/dashboard/summary", http.StatusOK, core.DashboardSummary{})

			if _, err := f.client.DashboardSummary(context.Background()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			req, ok := f.backend.Last("/api/dashboard/summary")
			if !ok {
				t.Fatal("no request recorded")
			}
			if got := req.Header.Get("Authorization"); got != tt.want {
				t.Errorf("Authorization = %q, want %q", got, tt.want)
			}
			if req.Header.Get("Content-Type") != "application/json" {
				t.Errorf("Content-Type = %q", req.Header.Get("Content-Type"))
			}
			if req.Header.Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID")
			}
		})
	}
}

func TestAuthorizationFailureTearsDownSession(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			f := newFixture(t, "stale")
			f.backend.Reply(http.MethodGet, "/transactions", status, map[string]string{"error": "Invalid token"})

			_, err := f.client.Transactions(context.Background(), filters.Defaults(20))
			if !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
			if KindOf(err) != KindAuth {
				t.Errorf("kind = %v, want auth", KindOf(err))
			}
			if f.session.HasToken() {
				t.Error("token survived an authorization failure")
			}
			if f.toLogin != 1 {
				t.Errorf("navigator called %d times, want 1", f.toLogin)
			}
		})
	}
}

func TestAuthorizationFailureDuringLogin(t *testing.T) {
	f := newFixture(t, "")
	f.backend.Reply(http.MethodPost, "/auth/login", http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})

	_, err := f.client.Login(context.Background(), "a@b.c", "bad")
	if err == nil || err.Error() != "Invalid credentials" {
		t.Fatalf("err = %v, want backend message", err)
	}
	if f.toLogin != 1 {
		t.Errorf("navigator called %d times, want 1", f.toLogin)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     any
		wantMsg  string
		wantKind Kind
	}{
		{"backend message", http.StatusBadRequest, map[string]string{"error": "Invalid date range"}, "Invalid date range", KindValidation},
		{"empty error field", http.StatusBadRequest, map[string]string{"error": " "}, "Failed to fetch transactions", KindValidation},
		{"no body", http.StatusNotFound, nil, "Failed to fetch transactions", KindValidation},
		{"server error", http.StatusInternalServerError, map[string]string{"message": "boom"}, "Failed to fetch transactions", KindServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "tok")
			f.backend.Reply(http.MethodGet, "/transactions", tt.status, tt.body)

			_, err := f.client.Transactions(context.Background(), filters.Defaults(20))
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
			if KindOf(err) != tt.wantKind {
				t.Errorf("kind = %v, want %v", KindOf(err), tt.wantKind)
			}
			if !f.session.HasToken() {
				t.Error("non-auth failure cleared the token")
			}
		})
	}
}

func TestNetworkFailureUsesFallback(t *testing.T) {
	f := newFixture(t, "tok")
	f.backend.Close()

	_, err := f.client.DashboardSummary(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "Failed to fetch dashboard data" {
		t.Errorf("message = %q", err.Error())
	}
	if KindOf(err) != KindNetwork {
		t.Errorf("kind = %v, want network", KindOf(err))
	}
}

func TestTransactionsQuerySerialization(t *testing.T) {
	f := newFixture(t, "tok")
	f.backend.Reply(http.MethodGet, "/transactions", http.StatusOK, core.EmptyPage[core.Transaction](20))

	q := filters.Defaults(20)
	search := "rent"
	cat := core.Expense
	from := core.NewDate(2024, 1, 1)
	q.Search, q.Category, q.DateFrom = &search, &cat, &from
	q.Page = 3

	page, err := f.client.Transactions(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Data == nil {
		t.Error("Data should be an empty slice, not nil")
	}

	req, _ := f.backend.Last("/api/transactions")
	want := map[string]string{
		"search":    "rent",
		"category":  "Expense",
		"dateFrom":  "2024-01-01",
		"page":      "3",
		"limit":     "20",
		"sortBy":    "date",
		"sortOrder": "desc",
	}
	for k, v := range want {
		if got := req.Query.Get(k); got != v {
			t.Errorf("query %s = %q, want %q", k, got, v)
		}
	}
	for _, k := range []string{"status", "user_id", "dateTo"} {
		if req.Query.Has(k) {
			t.Errorf("unset filter %s was sent", k)
		}
	}
}

func TestTransactionByID(t *testing.T) {
	f := newFixture(t, "tok")
	f.backend.Reply(http.MethodGet, "/transactions/{id}", http.StatusOK, map[string]any{
		"id": "t1", "date": "2024-03-05T00:00:00.000Z", "amount": 12.5,
		"category": "Revenue", "status": "Paid", "user_id": "u1", "user_profile": "Ana",
	})

	tx, err := f.client.Transaction(context.Background(), "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.ID != "t1" || tx.Date.String() != "2024-03-05" || tx.Amount.String() != "12.5" {
		t.Errorf("decoded %+v", tx)
	}
	if f.backend.Count(http.MethodGet, "/api/transactions/t1") != 1 {
		t.Error("expected one request to /transactions/t1")
	}
}

func TestUniqueUsers(t *testing.T) {
	f := newFixture(t, "tok")
	f.backend.Reply(http.MethodGet, "/transactions/users", http.StatusOK, map[string]any{
		"users": []map[string]string{{"_id": "u1", "name": "Ana"}, {"_id": "u2", "name": "Bo"}},
	})

	users, err := f.client.UniqueUsers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 || users[1].ID != "u2" || users[1].Name != "Bo" {
		t.Errorf("users = %+v", users)
	}
}

func TestExportRequests(t *testing.T) {
	f := newFixture(t, "tok")
	f.backend.Reply(http.MethodPost, "/export/preview", http.StatusOK, core.ExportPreview{TotalTransactions: 42, Message: "42 transactions"})
	csv := []byte("date,amount\n2024-01-01,10\n")
	f.backend.Reply(http.MethodPost, "/export/csv", http.StatusOK, csv)

	q := filters.Defaults(20)
	status := core.Pending
	q.Status = &status

	preview, err := f.client.ExportPreview(context.Background(), q.WithoutPaging())
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if preview.TotalTransactions != 42 {
		t.Errorf("preview = %+v", preview)
	}

	var body struct {
		Filters map[string]any `json:"filters"`
		Columns []string       `json:"columns"`
	}
	req, _ := f.backend.Last("/api/export/preview")
	if err := req.DecodeBody(&body); err != nil {
		t.Fatalf("decode preview body: %v", err)
	}
	if body.Filters["status"] != "Pending" {
		t.Errorf("preview filters = %v", body.Filters)
	}
	if _, ok := body.Filters["page"]; ok {
		t.Error("preview sent pagination")
	}

	data, err := f.client.ExportCSV(context.Background(), q.WithoutPaging(), []string{"date", "amount"})
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if string(data) != string(csv) {
		t.Errorf("csv = %q", data)
	}
	req, _ = f.backend.Last("/api/export/csv")
	if err := req.DecodeBody(&body); err != nil {
		t.Fatalf("decode csv body: %v", err)
	}
	if len(body.Columns) != 2 || body.Columns[0] != "date" {
		t.Errorf("columns = %v", body.Columns)
	}
}

func TestOversizedResponseIsRejected(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"at cap", 64, false},
		{"one byte over", 65, true},
		{"far over", 4096, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "tok")
			f.client = NewClient(Options{
				BaseURL:          f.backend.BaseURL(),
				Timeout:          2 * time.Second,
				MaxResponseBytes: 16,
				MaxExportBytes:   64,
			}, f.session)
			csv := []byte(strings.Repeat("x", tt.size))
			f.backend.Reply(http.MethodPost, "/export/csv", http.StatusOK, csv)

			data, err := f.client.ExportCSV(context.Background(), filters.Defaults(20).WithoutPaging(), []string{"date"})
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(data) != tt.size {
					t.Errorf("received %d bytes, want %d", len(data), tt.size)
				}
				return
			}
			if err == nil {
				t.Fatalf("received %d bytes without error, want rejection", len(data))
			}
			if data != nil {
				t.Errorf("partial body returned: %d bytes", len(data))
			}
			if !errors.Is(err, ErrResponseTooLarge) {
				t.Errorf("err = %v, want ErrResponseTooLarge", err)
			}
			if KindOf(err) != KindNetwork {
				t.Errorf("kind = %v, want network", KindOf(err))
			}
			if err.Error() != "Failed to export transactions" {
				t.Errorf("message = %q", err.Error())
			}
		})
	}
}

func TestOversizedJSONIsRejected(t *testing.T) {
	f := newFixture(t, "tok")
	f.client = NewClient(Options{
		BaseURL:          f.backend.BaseURL(),
		Timeout:          2 * time.Second,
		MaxResponseBytes: 16,
	}, f.session)
	f.backend.Reply(http.MethodGet, "/transactions/users", http.StatusOK, map[string]any{
		"users": []core.UserRef{{ID: "u1", Name: "A rather long user name"}},
	})

	_, err := f.client.UniqueUsers(context.Background())
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Fatalf("err = %v, want ErrResponseTooLarge", err)
	}
}

func TestLoginPersistsToken(t *testing.T) {
	f := newFixture(t, "")
	f.backend.Reply(http.MethodPost, "/auth/login", http.StatusOK, core.AuthResponse{
		Token: "fresh", User: core.User{ID: "u1", Email: "a@b.c", Name: "Ana"},
	})

	resp, err := f.client.Login(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User.Name != "Ana" {
		t.Errorf("user = %+v", resp.User)
	}
	if f.session.Token() != "fresh" {
		t.Errorf("token = %q", f.session.Token())
	}

	var creds map[string]string
	req, _ := f.backend.Last("/api/auth/login")
	_ = req.DecodeBody(&creds)
	if creds["email"] != "a@b.c" || creds["password"] != "pw" {
		t.Errorf("credentials = %v", creds)
	}
	if _, ok := creds["name"]; ok {
		t.Error("login sent a name")
	}
}

func TestRegisterRejectsMissingToken(t *testing.T) {
	f := newFixture(t, "")
	f.backend.Reply(http.MethodPost, "/auth/register", http.StatusOK, map[string]any{"user": map[string]string{"id": "u1"}})

	_, err := f.client.Register(context.Background(), "a@b.c", "pw", "Ana")
	if err == nil || err.Error() != "Registration failed" {
		t.Fatalf("err = %v", err)
	}
	if f.session.HasToken() {
		t.Error("token set without a token in the response")
	}
}

func TestVerify(t *testing.T) {
	f := newFixture(t, "tok")
	f.backend.Reply(http.MethodGet, "/auth/verify", http.StatusOK, map[string]any{
		"user": core.User{ID: "u1", Email: "a@b.c", Name: "Ana"},
	})

	user, err := f.client.Verify(context.Background())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if user.Email != "a@b.c" {
		t.Errorf("user = %+v", user)
	}
}

func TestLogoutClearsTokenEvenOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"remote ok", http.StatusOK, false},
		{"remote failure", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "tok")
			f.backend.Reply(http.MethodPost, "/auth/logout", tt.status, map[string]string{})

			err := f.client.Logout(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err.Error() != "Logout failed" {
				t.Errorf("message = %q", err.Error())
			}
			if f.session.HasToken() {
				t.Error("token survived logout")
			}
			req, _ := f.backend.Last("/api/auth/logout")
			if req.Header.Get("Authorization") != "Bearer tok" {
				t.Error("logout was not sent with the token")
			}
		})
	}
}
