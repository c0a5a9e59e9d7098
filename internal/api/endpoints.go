package api

import (
	"context"
	"net/url"

	"findash/internal/core"
	"findash/internal/filters"
	"findash/internal/log"
)

func (c *Client) DashboardSummary(ctx context.Context) (core.DashboardSummary, error) {
	var out core.DashboardSummary
	err := c.getJSON(ctx, call{
		op:       log.OpSummary,
		path:     "/dashboard/summary",
		fallback: "Failed to fetch dashboard data",
	}, &out)
	return out, err
}

// Transactions lists one page of transactions matching f.
func (c *Client) Transactions(ctx context.Context, f filters.TransactionFilters) (core.PaginatedResponse[core.Transaction], error) {
	var out core.PaginatedResponse[core.Transaction]
	err := c.getJSON(ctx, call{
		op:       log.OpTransactions,
		path:     "/transactions",
		query:    f.Encode(),
		fallback: "Failed to fetch transactions",
	}, &out)
	if err != nil {
		return out, err
	}
	if out.Data == nil {
		out.Data = []core.Transaction{}
	}
	if verr := out.Validate(); verr != nil {
		c.logger.WarnContext(ctx, "Backend page violates pagination invariants",
			log.FieldOperation, log.OpTransactions, log.FieldError, verr)
	}
	return out, nil
}

func (c *Client) Transaction(ctx context.Context, id string) (core.Transaction, error) {
	var out core.Transaction
	err := c.getJSON(ctx, call{
		op:       log.OpTransaction,
		path:     "/transactions/" + url.PathEscape(id),
		fallback: "Failed to fetch transaction",
	}, &out)
	return out, err
}

// UniqueUsers returns the user directory for the user filter.
func (c *Client) UniqueUsers(ctx context.Context) ([]core.UserRef, error) {
	var out struct {
		Users []core.UserRef `json:"users"`
	}
	err := c.getJSON(ctx, call{
		op:       log.OpUsers,
		path:     "/transactions/users",
		fallback: "Failed to fetch users",
	}, &out)
	if out.Users == nil {
		out.Users = []core.UserRef{}
	}
	return out.Users, err
}

type exportRequest struct {
	Filters filters.TransactionFilters `json:"filters"`
	Columns []string                   `json:"columns,omitempty"`
}

// ExportPreview counts the transactions an export of f would contain.
func (c *Client) ExportPreview(ctx context.Context, f filters.TransactionFilters) (core.ExportPreview, error) {
	var out core.ExportPreview
	err := c.postJSON(ctx, call{
		op:       log.OpPreview,
		path:     "/export/preview",
		body:     exportRequest{Filters: f},
		fallback: "Failed to get export preview",
	}, &out)
	return out, err
}

// ExportCSV returns the generated file as opaque bytes.
func (c *Client) ExportCSV(ctx context.Context, f filters.TransactionFilters, columns []string) ([]byte, error) {
	if columns == nil {
		columns = []string{}
	}
	return c.do(ctx, call{
		op:       log.OpExportCSV,
		method:   "POST",
		path:     "/export/csv",
		body:     exportRequest{Filters: f, Columns: columns},
		fallback: "Failed to export transactions",
		limit:    c.maxExport,
	})
}
