package core

import "fmt"

// Pagination is the metadata block of a paginated response.
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// PaginatedResponse is one page of T plus pagination metadata.
type PaginatedResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Validate checks the page invariants: the page holds at most ItemsPerPage
// items and CurrentPage is within TotalPages when there are items.
func (p PaginatedResponse[T]) Validate() error {
	pg := p.Pagination
	if pg.ItemsPerPage > 0 && len(p.Data) > pg.ItemsPerPage {
		return fmt.Errorf("page holds %d items, more than %d per page", len(p.Data), pg.ItemsPerPage)
	}
	if pg.TotalItems > 0 && pg.CurrentPage > pg.TotalPages {
		return fmt.Errorf("current page %d beyond total pages %d", pg.CurrentPage, pg.TotalPages)
	}
	return nil
}

// HasNext reports whether a page after the current one exists.
func (p PaginatedResponse[T]) HasNext() bool {
	return p.Pagination.CurrentPage < p.Pagination.TotalPages
}

// HasPrev reports whether a page before the current one exists.
func (p PaginatedResponse[T]) HasPrev() bool {
	return p.Pagination.CurrentPage > 1
}

// EmptyPage returns the placeholder shown before the first fetch resolves.
func EmptyPage[T any](itemsPerPage int) PaginatedResponse[T] {
	return PaginatedResponse[T]{
		Data: []T{},
		Pagination: Pagination{
			CurrentPage:  1,
			TotalPages:   1,
			ItemsPerPage: itemsPerPage,
		},
	}
}
