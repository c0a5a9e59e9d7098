package cache

import (
	"sync"

	"findash/internal/core"
)

// PageCache holds the one page of results currently shown. A fetch result
// replaces it whole; pages are never merged or appended.
type PageCache[T any] struct {
	mu      sync.RWMutex
	page    core.PaginatedResponse[T]
	version uint64
}

// NewPageCache starts with an empty first page of itemsPerPage rows.
func NewPageCache[T any](itemsPerPage int) *PageCache[T] {
	return &PageCache[T]{page: core.EmptyPage[T](itemsPerPage)}
}

// Replace installs page as the current result.
func (c *PageCache[T]) Replace(page core.PaginatedResponse[T]) {
	data := make([]T, len(page.Data))
	copy(data, page.Data)
	page.Data = data

	c.mu.Lock()
	c.page = page
	c.version++
	c.mu.Unlock()
}

// Current returns the current page. The returned slice is a copy.
func (c *PageCache[T]) Current() core.PaginatedResponse[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := c.page
	out.Data = append([]T(nil), c.page.Data...)
	if out.Data == nil {
		out.Data = []T{}
	}
	return out
}

// Version counts replacements; 0 means nothing was fetched yet.
func (c *PageCache[T]) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}
