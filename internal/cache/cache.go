// Package cache holds the result caches of a page: the single current page
// of transactions, and TTL caches for auxiliary lookups.
package cache

import (
	"context"
	"time"

	"findash/internal/log"
)

// Cleaner is a cache that can drop its expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Sweeper periodically cleans the registered caches until its context ends.
type Sweeper struct {
	caches []Cleaner
	logger *log.Logger
}

func NewSweeper(logger *log.Logger, caches ...Cleaner) *Sweeper {
	if logger == nil {
		logger = log.Discard()
	}
	return &Sweeper{caches: caches, logger: logger.WithComponent(log.ComponentCache)}
}

// Sweep cleans every registered cache once and returns the number of
// entries removed.
func (s *Sweeper) Sweep() int {
	total := 0
	for _, c := range s.caches {
		total += c.CleanExpired()
	}
	return total
}

// Run sweeps every interval and returns when ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("Expired cache entries removed", log.FieldItems, n)
			}
		}
	}
}
