// Package idalloc allocates invoice identifiers. Every allocator hands out
// each id at most once, also under concurrent use.
package idalloc

import (
	"context"
	"sync/atomic"
)

// DefaultSeed is the last id considered issued before the first allocation,
// so a fresh allocator starts at 102.
const DefaultSeed = 101

// Allocator hands out unique, increasing invoice ids.
type Allocator interface {
	Next(ctx context.Context) (int64, error)
}

// Counter is an in-process allocator.
type Counter struct {
	last atomic.Int64
}

// NewCounter returns a counter whose first id is seed+1.
func NewCounter(seed int64) *Counter {
	c := &Counter{}
	c.last.Store(seed)
	return c
}

// Next increments and returns the counter.
func (c *Counter) Next(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return c.last.Add(1), nil
}

// Last returns the most recently issued id (the seed if none).
func (c *Counter) Last() int64 {
	return c.last.Load()
}
