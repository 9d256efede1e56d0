// Package storagetest provides an in-process SessionRouter for service tests.
package storagetest

import (
	"context"
	"sync"

	"customer-health/internal/storage"
)

// Router runs callbacks inline with a nil session and counts scopes. Set Err to make
// every scope fail before its callback runs.
type Router struct {
	mu     sync.Mutex
	Writes int
	Reads  int
	Err    error
}

var _ storage.SessionRouter = (*Router)(nil)

func (r *Router) ScopedWrite(ctx context.Context, fn storage.SessionFunc) error {
	r.mu.Lock()
	r.Writes++
	err := r.Err
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return fn(ctx, nil)
}

func (r *Router) ScopedRead(ctx context.Context, fn storage.SessionFunc) error {
	r.mu.Lock()
	r.Reads++
	err := r.Err
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return fn(ctx, nil)
}
