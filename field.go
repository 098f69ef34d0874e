package hxmount

import (
	"context"
	"sync"
)

// Field is an observable component property. Setting a different value
// requests a render of the owning component.
//
//	count := hxmount.NewField(c, 0)
//	_ = count.Set(ctx, count.Get()+1)
type Field[T comparable] struct {
	mu    sync.RWMutex
	v     T
	owner *Component
}

// NewField creates a field owned by c holding initial.
func NewField[T comparable](c *Component, initial T) *Field[T] {
	return &Field[T]{v: initial, owner: c}
}

// Get returns the current value.
func (f *Field[T]) Get() T {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.v
}

// Set stores v. When v differs from the current value the owner is asked
// to render; the render error is returned.
func (f *Field[T]) Set(ctx context.Context, v T) error {
	f.mu.Lock()
	if f.v == v {
		f.mu.Unlock()
		return nil
	}
	f.v = v
	f.mu.Unlock()

	if f.owner == nil {
		return nil
	}
	return f.owner.RequestUpdate(ctx)
}
