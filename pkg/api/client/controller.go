package client

import (
	"context"
	"errors"
	"sync"
)

// ListState describes where a list resource is in its load cycle.
type ListState int

const (
	StateIdle ListState = iota
	StateLoading
	StateLoaded
	StateLoadError
)

var (
	// ErrNotLoaded is returned when a mutation is requested before the list
	// has loaded.
	ErrNotLoaded = errors.New("client: list not loaded")
	// ErrNoPendingDelete is returned when confirm or cancel is called with no
	// delete request outstanding.
	ErrNoPendingDelete = errors.New("client: no delete pending confirmation")
	// ErrDeleteInFlight is returned when a second delete is requested while
	// one is already confirming or executing.
	ErrDeleteInFlight = errors.New("client: delete already in progress")
)

// ListController keeps one list resource synchronized with the server. It
// never mutates the local list ahead of a successful remote call, and it
// tags every fetch with a monotonic sequence token so a slow response cannot
// overwrite the result of a newer one.
type ListController[T any] struct {
	fetch func(context.Context) ([]T, error)
	keyOf func(T) string

	mu      sync.Mutex
	state   ListState
	items   []T
	lastErr error
	seq     uint64

	confirming string
	deleting   bool
}

// NewListController constructs a controller around a fetch function and a
// function extracting each item's identifier.
func NewListController[T any](fetch func(context.Context) ([]T, error), keyOf func(T) string) *ListController[T] {
	return &ListController[T]{fetch: fetch, keyOf: keyOf, state: StateIdle}
}

// State reports the current load state.
func (c *ListController[T]) State() ListState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Items returns a copy of the loaded list.
func (c *ListController[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Err returns the last load or delete error.
func (c *ListController[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Refresh fetches the list. It runs on mount, on identity change, and after
// every successful mutation. Responses carrying a stale sequence token are
// discarded so overlapping refreshes cannot reorder into a stale overwrite.
func (c *ListController[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	token := c.seq
	c.state = StateLoading
	c.mu.Unlock()

	items, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.seq {
		// A newer refresh was issued while this one was in flight.
		return nil
	}
	if err != nil {
		c.state = StateLoadError
		c.lastErr = err
		return err
	}
	c.items = items
	c.state = StateLoaded
	c.lastErr = nil
	return nil
}

// RequestDelete starts the two-phase confirm protocol for the given item.
// Nothing is removed until the remote delete succeeds.
func (c *ListController[T]) RequestDelete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateLoaded {
		return ErrNotLoaded
	}
	if c.confirming != "" || c.deleting {
		return ErrDeleteInFlight
	}
	c.confirming = id
	return nil
}

// CancelDelete abandons a pending confirmation, leaving the list unchanged.
func (c *ListController[T]) CancelDelete() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.confirming == "" {
		return ErrNoPendingDelete
	}
	c.confirming = ""
	return nil
}

// PendingDelete reports the item awaiting confirmation, if any.
func (c *ListController[T]) PendingDelete() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirming, c.confirming != ""
}

// ConfirmDelete executes the confirmed remote delete. On success the target
// is removed from the local list; on failure the list stays untouched and the
// error is surfaced.
func (c *ListController[T]) ConfirmDelete(ctx context.Context, remove func(context.Context, string) error) error {
	c.mu.Lock()
	id := c.confirming
	if id == "" {
		c.mu.Unlock()
		return ErrNoPendingDelete
	}
	if c.deleting {
		c.mu.Unlock()
		return ErrDeleteInFlight
	}
	c.deleting = true
	c.mu.Unlock()

	err := remove(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleting = false
	c.confirming = ""
	if err != nil {
		c.lastErr = err
		return err
	}
	kept := c.items[:0:0]
	for _, item := range c.items {
		if c.keyOf(item) != id {
			kept = append(kept, item)
		}
	}
	c.items = kept
	c.lastErr = nil
	return nil
}
