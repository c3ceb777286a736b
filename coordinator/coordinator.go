package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// FetchFunc retrieves a fresh copy of the data that a Coordinator caches.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Coordinator periodically refreshes some data from a slow source (e.g. the Octopus API) and caches the last good copy
// so that the sensors can read it at any time without blocking.
type Coordinator[T any] struct {
	name    string
	fetch   FetchFunc[T]
	timeout time.Duration

	lock        sync.RWMutex // mutex is used to lock access to `data`, `hasData` and `lastUpdated`
	data        T
	hasData     bool
	lastUpdated time.Time

	logger *slog.Logger
}

// New returns a coordinator that calls `fetch` with the given timeout on each refresh.
func New[T any](name string, timeout time.Duration, fetch FetchFunc[T]) *Coordinator[T] {
	return &Coordinator[T]{
		name:    name,
		fetch:   fetch,
		timeout: timeout,
		logger:  slog.Default().With("coordinator", name),
	}
}

// Run refreshes the data immediately and then every `period`, until the context is cancelled.
// Failures are logged and the previous data continues to be served.
func (c *Coordinator[T]) Run(ctx context.Context, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	c.refreshAndLog(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.refreshAndLog(ctx)
		}
	}
}

func (c *Coordinator[T]) refreshAndLog(ctx context.Context) {
	err := c.Refresh(ctx)
	if err != nil {
		c.logger.Error("Failed to refresh data", "error", err)
		return
	}
	c.logger.Info("Refreshed data")
}

// Refresh fetches new data once and, if successful, replaces the cached copy.
func (c *Coordinator[T]) Refresh(ctx context.Context) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	data, err := c.fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", c.name, err)
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	c.data = data
	c.hasData = true
	c.lastUpdated = time.Now()

	return nil
}

// Data returns the last successfully fetched data, or false if nothing has been fetched yet.
func (c *Coordinator[T]) Data() (T, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.data, c.hasData
}

// LastUpdated returns the time of the last successful refresh, or the zero time if there hasn't been one.
func (c *Coordinator[T]) LastUpdated() time.Time {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.lastUpdated
}

func (c *Coordinator[T]) Name() string {
	return c.name
}
