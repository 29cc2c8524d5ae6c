// Package storetest provides store.Client decorators that simulate replica
// lag and partial write failures.
package storetest

import (
	"context"
	"maps"
	"sync"

	"permitflow/internal/permit/store"
	"permitflow/pkg/platform/sentinel"
)

// LaggingClient serves stale reads of one table for a number of SelectOne
// calls before passing through.
type LaggingClient struct {
	store.Client

	mu        sync.Mutex
	table     store.Table
	remaining int
	stale     store.Row
	reads     int
}

// NewLagging returns a client whose first misses SelectOne calls on table
// miss. Use WithStale to serve an old row instead of not-found.
func NewLagging(inner store.Client, table store.Table, misses int) *LaggingClient {
	return &LaggingClient{Client: inner, table: table, remaining: misses}
}

// WithStale makes lagging reads return the current row with row's columns laid over it.
func (c *LaggingClient) WithStale(row store.Row) *LaggingClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale = maps.Clone(row)
	return c
}

// Reads reports how many SelectOne calls hit the lagging table.
func (c *LaggingClient) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

func (c *LaggingClient) SelectOne(ctx context.Context, table store.Table, filter store.Filter) (store.Row, error) {
	if table != c.table {
		return c.Client.SelectOne(ctx, table, filter)
	}
	c.mu.Lock()
	c.reads++
	lagging := c.remaining > 0
	if lagging {
		c.remaining--
	}
	stale := maps.Clone(c.stale)
	c.mu.Unlock()

	if !lagging {
		return c.Client.SelectOne(ctx, table, filter)
	}
	if stale == nil {
		return nil, sentinel.ErrNotFound
	}
	fresh, err := c.Client.SelectOne(ctx, table, filter)
	if err != nil {
		return nil, err
	}
	merged := maps.Clone(fresh)
	maps.Copy(merged, stale)
	return merged, nil
}

// FailingClient fails writes to chosen tables after delegating everything
// else.
type FailingClient struct {
	store.Client

	mu      sync.Mutex
	writes  map[store.Table]error
	deletes map[store.Table]error
}

func NewFailing(inner store.Client) *FailingClient {
	return &FailingClient{
		Client:  inner,
		writes:  make(map[store.Table]error),
		deletes: make(map[store.Table]error),
	}
}

// FailWrites makes Insert and Update on table return err.
func (c *FailingClient) FailWrites(table store.Table, err error) *FailingClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes[table] = err
	return c
}

// FailDeletes makes Delete on table return err.
func (c *FailingClient) FailDeletes(table store.Table, err error) *FailingClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes[table] = err
	return c
}

func (c *FailingClient) failure(m map[store.Table]error, table store.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return m[table]
}

func (c *FailingClient) Insert(ctx context.Context, table store.Table, row store.Row) (store.Row, error) {
	if err := c.failure(c.writes, table); err != nil {
		return nil, err
	}
	return c.Client.Insert(ctx, table, row)
}

func (c *FailingClient) Update(ctx context.Context, table store.Table, key store.Filter, patch store.Row) (store.Row, error) {
	if err := c.failure(c.writes, table); err != nil {
		return nil, err
	}
	return c.Client.Update(ctx, table, key, patch)
}

func (c *FailingClient) Delete(ctx context.Context, table store.Table, key store.Filter) error {
	if err := c.failure(c.deletes, table); err != nil {
		return err
	}
	return c.Client.Delete(ctx, table, key)
}
