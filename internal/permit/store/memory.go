package store

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"permitflow/pkg/platform/sentinel"
)

// InMemoryClient is a map-backed Client used in tests and local runs. It
// enforces the same per-permit uniqueness and foreign keys as the schema.
//
// Transactions are read-uncommitted: other callers see a transaction's
// writes before it commits, and a rollback reverts only those writes.
type InMemoryClient struct {
	mu     sync.RWMutex
	tables map[Table][]Row

	// txMu serializes transactions.
	txMu sync.Mutex
}

// NewInMemory creates an empty in-memory client.
func NewInMemory() *InMemoryClient {
	return &InMemoryClient{tables: make(map[Table][]Row)}
}

type memTxKey struct{}

// memTx is the undo log of one transaction. Entries run newest first on
// rollback while c.mu is held.
type memTx struct {
	mu   sync.Mutex
	undo []func(tables map[Table][]Row)
}

func txFrom(ctx context.Context) *memTx {
	tx, _ := ctx.Value(memTxKey{}).(*memTx)
	return tx
}

func (tx *memTx) record(fn func(tables map[Table][]Row)) {
	if tx == nil {
		return
	}
	tx.mu.Lock()
	tx.undo = append(tx.undo, fn)
	tx.mu.Unlock()
}

// RunInTx implements Transactor. Nested calls join the outer transaction.
func (c *InMemoryClient) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}
	c.txMu.Lock()
	defer c.txMu.Unlock()

	tx := &memTx{}
	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		c.rollback(tx)
		return err
	}
	return nil
}

func (c *InMemoryClient) rollback(tx *memTx) {
	tx.mu.Lock()
	undo := tx.undo
	tx.undo = nil
	tx.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(undo) - 1; i >= 0; i-- {
		undo[i](c.tables)
	}
}

func withoutID(rows []Row, id any) []Row {
	return slices.DeleteFunc(rows, func(r Row) bool { return equal(r["id"], id) })
}

func (c *InMemoryClient) Insert(ctx context.Context, table Table, row Row) (Row, error) {
	if err := checkColumns(table, row); err != nil {
		return nil, err
	}
	stored := Row(normalizeMap(row))
	if _, ok := stored["id"]; !ok {
		return nil, fmt.Errorf("insert %s: id is required", table)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.tables[table] {
		if equal(existing["id"], stored["id"]) {
			return nil, fmt.Errorf("insert %s: %w", table, sentinel.ErrConflict)
		}
		if perPermit[table] && equal(existing["permit_id"], stored["permit_id"]) {
			return nil, fmt.Errorf("insert %s: %w", table, sentinel.ErrConflict)
		}
	}
	for _, col := range columns[table] {
		if _, ok := stored[col]; !ok {
			stored[col] = nil
		}
	}
	c.tables[table] = append(c.tables[table], stored)
	id := stored["id"]
	txFrom(ctx).record(func(tables map[Table][]Row) {
		tables[table] = withoutID(tables[table], id)
	})
	return stored.clone(), nil
}

func (c *InMemoryClient) Update(ctx context.Context, table Table, key Filter, patch Row) (Row, error) {
	if err := checkColumns(table, key, patch); err != nil {
		return nil, err
	}
	key = normalizeMap(key)
	patch = normalizeMap(patch)

	c.mu.Lock()
	defer c.mu.Unlock()
	tx := txFrom(ctx)
	var first Row
	for _, existing := range c.tables[table] {
		if !matches(existing, key) {
			continue
		}
		if tx != nil {
			before := existing.clone()
			tx.record(func(tables map[Table][]Row) {
				restoreRow(tables[table], before)
			})
		}
		for col, v := range patch {
			existing[col] = v
		}
		if first == nil {
			first = existing.clone()
		}
	}
	if first == nil {
		return nil, fmt.Errorf("update %s: %w", table, sentinel.ErrNotFound)
	}
	return first, nil
}

func (c *InMemoryClient) Delete(ctx context.Context, table Table, key Filter) error {
	if err := checkColumns(table, key); err != nil {
		return err
	}
	key = normalizeMap(key)

	c.mu.Lock()
	defer c.mu.Unlock()
	rows := c.tables[table]
	for _, r := range rows {
		if matches(r, key) && c.referencedLocked(table, r["id"]) {
			return fmt.Errorf("delete %s: %w", table, sentinel.ErrReferenced)
		}
	}
	var removed []Row
	c.tables[table] = slices.DeleteFunc(rows, func(r Row) bool {
		if matches(r, key) {
			removed = append(removed, r)
			return true
		}
		return false
	})
	if len(removed) > 0 {
		txFrom(ctx).record(func(tables map[Table][]Row) {
			tables[table] = append(tables[table], removed...)
		})
	}
	return nil
}

// restoreRow puts before back in place of the row with the same id.
func restoreRow(rows []Row, before Row) {
	for i, r := range rows {
		if equal(r["id"], before["id"]) {
			rows[i] = before
			return
		}
	}
}

func (c *InMemoryClient) referencedLocked(table Table, id any) bool {
	for _, ref := range references[table] {
		for _, r := range c.tables[ref.table] {
			if equal(r[ref.column], id) {
				return true
			}
		}
	}
	return false
}

func (c *InMemoryClient) SelectOne(ctx context.Context, table Table, filter Filter) (Row, error) {
	rows, err := c.SelectMany(ctx, table, filter)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return rows[0], nil
}

func (c *InMemoryClient) SelectMany(_ context.Context, table Table, filter Filter, order ...Order) ([]Row, error) {
	if err := checkColumns(table, filter); err != nil {
		return nil, err
	}
	for _, o := range order {
		if err := checkColumns(table, map[string]any{o.Column: nil}); err != nil {
			return nil, err
		}
	}
	filter = normalizeMap(filter)

	c.mu.RLock()
	var out []Row
	for _, r := range c.tables[table] {
		if matches(r, filter) {
			out = append(out, r.clone())
		}
	}
	c.mu.RUnlock()

	if len(order) > 0 {
		slices.SortStableFunc(out, func(a, b Row) int {
			for _, o := range order {
				n := compare(a[o.Column], b[o.Column])
				if o.Desc {
					n = -n
				}
				if n != 0 {
					return n
				}
			}
			return 0
		})
	}
	return out, nil
}

func matches(r Row, filter map[string]any) bool {
	for col, want := range filter {
		got := r[col]
		if set, ok := want.([]string); ok {
			s, isString := got.(string)
			if !isString || !slices.Contains(set, s) {
				return false
			}
			continue
		}
		if !equal(got, want) {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	if ba, ok := a.([]byte); ok {
		bb, ok := b.([]byte)
		return ok && bytes.Equal(ba, bb)
	}
	return reflect.DeepEqual(a, b)
}

// compare orders NULLs last in ascending order, as Postgres does.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	switch va := a.(type) {
	case time.Time:
		if vb, ok := b.(time.Time); ok {
			return va.Compare(vb)
		}
	case int64:
		if vb, ok := b.(int64); ok {
			return cmp.Compare(va, vb)
		}
	case float64:
		if vb, ok := b.(float64); ok {
			return cmp.Compare(va, vb)
		}
	case bool:
		if vb, ok := b.(bool); ok && va != vb {
			if va {
				return 1
			}
			return -1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
