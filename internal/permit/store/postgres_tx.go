package store

import (
	"context"
	"database/sql"
	"time"

	dErrors "permitflow/pkg/domain-errors"
)

const defaultTxTimeout = 5 * time.Second

type pgTxKey struct{}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (c *PostgresClient) conn(ctx context.Context) execer {
	if tx, ok := ctx.Value(pgTxKey{}).(*sql.Tx); ok {
		return tx
	}
	return c.db
}

func (c *PostgresClient) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.conn(ctx).ExecContext(ctx, query, args...)
}

func (c *PostgresClient) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.conn(ctx).QueryContext(ctx, query, args...)
}

// RunInTx implements Transactor. Nested calls join the outer transaction.
func (c *PostgresClient) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(pgTxKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTxTimeout)
		defer cancel()
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(context.WithValue(ctx, pgTxKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit()
}
