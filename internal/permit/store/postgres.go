package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/lib/pq"

	"permitflow/pkg/platform/sentinel"
)

// jsonColumns are returned as raw bytes; every other byte value is text.
var jsonColumns = map[string]bool{"details": true}

// PostgresClient implements Client and Transactor on database/sql. When the
// context carries a transaction started by RunInTx, statements run inside it.
type PostgresClient struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed client.
func NewPostgres(db *sql.DB) *PostgresClient {
	return &PostgresClient{db: db}
}

func (c *PostgresClient) Insert(ctx context.Context, table Table, row Row) (Row, error) {
	if err := checkColumns(table, row); err != nil {
		return nil, err
	}
	cols := sortedKeys(row)
	args := make([]any, len(cols))
	placeholders := make([]string, len(cols))
	for i, col := range cols {
		args[i] = arg(row[col])
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(columns[table], ", "))

	rows, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, translate(err))
	}
	out, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, translate(err))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("insert %s: no row returned", table)
	}
	return out[0], nil
}

func (c *PostgresClient) Update(ctx context.Context, table Table, key Filter, patch Row) (Row, error) {
	if err := checkColumns(table, key, patch); err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return c.SelectOne(ctx, table, key)
	}
	cols := sortedKeys(patch)
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(key))
	for i, col := range cols {
		args = append(args, arg(patch[col]))
		sets[i] = fmt.Sprintf("%s = $%d", col, len(args))
	}
	where, args := whereClause(key, args)
	query := fmt.Sprintf("UPDATE %s SET %s%s RETURNING %s",
		table, strings.Join(sets, ", "), where, strings.Join(columns[table], ", "))

	rows, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", table, translate(err))
	}
	out, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", table, translate(err))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("update %s: %w", table, sentinel.ErrNotFound)
	}
	return out[0], nil
}

func (c *PostgresClient) Delete(ctx context.Context, table Table, key Filter) error {
	if err := checkColumns(table, key); err != nil {
		return err
	}
	where, args := whereClause(key, nil)
	if _, err := c.exec(ctx, fmt.Sprintf("DELETE FROM %s%s", table, where), args...); err != nil {
		return fmt.Errorf("delete %s: %w", table, translate(err))
	}
	return nil
}

func (c *PostgresClient) SelectOne(ctx context.Context, table Table, filter Filter) (Row, error) {
	rows, err := c.selectRows(ctx, table, filter, nil, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return rows[0], nil
}

func (c *PostgresClient) SelectMany(ctx context.Context, table Table, filter Filter, order ...Order) ([]Row, error) {
	return c.selectRows(ctx, table, filter, order, 0)
}

func (c *PostgresClient) selectRows(ctx context.Context, table Table, filter Filter, order []Order, limit int) ([]Row, error) {
	if err := checkColumns(table, filter); err != nil {
		return nil, err
	}
	where, args := whereClause(filter, nil)
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s%s", strings.Join(columns[table], ", "), table, where)
	if len(order) > 0 {
		terms := make([]string, len(order))
		for i, o := range order {
			if !slices.Contains(columns[table], o.Column) {
				return nil, fmt.Errorf("unknown column %q on %s", o.Column, table)
			}
			terms[i] = o.Column
			if o.Desc {
				terms[i] += " DESC"
			}
		}
		fmt.Fprintf(&b, " ORDER BY %s", strings.Join(terms, ", "))
	}
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}

	rows, err := c.query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, translate(err))
	}
	out, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return out, nil
}

func whereClause(filter Filter, args []any) (string, []any) {
	if len(filter) == 0 {
		return "", args
	}
	cols := sortedKeys(filter)
	terms := make([]string, len(cols))
	for i, col := range cols {
		v := normalize(filter[col])
		if v == nil {
			terms[i] = col + " IS NULL"
			continue
		}
		args = append(args, arg(v))
		if _, ok := v.([]string); ok {
			terms[i] = fmt.Sprintf("%s = ANY($%d)", col, len(args))
			continue
		}
		terms[i] = fmt.Sprintf("%s = $%d", col, len(args))
	}
	return " WHERE " + strings.Join(terms, " AND "), args
}

func arg(v any) any {
	v = normalize(v)
	switch t := v.(type) {
	case []string:
		return pq.Array(t)
	case []byte:
		// lib/pq would send bytes as bytea; the schema only stores JSON text.
		return string(t)
	}
	return v
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		r := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok && !jsonColumns[col] {
				r[col] = string(b)
				continue
			}
			r[col] = values[i]
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// translate maps constraint violations onto store sentinels.
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", sentinel.ErrConflict, pqErr.Message)
		case "23503":
			return fmt.Errorf("%w: %s", sentinel.ErrReferenced, pqErr.Message)
		}
	}
	return err
}

func sortedKeys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
