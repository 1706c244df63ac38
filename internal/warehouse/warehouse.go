// Package warehouse defines the query/update capability every engine
// component depends on, plus the sqlx-backed client implementing it.
//
// The engine owns no long-lived state: each operation issues blocking
// calls through a Querier and releases everything before returning.
// Components take the Querier interface so tests can substitute fakes
// that record statements without a database.
package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Row is one result row as a column name to value mapping.
type Row map[string]any

// Querier is the external query/update capability. Parameters are passed
// out-of-band wherever the value is non-identifier data; identifiers that
// cannot be parameterized must be quoted by the caller (see quote.go)
// before being placed into the statement string.
type Querier interface {
	// Query executes a read statement and returns the ordered result rows.
	Query(ctx context.Context, statement string, args ...any) ([]Row, error)

	// Update executes a mutation statement and returns the affected row
	// count. Fails rather than guessing when the driver cannot report
	// the count.
	Update(ctx context.Context, statement string, args ...any) (int64, error)
}

// Client implements Querier over a sqlx database handle.
type Client struct {
	db *sqlx.DB
}

// NewClient wraps an open database handle.
func NewClient(db *sqlx.DB) *Client {
	return &Client{db: db}
}

// Query executes a read statement with placeholder conversion for
// database compatibility (? rebound to $1, $2 for PostgreSQL).
func (c *Client) Query(ctx context.Context, statement string, args ...any) ([]Row, error) {
	rows, err := c.db.QueryxContext(ctx, c.db.Rebind(statement), args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		row := make(Row)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return out, nil
}

// Update executes a mutation statement and returns the affected row count.
func (c *Client) Update(ctx context.Context, statement string, args ...any) (int64, error) {
	res, err := c.db.ExecContext(ctx, c.db.Rebind(statement), args...)
	if err != nil {
		return 0, fmt.Errorf("update failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		// Surfacing this beats reporting zero rows: callers treat a zero
		// count as "no such row" and would misclassify a mutation that
		// actually committed.
		return 0, fmt.Errorf("affected row count unavailable: %w", err)
	}
	return affected, nil
}

// String returns the named column as a string, or "" when absent or null.
// Byte slices are converted; other types use their default formatting.
func (r Row) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// Int64 returns the named column as int64, or 0 when absent or
// unconvertible.
func (r Row) Int64(key string) int64 {
	switch n := r[key].(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// Bool returns the named column as a boolean. Integer and string
// representations of truth are accepted since drivers disagree on the
// native type for boolean expressions.
func (r Row) Bool(key string) bool {
	switch b := r[key].(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case int:
		return b != 0
	case string:
		return b == "true" || b == "t" || b == "1"
	case []byte:
		s := string(b)
		return s == "true" || s == "t" || s == "1"
	default:
		return false
	}
}

// Time returns the named column as a time, accepting native time values
// and the ISO date / RFC3339 text forms the store writes. Returns zero
// time when absent or unparseable; callers should check IsZero().
func (r Row) Time(key string) time.Time {
	switch t := r[key].(type) {
	case time.Time:
		return t
	case string:
		return parseTime(t)
	case []byte:
		return parseTime(string(t))
	default:
		return time.Time{}
	}
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
