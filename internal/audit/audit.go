// Package audit records and queries the audit trail for every mutating
// engine operation.
//
// Known consistency gap, kept deliberately: the audit write happens as a
// side call after the primary mutation rather than inside the same
// commit boundary. A failed audit write loses the trail for a change
// that did commit. Closing the gap needs a shared transaction or an
// outbox; callers log the failure and carry on.
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tagwarden/tagwarden/internal/core/auth"
	"github.com/tagwarden/tagwarden/internal/core/db"
	"github.com/tagwarden/tagwarden/internal/types"
	"github.com/tagwarden/tagwarden/internal/warehouse"
)

// maxLogRows caps audit reads; the UI never pages beyond this.
const maxLogRows = 1000

// Recorder receives a structured record for every mutating operation.
type Recorder interface {
	Record(ctx context.Context, entry types.AuditEntry) error
}

// Store persists audit entries through the warehouse capability.
type Store struct {
	querier warehouse.Querier
	stmts   *db.Statements
	now     func() time.Time
}

// NewStore creates an audit store.
func NewStore(querier warehouse.Querier, stmts *db.Statements) *Store {
	return &Store{querier: querier, stmts: stmts, now: time.Now}
}

// Record writes one audit entry. Timestamp and user default to the
// current time and the context principal when unset.
func (s *Store) Record(ctx context.Context, entry types.AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}
	if entry.User == "" {
		entry.User = auth.PrincipalFromContext(ctx)
	}

	stmt, err := s.stmts.Raw("insert-audit-entry")
	if err != nil {
		return err
	}

	_, err = s.querier.Update(ctx, stmt,
		entry.Timestamp.Format(time.RFC3339),
		entry.User,
		entry.ActionType,
		entry.ObjectType,
		entry.ObjectName,
		nullable(entry.OldValue),
		nullable(entry.NewValue),
		nullable(entry.Notes),
	)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// Filters narrows audit log reads. Zero values mean "no constraint".
type Filters struct {
	Start       *time.Time
	End         *time.Time
	User        string
	ActionTypes []string
	ObjectType  string
}

// Log returns audit entries matching the filters, newest first, capped
// at maxLogRows.
func (s *Store) Log(ctx context.Context, f Filters) ([]types.AuditEntry, error) {
	query := `SELECT timestamp, user_name, action_type, object_type, object_name,
		old_value, new_value, notes
		FROM audit_log WHERE 1 = 1`
	var args []any

	if f.Start != nil {
		query += " AND timestamp >= ?"
		args = append(args, f.Start.UTC().Format(time.RFC3339))
	}
	if f.End != nil {
		query += " AND timestamp <= ?"
		args = append(args, f.End.UTC().Format(time.RFC3339))
	}
	if f.User != "" {
		query += " AND user_name = ?"
		args = append(args, f.User)
	}
	if len(f.ActionTypes) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(f.ActionTypes)), ", ")
		query += fmt.Sprintf(" AND action_type IN (%s)", placeholders)
		for _, a := range f.ActionTypes {
			args = append(args, a)
		}
	}
	if f.ObjectType != "" {
		query += " AND object_type = ?"
		args = append(args, f.ObjectType)
	}
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT %d", maxLogRows)

	rows, err := s.querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}

	entries := make([]types.AuditEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, types.AuditEntry{
			Timestamp:  row.Time("timestamp"),
			User:       row.String("user_name"),
			ActionType: row.String("action_type"),
			ObjectType: row.String("object_type"),
			ObjectName: row.String("object_name"),
			OldValue:   row.String("old_value"),
			NewValue:   row.String("new_value"),
			Notes:      row.String("notes"),
		})
	}
	return entries, nil
}

// nullable maps "" to SQL NULL so optional columns stay distinguishable
// from empty strings.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
