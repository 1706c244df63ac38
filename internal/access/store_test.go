package access

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tagwarden/tagwarden/internal/core/db"
	"github.com/tagwarden/tagwarden/internal/types"
	"github.com/tagwarden/tagwarden/internal/warehouse"
)

type call struct {
	statement string
	args      []any
}

type fakeQuerier struct {
	rows      []warehouse.Row
	queryErr  error
	affected  int64
	updateErr error
	queries   []call
	updates   []call
}

func (f *fakeQuerier) Query(_ context.Context, statement string, args ...any) ([]warehouse.Row, error) {
	f.queries = append(f.queries, call{statement: statement, args: args})
	return f.rows, f.queryErr
}

func (f *fakeQuerier) Update(_ context.Context, statement string, args ...any) (int64, error) {
	f.updates = append(f.updates, call{statement: statement, args: args})
	return f.affected, f.updateErr
}

type fakeRecorder struct {
	entries []types.AuditEntry
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, entry types.AuditEntry) error {
	f.entries = append(f.entries, entry)
	return f.err
}

func newTestStore(t *testing.T, q *fakeQuerier, rec *fakeRecorder) *Store {
	t.Helper()
	stmts, err := db.LoadStatements()
	if err != nil {
		t.Fatalf("LoadStatements() error = %v", err)
	}
	store := NewStore(q, stmts, rec, zerolog.Nop())
	store.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	return store
}

func validInput() RuleInput {
	return RuleInput{
		GroupName:     "analysts",
		CustomerIDs:   []int64{2, 1, 2},
		AccessType:    types.AccessInclude,
		EffectiveDate: date("2024-01-01"),
		Notes:         "initial grant",
	}
}

func TestStoreAdd(t *testing.T) {
	q := &fakeQuerier{affected: 1}
	rec := &fakeRecorder{}
	store := newTestStore(t, q, rec)

	id, err := store.Add(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Add() error = %v, want nil", err)
	}
	if _, err := types.ParseRuleID(string(id)); err != nil {
		t.Errorf("Add() returned unparseable id %q: %v", id, err)
	}

	if len(q.updates) != 1 {
		t.Fatalf("Add() issued %d updates, want 1", len(q.updates))
	}
	ins := q.updates[0]
	if !strings.Contains(ins.statement, "INSERT INTO access_rules") {
		t.Errorf("unexpected statement %q", ins.statement)
	}
	if ins.args[1] != "analysts" {
		t.Errorf("group arg = %v, want analysts", ins.args[1])
	}
	if ins.args[2] != "[1,2]" {
		t.Errorf("customer_ids arg = %v, want normalized [1,2]", ins.args[2])
	}
	if ins.args[5] != nil {
		t.Errorf("expiration arg = %v, want NULL for open-ended rule", ins.args[5])
	}

	if len(rec.entries) != 1 {
		t.Fatalf("Add() recorded %d audit entries, want 1", len(rec.entries))
	}
	entry := rec.entries[0]
	if entry.ActionType != types.AuditInsert || entry.ObjectType != types.ObjectGroupAccess {
		t.Errorf("audit entry = %s/%s, want INSERT/GROUP_ACCESS", entry.ActionType, entry.ObjectType)
	}
	if entry.NewValue != "customer_ids=[1,2], access_type=INCLUDE" {
		t.Errorf("audit NewValue = %q", entry.NewValue)
	}
}

func TestStoreAdd_ValidationRejectsBeforeAnyCall(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RuleInput)
		wantErr error
	}{
		{
			name:    "empty group",
			mutate:  func(in *RuleInput) { in.GroupName = "  " },
			wantErr: types.ErrEmptyGroupName,
		},
		{
			name:    "bad access type",
			mutate:  func(in *RuleInput) { in.AccessType = "GRANT" },
			wantErr: types.ErrInvalidAccessType,
		},
		{
			name:    "expiration not after effective",
			mutate:  func(in *RuleInput) { in.ExpirationDate = datePtr("2024-01-01") },
			wantErr: types.ErrExpirationBeforeEffective,
		},
		{
			name:    "negative customer id",
			mutate:  func(in *RuleInput) { in.CustomerIDs = []int64{-1} },
			wantErr: types.ErrNegativeCustomerID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQuerier{affected: 1}
			rec := &fakeRecorder{}
			store := newTestStore(t, q, rec)

			in := validInput()
			tt.mutate(&in)

			if _, err := store.Add(context.Background(), in); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Add() error = %v, want %v", err, tt.wantErr)
			}
			if len(q.updates) != 0 {
				t.Errorf("Add() issued %d updates, want 0 before validation", len(q.updates))
			}
			if len(rec.entries) != 0 {
				t.Errorf("Add() recorded %d audit entries, want 0", len(rec.entries))
			}
		})
	}
}

func TestStoreAdd_UpstreamFaultSurfaces(t *testing.T) {
	q := &fakeQuerier{updateErr: errors.New("warehouse unavailable")}
	rec := &fakeRecorder{}
	store := newTestStore(t, q, rec)

	if _, err := store.Add(context.Background(), validInput()); err == nil {
		t.Fatal("Add() error = nil, want upstream fault")
	}
	if len(rec.entries) != 0 {
		t.Errorf("failed Add() recorded %d audit entries, want 0", len(rec.entries))
	}
}

func TestStoreAdd_AuditFailureDoesNotFailMutation(t *testing.T) {
	q := &fakeQuerier{affected: 1}
	rec := &fakeRecorder{err: errors.New("audit sink down")}
	store := newTestStore(t, q, rec)

	if _, err := store.Add(context.Background(), validInput()); err != nil {
		t.Fatalf("Add() error = %v, want nil despite audit failure", err)
	}
}

func TestStoreUpdate(t *testing.T) {
	q := &fakeQuerier{affected: 1}
	rec := &fakeRecorder{}
	store := newTestStore(t, q, rec)

	if err := store.Update(context.Background(), "rule-1", validInput()); err != nil {
		t.Fatalf("Update() error = %v, want nil", err)
	}
	if len(rec.entries) != 1 || rec.entries[0].ActionType != types.AuditUpdate {
		t.Fatalf("Update() audit entries = %+v, want one UPDATE", rec.entries)
	}
	if rec.entries[0].ObjectName != "rule-1" {
		t.Errorf("audit ObjectName = %q, want rule-1", rec.entries[0].ObjectName)
	}
}

func TestStoreUpdate_NotFound(t *testing.T) {
	q := &fakeQuerier{affected: 0}
	rec := &fakeRecorder{}
	store := newTestStore(t, q, rec)

	if err := store.Update(context.Background(), "missing", validInput()); !errors.Is(err, types.ErrRuleNotFound) {
		t.Fatalf("Update() error = %v, want ErrRuleNotFound", err)
	}
	if len(rec.entries) != 0 {
		t.Errorf("failed Update() recorded audit entries: %+v", rec.entries)
	}
}

func TestStoreExpire(t *testing.T) {
	q := &fakeQuerier{affected: 1}
	rec := &fakeRecorder{}
	store := newTestStore(t, q, rec)

	if err := store.Expire(context.Background(), "rule-1"); err != nil {
		t.Fatalf("Expire() error = %v, want nil", err)
	}
	if q.updates[0].args[0] != "2024-03-15" {
		t.Errorf("expiration arg = %v, want today", q.updates[0].args[0])
	}

	// Re-expiring an already-expired rule is a no-op that still
	// succeeds and still logs EXPIRE.
	if err := store.Expire(context.Background(), "rule-1"); err != nil {
		t.Fatalf("second Expire() error = %v, want nil", err)
	}
	if len(rec.entries) != 2 {
		t.Fatalf("Expire() recorded %d audit entries, want 2", len(rec.entries))
	}
	for _, entry := range rec.entries {
		if entry.ActionType != types.AuditExpire {
			t.Errorf("audit ActionType = %s, want EXPIRE", entry.ActionType)
		}
	}
}

func TestStoreDelete_NotExpired(t *testing.T) {
	q := &fakeQuerier{affected: 0}
	rec := &fakeRecorder{}
	store := newTestStore(t, q, rec)

	if err := store.Delete(context.Background(), "rule-1"); !errors.Is(err, types.ErrRuleNotDeletable) {
		t.Fatalf("Delete() error = %v, want ErrRuleNotDeletable", err)
	}
	if len(rec.entries) != 0 {
		t.Errorf("failed Delete() recorded audit entries: %+v", rec.entries)
	}
}

func TestStoreDelete(t *testing.T) {
	q := &fakeQuerier{affected: 1}
	rec := &fakeRecorder{}
	store := newTestStore(t, q, rec)

	if err := store.Delete(context.Background(), "rule-1"); err != nil {
		t.Fatalf("Delete() error = %v, want nil", err)
	}
	del := q.updates[0]
	if !slices.Equal([]any{del.args[0], del.args[1]}, []any{"rule-1", "2024-03-15"}) {
		t.Errorf("Delete() args = %v, want [rule-1 2024-03-15]", del.args)
	}
	if len(rec.entries) != 1 || rec.entries[0].ActionType != types.AuditDelete {
		t.Fatalf("Delete() audit entries = %+v, want one DELETE", rec.entries)
	}
}

func ruleRow(id, group, ids string) warehouse.Row {
	row := warehouse.Row{
		"id":              id,
		"group_name":      group,
		"customer_ids":    ids,
		"access_type":     "INCLUDE",
		"effective_date":  "2024-01-01",
		"expiration_date": nil,
		"notes":           "",
		"created_by":      "alice@example.com",
		"created_at":      "2024-01-01T09:00:00Z",
		"modified_by":     "alice@example.com",
		"modified_at":     "2024-01-01T09:00:00Z",
	}
	if ids == "" {
		row["customer_ids"] = nil
	}
	return row
}

func TestStoreList(t *testing.T) {
	q := &fakeQuerier{rows: []warehouse.Row{
		ruleRow("r1", "analysts", "[1,2]"),
		ruleRow("r2", "auditors", ""),
	}}
	store := newTestStore(t, q, &fakeRecorder{})

	rules, err := store.List(context.Background(), ListFilters{})
	if err != nil {
		t.Fatalf("List() error = %v, want nil", err)
	}
	if len(rules) != 2 {
		t.Fatalf("List() returned %d rules, want 2", len(rules))
	}
	if !slices.Equal(rules[0].CustomerIDs, []int64{1, 2}) {
		t.Errorf("CustomerIDs = %v, want [1 2]", rules[0].CustomerIDs)
	}
	if !rules[1].Unrestricted() {
		t.Errorf("NULL customer_ids should decode as unrestricted")
	}
}

func TestStoreList_CustomerFilterAppliesInMemory(t *testing.T) {
	q := &fakeQuerier{rows: []warehouse.Row{
		ruleRow("r1", "analysts", "[1,2]"),
		ruleRow("r2", "auditors", ""),
		ruleRow("r3", "support", "[7]"),
	}}
	store := newTestStore(t, q, &fakeRecorder{})

	customerID := int64(2)
	rules, err := store.List(context.Background(), ListFilters{CustomerID: &customerID})
	if err != nil {
		t.Fatalf("List() error = %v, want nil", err)
	}

	// Only rules with an explicit set containing the id match; the
	// unrestricted rule does not.
	if len(rules) != 1 || rules[0].ID != "r1" {
		t.Fatalf("List() = %+v, want only r1", rules)
	}
}

func TestStoreList_StatusFilters(t *testing.T) {
	for status, fragment := range map[string]string{
		StatusActive:  "expiration_date IS NULL OR expiration_date > ?",
		StatusExpired: "expiration_date IS NOT NULL AND expiration_date <= ?",
	} {
		q := &fakeQuerier{}
		store := newTestStore(t, q, &fakeRecorder{})

		if _, err := store.List(context.Background(), ListFilters{Status: status}); err != nil {
			t.Fatalf("List(%s) error = %v", status, err)
		}
		if got := q.queries[0].statement; !strings.Contains(got, fragment) {
			t.Errorf("List(%s) statement %q missing %q", status, got, fragment)
		}
		if q.queries[0].args[0] != "2024-03-15" {
			t.Errorf("List(%s) date arg = %v, want today", status, q.queries[0].args[0])
		}
	}
}

func TestStoreGet_NotFound(t *testing.T) {
	q := &fakeQuerier{}
	store := newTestStore(t, q, &fakeRecorder{})

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, types.ErrRuleNotFound) {
		t.Fatalf("Get() error = %v, want ErrRuleNotFound", err)
	}
}
