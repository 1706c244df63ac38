package tags

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tagwarden/tagwarden/internal/types"
	"github.com/tagwarden/tagwarden/internal/warehouse"
)

type fakeQuerier struct {
	rows      []warehouse.Row
	queryErr  error
	updateErr error
	queries   []string
	updates   []string
}

func (f *fakeQuerier) Query(_ context.Context, statement string, _ ...any) ([]warehouse.Row, error) {
	f.queries = append(f.queries, statement)
	return f.rows, f.queryErr
}

func (f *fakeQuerier) Update(_ context.Context, statement string, _ ...any) (int64, error) {
	f.updates = append(f.updates, statement)
	if f.updateErr != nil {
		return 0, f.updateErr
	}
	return 1, nil
}

type fakeRecorder struct {
	entries []types.AuditEntry
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, entry types.AuditEntry) error {
	f.entries = append(f.entries, entry)
	return f.err
}

var testTable = types.TableRef{Catalog: "main", Schema: "sales", Table: "contracts"}

func newTestManager() (*Manager, *fakeQuerier, *fakeRecorder) {
	querier := &fakeQuerier{}
	recorder := &fakeRecorder{}
	return NewManager(querier, recorder, zerolog.Nop()), querier, recorder
}

func TestApplyColumnTag(t *testing.T) {
	mgr, querier, recorder := newTestManager()

	err := mgr.ApplyColumnTag(context.Background(), testTable, "customer_id", "cust_id_col", "true")
	if err != nil {
		t.Fatalf("ApplyColumnTag() error = %v, want nil", err)
	}

	if len(querier.updates) != 1 {
		t.Fatalf("update count = %d, want 1", len(querier.updates))
	}
	want := "ALTER TABLE `main`.`sales`.`contracts` ALTER COLUMN `customer_id` SET TAGS ('cust_id_col' = 'true')"
	if querier.updates[0] != want {
		t.Errorf("statement = %q, want %q", querier.updates[0], want)
	}

	if len(recorder.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(recorder.entries))
	}
	entry := recorder.entries[0]
	if entry.ActionType != types.AuditTagApply || entry.ObjectType != types.ObjectColumnTag {
		t.Errorf("audit entry = %+v, want TAG_APPLY on COLUMN_TAG", entry)
	}
	if entry.ObjectName != "main.sales.contracts.customer_id" {
		t.Errorf("ObjectName = %q, want full column path", entry.ObjectName)
	}
	if entry.NewValue != "cust_id_col=true" {
		t.Errorf("NewValue = %q, want %q", entry.NewValue, "cust_id_col=true")
	}
}

func TestApplyTableTag_RejectsUnsafeName(t *testing.T) {
	mgr, querier, recorder := newTestManager()

	err := mgr.ApplyTableTag(context.Background(), testTable, "x'); DROP TABLE t", "v")
	if !errors.Is(err, types.ErrUnsafeTagName) {
		t.Fatalf("ApplyTableTag() error = %v, want ErrUnsafeTagName", err)
	}
	if len(querier.updates) != 0 {
		t.Errorf("unsafe tag name reached the warehouse: %v", querier.updates)
	}
	if len(recorder.entries) != 0 {
		t.Errorf("unsafe tag name produced an audit entry")
	}
}

func TestRemoveTableTag(t *testing.T) {
	mgr, querier, recorder := newTestManager()

	if err := mgr.RemoveTableTag(context.Background(), testTable, "secure_contracts"); err != nil {
		t.Fatalf("RemoveTableTag() error = %v, want nil", err)
	}

	want := "ALTER TABLE `main`.`sales`.`contracts` UNSET TAGS ('secure_contracts')"
	if len(querier.updates) != 1 || querier.updates[0] != want {
		t.Errorf("updates = %v, want [%q]", querier.updates, want)
	}

	entry := recorder.entries[0]
	if entry.ActionType != types.AuditTagRemove || entry.OldValue != "secure_contracts" {
		t.Errorf("audit entry = %+v, want TAG_REMOVE with old value", entry)
	}
}

func TestRemoveColumnTag_UpstreamFaultNoAudit(t *testing.T) {
	mgr, querier, recorder := newTestManager()
	querier.updateErr = errors.New("warehouse unavailable")

	err := mgr.RemoveColumnTag(context.Background(), testTable, "customer_id", "cust_id_col")
	if err == nil || !strings.Contains(err.Error(), "warehouse unavailable") {
		t.Fatalf("RemoveColumnTag() error = %v, want wrapped upstream fault", err)
	}
	if len(recorder.entries) != 0 {
		t.Errorf("failed mutation produced an audit entry")
	}
}

func TestApplyTableTag_AuditFailureDoesNotFailMutation(t *testing.T) {
	mgr, _, recorder := newTestManager()
	recorder.err = errors.New("audit table gone")

	if err := mgr.ApplyTableTag(context.Background(), testTable, "secure_contracts", "true"); err != nil {
		t.Fatalf("ApplyTableTag() error = %v, want nil despite audit failure", err)
	}
}
