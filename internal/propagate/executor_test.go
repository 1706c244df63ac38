package propagate

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tagwarden/tagwarden/internal/types"
	"github.com/tagwarden/tagwarden/internal/warehouse"
)

type fakeQuerier struct {
	updates  []string
	failOn   string
	queryErr error
}

func (f *fakeQuerier) Query(_ context.Context, statement string, _ ...any) ([]warehouse.Row, error) {
	return nil, f.queryErr
}

func (f *fakeQuerier) Update(_ context.Context, statement string, _ ...any) (int64, error) {
	f.updates = append(f.updates, statement)
	if f.failOn != "" && statement == f.failOn {
		return 0, errors.New("permission denied")
	}
	return 1, nil
}

type fakeRecorder struct {
	entries []types.AuditEntry
}

func (f *fakeRecorder) Record(_ context.Context, entry types.AuditEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func samplePlan() []types.PropagationAction {
	return []types.PropagationAction{
		{Table: contracts, Column: "customer_id", TagName: "cust_id_col", TagValue: "true",
			Statement: "ALTER TABLE `main`.`sales`.`contracts` ALTER COLUMN `customer_id` SET TAGS ('cust_id_col' = 'true')"},
		{Table: invoices, Column: "customer_id", TagName: "cust_id_col", TagValue: "true",
			Statement: "ALTER TABLE `main`.`sales`.`invoices` ALTER COLUMN `customer_id` SET TAGS ('cust_id_col' = 'true')"},
	}
}

func TestApply_ExecutesInPlanOrder(t *testing.T) {
	querier := &fakeQuerier{}
	recorder := &fakeRecorder{}
	executor := NewExecutor(querier, recorder, zerolog.Nop())

	plan := samplePlan()
	result := executor.Apply(context.Background(), plan)

	if result.Planned != 2 || result.Failed != 0 || result.FirstErr != nil {
		t.Fatalf("result = %+v, want 2 planned, none failed", result)
	}
	want := []string{plan[0].Statement, plan[1].Statement}
	if !slices.Equal(querier.updates, want) {
		t.Errorf("updates = %v, want plan order %v", querier.updates, want)
	}
	if !slices.Equal(result.Executed, want) {
		t.Errorf("Executed = %v, want %v", result.Executed, want)
	}

	if len(recorder.entries) != 2 {
		t.Fatalf("audit entries = %d, want one per action", len(recorder.entries))
	}
	if recorder.entries[0].ObjectName != "main.sales.contracts.customer_id" {
		t.Errorf("audit ObjectName = %q, want full column path", recorder.entries[0].ObjectName)
	}
}

func TestApply_ContinuesPastFailure(t *testing.T) {
	plan := samplePlan()
	querier := &fakeQuerier{failOn: plan[0].Statement}
	recorder := &fakeRecorder{}
	executor := NewExecutor(querier, recorder, zerolog.Nop())

	result := executor.Apply(context.Background(), plan)

	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
	if result.FirstErr == nil {
		t.Error("FirstErr = nil, want the failed action's error")
	}
	if len(result.Executed) != 1 || result.Executed[0] != plan[1].Statement {
		t.Errorf("Executed = %v, want the surviving second action", result.Executed)
	}
	// Only the successful action gets an audit record.
	if len(recorder.entries) != 1 {
		t.Errorf("audit entries = %d, want 1", len(recorder.entries))
	}
}

func TestApply_EmptyPlanIsNoOp(t *testing.T) {
	querier := &fakeQuerier{}
	executor := NewExecutor(querier, &fakeRecorder{}, zerolog.Nop())

	result := executor.Apply(context.Background(), nil)

	if result.Planned != 0 || len(querier.updates) != 0 {
		t.Errorf("empty plan touched the warehouse: %+v, updates %v", result, querier.updates)
	}
}

// A dry run is the plan itself: nothing in the planner path may call
// Update. The planner has no Querier at all, so the property holds by
// construction; this test pins it against refactors.
func TestBuildPlan_NeverMutates(t *testing.T) {
	querier := &fakeQuerier{}
	discovery := &fakeDiscovery{
		tableBindings: []types.TagBinding{
			{Scope: types.ScopeTable, Catalog: "main", Schema: "sales", Table: "contracts",
				TagName: "data_categories", TagValue: "customer"},
		},
		columns: map[string][]string{contracts.FQN(): {"customer_id"}},
	}

	if _, err := NewPlanner(discovery).BuildPlan(context.Background(), baseRequest()); err != nil {
		t.Fatalf("BuildPlan() error = %v, want nil", err)
	}
	if len(querier.updates) != 0 {
		t.Errorf("planning issued updates: %v", querier.updates)
	}
}
