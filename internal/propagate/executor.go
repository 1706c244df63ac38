package propagate

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tagwarden/tagwarden/internal/audit"
	"github.com/tagwarden/tagwarden/internal/types"
	"github.com/tagwarden/tagwarden/internal/warehouse"
)

// Result summarizes one apply run.
type Result struct {
	Planned  int
	Executed []string
	Failed   int
	FirstErr error
}

// Executor applies planned actions sequentially, best effort. A failed
// action is logged and counted; the remaining actions still run. Column
// tag writes are idempotent upserts, so re-running a partially failed
// plan converges.
type Executor struct {
	querier  warehouse.Querier
	recorder audit.Recorder
	log      zerolog.Logger
}

// NewExecutor creates an executor.
func NewExecutor(querier warehouse.Querier, recorder audit.Recorder, log zerolog.Logger) *Executor {
	return &Executor{querier: querier, recorder: recorder, log: log}
}

// Apply executes every action in plan order and writes one audit entry
// per successful action.
func (e *Executor) Apply(ctx context.Context, actions []types.PropagationAction) Result {
	result := Result{Planned: len(actions)}

	for _, action := range actions {
		if _, err := e.querier.Update(ctx, action.Statement); err != nil {
			result.Failed++
			if result.FirstErr == nil {
				result.FirstErr = fmt.Errorf("apply tag to %s.%s: %w", action.Table.FQN(), action.Column, err)
			}
			e.log.Error().Err(err).
				Str("table", action.Table.FQN()).
				Str("column", action.Column).
				Msg("propagation action failed, continuing")
			continue
		}

		result.Executed = append(result.Executed, action.Statement)
		if err := e.recorder.Record(ctx, types.AuditEntry{
			ActionType: types.AuditTagApply,
			ObjectType: types.ObjectColumnTag,
			ObjectName: action.Table.FQN() + "." + action.Column,
			NewValue:   action.TagName + "=" + action.TagValue,
			Notes:      "propagated from tag hierarchy",
		}); err != nil {
			e.log.Warn().Err(err).
				Str("table", action.Table.FQN()).
				Msg("audit write failed; primary mutation already committed")
		}
	}
	return result
}
