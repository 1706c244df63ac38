package tags

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tagwarden/tagwarden/internal/audit"
	"github.com/tagwarden/tagwarden/internal/types"
	"github.com/tagwarden/tagwarden/internal/warehouse"
)

// Manager applies and removes table and column tags, writing one audit
// record per successful mutation.
type Manager struct {
	querier  warehouse.Querier
	recorder audit.Recorder
	log      zerolog.Logger
}

// NewManager creates a tag manager.
func NewManager(querier warehouse.Querier, recorder audit.Recorder, log zerolog.Logger) *Manager {
	return &Manager{querier: querier, recorder: recorder, log: log}
}

// ApplyTableTag attaches a tag to a table.
func (m *Manager) ApplyTableTag(ctx context.Context, table types.TableRef, tagName, tagValue string) error {
	if err := ValidTagName(tagName); err != nil {
		return err
	}
	if _, err := m.querier.Update(ctx, SetTableTagSQL(table, tagName, tagValue)); err != nil {
		return fmt.Errorf("apply table tag %s on %s: %w", tagName, table.FQN(), err)
	}
	m.record(ctx, types.AuditEntry{
		ActionType: types.AuditTagApply,
		ObjectType: types.ObjectTableTag,
		ObjectName: table.FQN(),
		NewValue:   tagName + "=" + tagValue,
	})
	return nil
}

// RemoveTableTag detaches a tag from a table.
func (m *Manager) RemoveTableTag(ctx context.Context, table types.TableRef, tagName string) error {
	if err := ValidTagName(tagName); err != nil {
		return err
	}
	if _, err := m.querier.Update(ctx, UnsetTableTagSQL(table, tagName)); err != nil {
		return fmt.Errorf("remove table tag %s from %s: %w", tagName, table.FQN(), err)
	}
	m.record(ctx, types.AuditEntry{
		ActionType: types.AuditTagRemove,
		ObjectType: types.ObjectTableTag,
		ObjectName: table.FQN(),
		OldValue:   tagName,
	})
	return nil
}

// ApplyColumnTag attaches a tag to a single column.
func (m *Manager) ApplyColumnTag(ctx context.Context, table types.TableRef, column, tagName, tagValue string) error {
	if err := ValidTagName(tagName); err != nil {
		return err
	}
	if _, err := m.querier.Update(ctx, SetColumnTagSQL(table, column, tagName, tagValue)); err != nil {
		return fmt.Errorf("apply column tag %s on %s.%s: %w", tagName, table.FQN(), column, err)
	}
	m.record(ctx, types.AuditEntry{
		ActionType: types.AuditTagApply,
		ObjectType: types.ObjectColumnTag,
		ObjectName: table.FQN() + "." + column,
		NewValue:   tagName + "=" + tagValue,
	})
	return nil
}

// RemoveColumnTag detaches a tag from a single column.
func (m *Manager) RemoveColumnTag(ctx context.Context, table types.TableRef, column, tagName string) error {
	if err := ValidTagName(tagName); err != nil {
		return err
	}
	if _, err := m.querier.Update(ctx, UnsetColumnTagSQL(table, column, tagName)); err != nil {
		return fmt.Errorf("remove column tag %s from %s.%s: %w", tagName, table.FQN(), column, err)
	}
	m.record(ctx, types.AuditEntry{
		ActionType: types.AuditTagRemove,
		ObjectType: types.ObjectColumnTag,
		ObjectName: table.FQN() + "." + column,
		OldValue:   tagName,
	})
	return nil
}

func (m *Manager) record(ctx context.Context, entry types.AuditEntry) {
	if err := m.recorder.Record(ctx, entry); err != nil {
		m.log.Warn().Err(err).
			Str("action", entry.ActionType).
			Str("object", entry.ObjectName).
			Msg("audit write failed; primary mutation already committed")
	}
}
