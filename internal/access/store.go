package access

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tagwarden/tagwarden/internal/audit"
	"github.com/tagwarden/tagwarden/internal/core/auth"
	"github.com/tagwarden/tagwarden/internal/core/db"
	"github.com/tagwarden/tagwarden/internal/types"
	"github.com/tagwarden/tagwarden/internal/warehouse"
)

const dateLayout = "2006-01-02"

// Rule status filters for List.
const (
	StatusActive  = "active"  // expiration absent or in the future
	StatusExpired = "expired" // expiration at or before today
)

// RuleInput carries the caller-supplied fields for Add and Update.
// Updates are full replacements; there is no partial-field patching.
type RuleInput struct {
	GroupName      string
	CustomerIDs    []int64
	AccessType     types.AccessType
	EffectiveDate  time.Time
	ExpirationDate *time.Time
	Notes          string
}

// ListFilters narrows List results. Zero values mean "no constraint".
// CustomerID keeps only rules whose explicit id set contains the id;
// rules without an explicit list never match, mirroring the warehouse
// array_contains semantics on a NULL array.
type ListFilters struct {
	GroupName  string
	Status     string
	CustomerID *int64
}

// Store is the access rule store adapter. Every successful mutation
// writes one audit record; an audit failure is logged and does not roll
// back the mutation (see package audit for the gap discussion).
type Store struct {
	querier  warehouse.Querier
	stmts    *db.Statements
	recorder audit.Recorder
	log      zerolog.Logger
	now      func() time.Time
}

// NewStore creates a rule store over the warehouse capability.
func NewStore(querier warehouse.Querier, stmts *db.Statements, recorder audit.Recorder, log zerolog.Logger) *Store {
	return &Store{
		querier:  querier,
		stmts:    stmts,
		recorder: recorder,
		log:      log,
		now:      time.Now,
	}
}

// List returns rules matching the filters, ordered by group name
// ascending then effective date descending (most recent first within a
// group).
func (s *Store) List(ctx context.Context, f ListFilters) ([]types.AccessRule, error) {
	query := `SELECT id, group_name, customer_ids, access_type, effective_date,
		expiration_date, notes, created_by, created_at, modified_by, modified_at
		FROM access_rules WHERE 1 = 1`
	var args []any

	if f.GroupName != "" {
		query += " AND group_name = ?"
		args = append(args, f.GroupName)
	}
	switch f.Status {
	case StatusActive:
		query += " AND (expiration_date IS NULL OR expiration_date > ?)"
		args = append(args, s.today())
	case StatusExpired:
		query += " AND expiration_date IS NOT NULL AND expiration_date <= ?"
		args = append(args, s.today())
	}
	query += " ORDER BY group_name, effective_date DESC"

	rows, err := s.querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list access rules: %w", err)
	}

	var rules []types.AccessRule
	for _, row := range rows {
		rule, err := rowToRule(row)
		if err != nil {
			return nil, err
		}
		if f.CustomerID != nil && !contains(rule.CustomerIDs, *f.CustomerID) {
			continue
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Get returns a single rule by id.
func (s *Store) Get(ctx context.Context, id types.RuleID) (types.AccessRule, error) {
	stmt, err := s.stmts.Raw("get-access-rule")
	if err != nil {
		return types.AccessRule{}, err
	}
	rows, err := s.querier.Query(ctx, stmt, string(id))
	if err != nil {
		return types.AccessRule{}, fmt.Errorf("get access rule: %w", err)
	}
	if len(rows) == 0 {
		return types.AccessRule{}, fmt.Errorf("%w: %s", types.ErrRuleNotFound, id)
	}
	return rowToRule(rows[0])
}

// Add validates and persists a new rule, returning its assigned id.
func (s *Store) Add(ctx context.Context, in RuleInput) (types.RuleID, error) {
	in, err := validateInput(in)
	if err != nil {
		return "", err
	}

	stmt, err := s.stmts.Raw("insert-access-rule")
	if err != nil {
		return "", err
	}

	id := types.NewRuleID()
	user := auth.PrincipalFromContext(ctx)
	now := s.now().UTC().Format(time.RFC3339)

	_, err = s.querier.Update(ctx, stmt,
		string(id),
		in.GroupName,
		encodeCustomerIDs(in.CustomerIDs),
		string(in.AccessType),
		in.EffectiveDate.Format(dateLayout),
		encodeDate(in.ExpirationDate),
		nullable(in.Notes),
		user, now, user, now,
	)
	if err != nil {
		return "", fmt.Errorf("insert access rule: %w", err)
	}

	s.record(ctx, types.AuditEntry{
		ActionType: types.AuditInsert,
		ObjectType: types.ObjectGroupAccess,
		ObjectName: in.GroupName,
		NewValue:   describeRule(in),
		Notes:      in.Notes,
	})
	return id, nil
}

// Update validates and fully replaces a rule's fields.
func (s *Store) Update(ctx context.Context, id types.RuleID, in RuleInput) error {
	in, err := validateInput(in)
	if err != nil {
		return err
	}

	stmt, err := s.stmts.Raw("update-access-rule")
	if err != nil {
		return err
	}

	user := auth.PrincipalFromContext(ctx)
	now := s.now().UTC().Format(time.RFC3339)

	affected, err := s.querier.Update(ctx, stmt,
		in.GroupName,
		encodeCustomerIDs(in.CustomerIDs),
		string(in.AccessType),
		in.EffectiveDate.Format(dateLayout),
		encodeDate(in.ExpirationDate),
		nullable(in.Notes),
		user, now,
		string(id),
	)
	if err != nil {
		return fmt.Errorf("update access rule: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", types.ErrRuleNotFound, id)
	}

	s.record(ctx, types.AuditEntry{
		ActionType: types.AuditUpdate,
		ObjectType: types.ObjectGroupAccess,
		ObjectName: string(id),
		NewValue:   fmt.Sprintf("group_name=%s, %s", in.GroupName, describeRule(in)),
		Notes:      in.Notes,
	})
	return nil
}

// Expire sets the rule's expiration date to today. Re-expiring an
// already-expired rule succeeds and still logs EXPIRE.
func (s *Store) Expire(ctx context.Context, id types.RuleID) error {
	stmt, err := s.stmts.Raw("expire-access-rule")
	if err != nil {
		return err
	}

	user := auth.PrincipalFromContext(ctx)
	now := s.now().UTC().Format(time.RFC3339)

	affected, err := s.querier.Update(ctx, stmt, s.today(), user, now, string(id))
	if err != nil {
		return fmt.Errorf("expire access rule: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", types.ErrRuleNotFound, id)
	}

	s.record(ctx, types.AuditEntry{
		ActionType: types.AuditExpire,
		ObjectType: types.ObjectGroupAccess,
		ObjectName: string(id),
		NewValue:   "expired",
		Notes:      "manually expired",
	})
	return nil
}

// Delete removes a rule only when its expiration date has passed. The
// condition lives in the statement itself, so a still-active or
// future-dated rule affects zero rows and fails without side effects.
// DELETE is audited only when a row was actually removed.
func (s *Store) Delete(ctx context.Context, id types.RuleID) error {
	stmt, err := s.stmts.Raw("delete-access-rule")
	if err != nil {
		return err
	}

	affected, err := s.querier.Update(ctx, stmt, string(id), s.today())
	if err != nil {
		return fmt.Errorf("delete access rule: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", types.ErrRuleNotDeletable, id)
	}

	s.record(ctx, types.AuditEntry{
		ActionType: types.AuditDelete,
		ObjectType: types.ObjectGroupAccess,
		ObjectName: string(id),
		NewValue:   "deleted",
		Notes:      "deleted after expiration",
	})
	return nil
}

func (s *Store) today() string {
	return s.now().UTC().Format(dateLayout)
}

func (s *Store) record(ctx context.Context, entry types.AuditEntry) {
	if err := s.recorder.Record(ctx, entry); err != nil {
		s.log.Warn().Err(err).
			Str("action", entry.ActionType).
			Str("object", entry.ObjectName).
			Msg("audit write failed; primary mutation already committed")
	}
}

func validateInput(in RuleInput) (RuleInput, error) {
	if err := ValidateGroupName(in.GroupName); err != nil {
		return in, err
	}
	if _, err := types.ParseAccessType(string(in.AccessType)); err != nil {
		return in, err
	}
	if err := ValidateDates(in.EffectiveDate, in.ExpirationDate); err != nil {
		return in, err
	}
	for _, id := range in.CustomerIDs {
		if id < 0 {
			return in, fmt.Errorf("%w: %d", types.ErrNegativeCustomerID, id)
		}
	}
	in.GroupName = strings.TrimSpace(in.GroupName)
	in.CustomerIDs = NormalizeCustomerIDs(in.CustomerIDs)
	return in, nil
}

func describeRule(in RuleInput) string {
	return fmt.Sprintf("customer_ids=[%s], access_type=%s", RenderCustomerIDs(in.CustomerIDs), in.AccessType)
}

// encodeCustomerIDs serializes the id set as JSON text, NULL for the
// empty set so the stored form matches the "no explicit list" sentinel.
func encodeCustomerIDs(ids []int64) any {
	if len(ids) == 0 {
		return nil
	}
	encoded, _ := json.Marshal(ids)
	return string(encoded)
}

func decodeCustomerIDs(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("malformed customer_ids %q: %w", raw, err)
	}
	return NormalizeCustomerIDs(ids), nil
}

func encodeDate(d *time.Time) any {
	if d == nil {
		return nil
	}
	return d.Format(dateLayout)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func rowToRule(row warehouse.Row) (types.AccessRule, error) {
	accessType, err := types.ParseAccessType(row.String("access_type"))
	if err != nil {
		return types.AccessRule{}, err
	}
	ids, err := decodeCustomerIDs(row.String("customer_ids"))
	if err != nil {
		return types.AccessRule{}, err
	}

	rule := types.AccessRule{
		ID:            types.RuleID(row.String("id")),
		GroupName:     row.String("group_name"),
		CustomerIDs:   ids,
		AccessType:    accessType,
		EffectiveDate: row.Time("effective_date"),
		Notes:         row.String("notes"),
		CreatedBy:     row.String("created_by"),
		CreatedAt:     row.Time("created_at"),
		ModifiedBy:    row.String("modified_by"),
		ModifiedAt:    row.Time("modified_at"),
	}
	if row["expiration_date"] != nil {
		exp := row.Time("expiration_date")
		rule.ExpirationDate = &exp
	}
	return rule, nil
}
