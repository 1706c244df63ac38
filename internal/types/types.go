// Package types provides domain models shared across tagwarden components.
//
// Zero-dependency design: types.go and errors.go use only the standard
// library. ID utilities in ids.go import uuid but are isolated so callers
// that never mint ids avoid the dependency.
package types

import (
	"fmt"
	"time"
)

// AccessType distinguishes rules that grant visibility into a customer id
// set from rules that carve ids out of it.
type AccessType string

const (
	AccessInclude AccessType = "INCLUDE"
	AccessExclude AccessType = "EXCLUDE"
)

// ParseAccessType validates and converts a string to AccessType.
// Rejects anything other than the two canonical values so malformed rows
// never enter the evaluator.
func ParseAccessType(s string) (AccessType, error) {
	switch AccessType(s) {
	case AccessInclude, AccessExclude:
		return AccessType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAccessType, s)
	}
}

// AccessRule is a time-bounded INCLUDE/EXCLUDE statement granting or
// restricting a group's visibility into a set of customer ids.
//
// CustomerIDs semantics (empty set is meaningful, not degenerate):
//   - INCLUDE + empty: unrestricted, every customer visible (admin rule)
//   - INCLUDE + non-empty: visible iff id is a member
//   - EXCLUDE + empty: nothing visible
//   - EXCLUDE + non-empty: visible iff id is not a member
type AccessRule struct {
	ID             RuleID
	GroupName      string
	CustomerIDs    []int64 // sorted unique; nil or empty means "no explicit list"
	AccessType     AccessType
	EffectiveDate  time.Time  // date precision, inclusive lower bound
	ExpirationDate *time.Time // nil means open-ended; must be > EffectiveDate
	Notes          string
	CreatedBy      string
	CreatedAt      time.Time
	ModifiedBy     string
	ModifiedAt     time.Time
}

// Unrestricted reports whether the rule carries no explicit customer list.
func (r AccessRule) Unrestricted() bool {
	return len(r.CustomerIDs) == 0
}

// ActiveAt reports whether the rule's effective window covers asOf.
// Effective date is inclusive, expiration date exclusive; a nil expiration
// never closes the window.
func (r AccessRule) ActiveAt(asOf time.Time) bool {
	if r.EffectiveDate.After(asOf) {
		return false
	}
	return r.ExpirationDate == nil || r.ExpirationDate.After(asOf)
}

// TagScope identifies the level of the metadata hierarchy a tag binding
// is attached to. The hierarchy is a strict tree: catalog > schema >
// table > column.
type TagScope string

const (
	ScopeCatalog TagScope = "catalog"
	ScopeSchema  TagScope = "schema"
	ScopeTable   TagScope = "table"
	ScopeColumn  TagScope = "column"
)

// TagBinding is a name/value governance label attached to a metadata
// object. Catalog and schema bindings are read-only from the engine's
// perspective; table and column bindings can be created or removed.
type TagBinding struct {
	Scope    TagScope
	Catalog  string
	Schema   string
	Table    string
	Column   string
	TagName  string
	TagValue string
}

// TableRef identifies a table by its catalog/schema/table path.
type TableRef struct {
	Catalog string
	Schema  string
	Table   string
}

// FQN renders the unquoted catalog.schema.table path. Used as a map key
// and for display; statement construction quotes each part separately.
func (t TableRef) FQN() string {
	return t.Catalog + "." + t.Schema + "." + t.Table
}

// PropagationAction is one planned column-tag mutation. Immutable value:
// the statement is fully rendered at plan time so dry-run output shows
// exactly what apply would execute.
type PropagationAction struct {
	Table     TableRef
	Column    string
	TagName   string
	TagValue  string
	Statement string
}

// Audit action and object classifications. Every mutating operation in
// the engine writes exactly one audit record on success.
const (
	AuditInsert    = "INSERT"
	AuditUpdate    = "UPDATE"
	AuditDelete    = "DELETE"
	AuditExpire    = "EXPIRE"
	AuditTagApply  = "TAG_APPLY"
	AuditTagRemove = "TAG_REMOVE"
)

const (
	ObjectGroupAccess = "GROUP_ACCESS"
	ObjectTableTag    = "TABLE_TAG"
	ObjectColumnTag   = "COLUMN_TAG"
)

// AuditEntry is a single audit log record.
type AuditEntry struct {
	Timestamp  time.Time
	User       string
	ActionType string
	ObjectType string
	ObjectName string
	OldValue   string
	NewValue   string
	Notes      string
}
