package access

import (
	"slices"
	"time"

	"github.com/tagwarden/tagwarden/internal/types"
)

/*
 * Pure evaluation over already-fetched rules. No I/O.
 *
 * A rule participates when its effective window covers the as-of date
 * (effective_date <= as_of, expiration_date absent or > as_of). Multiple
 * simultaneously active rules for a group are NOT merged into a single
 * decision: each is reported as an independent access statement. The
 * engine never invents a default; a group with no active rule yields no
 * statements and the caller decides default-deny or default-allow.
 *
 * True row-level filtering happens in the warehouse via the generated
 * predicate (rowfilter.go), not here.
 */

// Statement is one rule's opinion about a (group, customer, date) triple.
type Statement struct {
	RuleID       types.RuleID
	GroupName    string
	AccessType   types.AccessType
	Unrestricted bool
	Visible      bool
}

// ActiveRules filters to the rules whose effective window covers asOf.
func ActiveRules(rules []types.AccessRule, asOf time.Time) []types.AccessRule {
	var active []types.AccessRule
	for _, r := range rules {
		if r.ActiveAt(asOf) {
			active = append(active, r)
		}
	}
	return active
}

// Visible applies the INCLUDE/EXCLUDE semantics of a single rule to one
// customer id. Window checks are the caller's responsibility.
func Visible(rule types.AccessRule, customerID int64) bool {
	member := contains(rule.CustomerIDs, customerID)
	switch rule.AccessType {
	case types.AccessInclude:
		// Empty INCLUDE list means unrestricted: everything visible.
		return rule.Unrestricted() || member
	case types.AccessExclude:
		// Empty EXCLUDE list means nothing visible.
		return !rule.Unrestricted() && !member
	default:
		return false
	}
}

// Evaluate computes one statement per rule active at asOf.
func Evaluate(rules []types.AccessRule, customerID int64, asOf time.Time) []Statement {
	var statements []Statement
	for _, r := range ActiveRules(rules, asOf) {
		statements = append(statements, Statement{
			RuleID:       r.ID,
			GroupName:    r.GroupName,
			AccessType:   r.AccessType,
			Unrestricted: r.Unrestricted(),
			Visible:      Visible(r, customerID),
		})
	}
	return statements
}

// contains does a binary search; customer id sets are stored sorted.
func contains(ids []int64, id int64) bool {
	_, found := slices.BinarySearch(ids, id)
	return found
}
