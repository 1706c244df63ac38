package access

import (
	"fmt"
	"strings"

	"github.com/tagwarden/tagwarden/internal/types"
	"github.com/tagwarden/tagwarden/internal/warehouse"
)

/*
 * Row-filter artifacts.
 *
 * These renderers produce the warehouse-side predicate function and the
 * tag-matched policy that attaches it. Both are output artifacts: the
 * engine hands the statements to an external policy-attachment
 * mechanism and never executes them against its own store.
 *
 * The predicate is TRUE for a customer id when some rule exists whose
 * group the caller is a member of, whose effective window covers now,
 * and whose id set is either absent (unrestricted) or matches the
 * INCLUDE/EXCLUDE membership semantics. It is the declarative mirror of
 * evaluate.go, shifted to per-row evaluation in the query engine.
 */

// DefaultGroupCheck is the warehouse membership predicate applied to
// each rule's group name.
const DefaultGroupCheck = "is_member"

// FilterFunction describes the customer-access predicate function.
type FilterFunction struct {
	Catalog     string
	Schema      string
	Name        string
	AccessTable string // fully qualified rule table
	GroupCheck  string // membership predicate; DefaultGroupCheck when empty
}

// SQL renders the CREATE OR REPLACE FUNCTION statement.
func (f FilterFunction) SQL() (string, error) {
	groupCheck := f.GroupCheck
	if groupCheck == "" {
		groupCheck = DefaultGroupCheck
	}
	if !warehouse.SafeIdentifier(groupCheck) {
		return "", fmt.Errorf("%w: %q", types.ErrUnsafeIdentifier, groupCheck)
	}

	functionFQN := warehouse.QuoteQualified(f.Catalog, f.Schema, f.Name)
	accessTable := warehouse.QuoteQualified(strings.Split(f.AccessTable, ".")...)

	return fmt.Sprintf(`CREATE OR REPLACE FUNCTION %s(customer_id INT)
RETURN EXISTS (
  SELECT 1
  FROM %s gca
  WHERE %s(gca.group_name)
    AND (gca.effective_date IS NULL OR gca.effective_date <= current_date())
    AND (gca.expiration_date IS NULL OR gca.expiration_date > current_date())
    AND (
      (gca.customer_ids IS NULL) OR
      (gca.access_type = 'INCLUDE' AND array_contains(gca.customer_ids, customer_id)) OR
      (gca.access_type = 'EXCLUDE' AND NOT array_contains(gca.customer_ids, customer_id))
    )
)`, functionFQN, accessTable, groupCheck), nil
}

// FilterPolicy describes the tag-matched row filter policy binding the
// predicate function to every table column carrying the tag.
type FilterPolicy struct {
	Catalog     string
	Schema      string
	Name        string
	Comment     string
	FunctionFQN string
	Principal   string
	TagName     string
	TagValue    string
}

// SQL renders the CREATE OR REPLACE POLICY statement.
func (p FilterPolicy) SQL() string {
	policyFQN := warehouse.QuoteQualified(p.Catalog, p.Schema, p.Name)
	schemaFQN := warehouse.QuoteQualified(p.Catalog, p.Schema)
	functionFQN := warehouse.QuoteQualified(strings.Split(p.FunctionFQN, ".")...)

	return fmt.Sprintf(`CREATE OR REPLACE POLICY %s
ON SCHEMA %s
COMMENT '%s'
ROW FILTER %s
TO `+"`%s`"+`
FOR TABLES
MATCH COLUMNS hasTagValue('%s', '%s') AS cust_col
USING COLUMNS (cust_col)`,
		policyFQN,
		schemaFQN,
		warehouse.EscapeStringLiteral(p.Comment),
		functionFQN,
		warehouse.EscapeStringLiteral(p.Principal),
		warehouse.EscapeStringLiteral(p.TagName),
		warehouse.EscapeStringLiteral(p.TagValue),
	)
}
