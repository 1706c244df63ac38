// Package auth carries the acting principal and gates admin-only
// operations on warehouse group membership.
package auth

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tagwarden/tagwarden/internal/warehouse"
)

// contextKey is a typed key for context values to avoid collisions.
type contextKey string

const principalKey = contextKey("principal")

// UnknownPrincipal is recorded when no identity was attached to the
// context. Provenance columns are NOT NULL, so an explicit marker beats
// an empty string.
const UnknownPrincipal = "unknown"

// WithPrincipal attaches the acting principal's identity to the context.
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// PrincipalFromContext returns the acting principal, or UnknownPrincipal
// when none was attached.
func PrincipalFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(principalKey).(string); ok && p != "" {
		return p
	}
	return UnknownPrincipal
}

// Checker evaluates admin-group membership through the warehouse's own
// membership predicate.
type Checker struct {
	querier    warehouse.Querier
	adminGroup string
	log        zerolog.Logger
}

// NewChecker creates a membership checker for the configured admin group.
func NewChecker(querier warehouse.Querier, adminGroup string, log zerolog.Logger) *Checker {
	return &Checker{querier: querier, adminGroup: adminGroup, log: log}
}

// IsAdmin reports whether the calling principal is a member of the admin
// group. Fail-closed: any fault during the membership call is treated as
// not a member, never as an implicit allow.
func (c *Checker) IsAdmin(ctx context.Context) bool {
	statement := fmt.Sprintf(
		"SELECT is_member('%s') AS is_admin",
		warehouse.EscapeStringLiteral(c.adminGroup),
	)

	rows, err := c.querier.Query(ctx, statement)
	if err != nil {
		c.log.Warn().Err(err).Str("group", c.adminGroup).Msg("admin membership check failed, denying")
		return false
	}
	if len(rows) == 0 {
		return false
	}
	return rows[0].Bool("is_admin")
}
