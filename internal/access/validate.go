package access

import (
	"strings"
	"time"

	"github.com/tagwarden/tagwarden/internal/types"
)

// ValidateDates checks the rule date invariant: the expiration date is
// either absent or strictly after the effective date. Applied before
// persistence, never retroactively to stored rows.
func ValidateDates(effective time.Time, expiration *time.Time) error {
	if expiration != nil && !expiration.After(effective) {
		return types.ErrExpirationBeforeEffective
	}
	return nil
}

// ValidateGroupName rejects empty or whitespace-only group names.
func ValidateGroupName(group string) error {
	if strings.TrimSpace(group) == "" {
		return types.ErrEmptyGroupName
	}
	return nil
}
