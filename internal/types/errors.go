package types

import "errors"

// Sentinel errors for tagwarden operations.
var (
	// ErrInvalidCustomerID indicates a customer id token is not an integer.
	ErrInvalidCustomerID = errors.New("invalid customer id")

	// ErrInvalidRange indicates a customer id range with end before start.
	ErrInvalidRange = errors.New("invalid customer id range")

	// ErrNegativeCustomerID indicates a customer id below zero.
	ErrNegativeCustomerID = errors.New("customer id must be non-negative")

	// ErrRangeTooLarge indicates a customer id range spanning more ids than
	// the parser is willing to materialize.
	ErrRangeTooLarge = errors.New("customer id range spans too many ids")

	// ErrEmptyGroupName indicates a rule without a principal group.
	ErrEmptyGroupName = errors.New("group name must not be empty")

	// ErrInvalidAccessType indicates an access type other than INCLUDE/EXCLUDE.
	ErrInvalidAccessType = errors.New("access type must be INCLUDE or EXCLUDE")

	// ErrExpirationBeforeEffective indicates an expiration date at or before
	// the effective date.
	ErrExpirationBeforeEffective = errors.New("expiration date must be after effective date")

	// ErrRuleNotFound indicates the rule id matched no stored row.
	ErrRuleNotFound = errors.New("access rule not found")

	// ErrRuleNotDeletable indicates a delete attempted on a rule whose
	// expiration date is missing or still in the future.
	ErrRuleNotDeletable = errors.New("access rule is not expired and cannot be deleted")

	// ErrUnsafeTagName indicates a tag name with characters outside the safe
	// identifier pattern.
	ErrUnsafeTagName = errors.New("tag name contains invalid characters")

	// ErrUnsafeIdentifier indicates a catalog/schema/table/column name that
	// failed identifier validation.
	ErrUnsafeIdentifier = errors.New("identifier contains invalid characters")
)
