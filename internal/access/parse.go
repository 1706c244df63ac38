// Package access implements the access-policy core: the customer id
// expression parser, the pure INCLUDE/EXCLUDE evaluator, the rule store
// adapter, and row-filter artifact rendering.
package access

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/tagwarden/tagwarden/internal/types"
)

// MaxRangeSpan bounds how many ids a single start-end token may expand
// to. Keeps a typo like "1-999999999" from materializing a giant slice.
const MaxRangeSpan = 1_000_000

/*
 * Customer id expression grammar:
 *
 *   expr  := token ("," token)*
 *   token := int | int "-" int      (inclusive range)
 *
 * Empty or whitespace-only input parses to the empty set. That is NOT an
 * error: the empty set is the sentinel for "no explicit customer list"
 * (unrestricted INCLUDE, blanket EXCLUDE). Parsing stops at the first
 * bad token and reports it; there is no partial result.
 */

// ParseCustomerIDs parses a comma-separated id expression into a sorted,
// deduplicated id set.
func ParseCustomerIDs(text string) ([]int64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var ids []int64
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "-") {
			expanded, err := expandRange(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, expanded...)
			continue
		}
		id, err := parseID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return NormalizeCustomerIDs(ids), nil
}

// NormalizeCustomerIDs returns a sorted list of unique customer ids.
// Idempotent: normalizing twice yields the same result as once.
func NormalizeCustomerIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// RenderCustomerIDs joins ids with commas, the inverse of parsing a
// plain list. Parsing the rendered output of a parse returns the same
// set.
func RenderCustomerIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func expandRange(token string) ([]int64, error) {
	startRaw, endRaw, _ := strings.Cut(token, "-")
	start, err := parseID(strings.TrimSpace(startRaw))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidRange, token)
	}
	end, err := parseID(strings.TrimSpace(endRaw))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidRange, token)
	}
	if end < start {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidRange, token)
	}
	if end-start+1 > MaxRangeSpan {
		return nil, fmt.Errorf("%w: %q", types.ErrRangeTooLarge, token)
	}

	ids := make([]int64, 0, end-start+1)
	for id := start; id <= end; id++ {
		ids = append(ids, id)
	}
	return ids, nil
}

func parseID(token string) (int64, error) {
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidCustomerID, token)
	}
	if id < 0 {
		return 0, fmt.Errorf("%w: %q", types.ErrNegativeCustomerID, token)
	}
	return id, nil
}
