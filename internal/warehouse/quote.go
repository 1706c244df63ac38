package warehouse

import (
	"regexp"
	"strings"
)

/*
 * Statement construction helpers.
 *
 * Two distinct contracts, and every call site must pick the correct one:
 *
 *   - QuoteIdentifier: structural quoting, always applied to catalog,
 *     schema, table, and column names embedded in a statement. Backtick
 *     quoting with doubling protects against reserved words and special
 *     characters in object names.
 *
 *   - EscapeStringLiteral: literal escaping for tag names and values
 *     embedded inside single-quoted strings. Doubles embedded quotes.
 *
 * Identifiers can never be bound as parameters, which is why they get a
 * dedicated quoting path instead of the Querier's out-of-band args.
 */

// QuoteIdentifier quotes a single identifier with backticks, doubling any
// embedded backtick.
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QuoteQualified quotes each part of a qualified name and joins with dots.
func QuoteQualified(parts ...string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = QuoteIdentifier(p)
	}
	return strings.Join(quoted, ".")
}

// EscapeStringLiteral escapes a value for embedding in a single-quoted
// SQL string literal.
func EscapeStringLiteral(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SafeIdentifier reports whether a name uses only safe identifier
// characters. Tag names and configured object names are validated with
// this before any statement is built; quoting handles the rest.
func SafeIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}
