package tags

import (
	"fmt"

	"github.com/tagwarden/tagwarden/internal/types"
	"github.com/tagwarden/tagwarden/internal/warehouse"
)

// Statement builders for tag DDL. Tag names must already be validated
// with ValidTagName; values are free text and get literal-escaped.

// SetTableTagSQL renders the ALTER TABLE statement that attaches a tag
// to a table.
func SetTableTagSQL(table types.TableRef, tagName, tagValue string) string {
	return fmt.Sprintf("ALTER TABLE %s SET TAGS ('%s' = '%s')",
		warehouse.QuoteQualified(table.Catalog, table.Schema, table.Table),
		warehouse.EscapeStringLiteral(tagName),
		warehouse.EscapeStringLiteral(tagValue))
}

// UnsetTableTagSQL renders the ALTER TABLE statement that detaches a tag
// from a table.
func UnsetTableTagSQL(table types.TableRef, tagName string) string {
	return fmt.Sprintf("ALTER TABLE %s UNSET TAGS ('%s')",
		warehouse.QuoteQualified(table.Catalog, table.Schema, table.Table),
		warehouse.EscapeStringLiteral(tagName))
}

// SetColumnTagSQL renders the ALTER TABLE statement that attaches a tag
// to one column.
func SetColumnTagSQL(table types.TableRef, column, tagName, tagValue string) string {
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET TAGS ('%s' = '%s')",
		warehouse.QuoteQualified(table.Catalog, table.Schema, table.Table),
		warehouse.QuoteIdentifier(column),
		warehouse.EscapeStringLiteral(tagName),
		warehouse.EscapeStringLiteral(tagValue))
}

// UnsetColumnTagSQL renders the ALTER TABLE statement that detaches a
// tag from one column.
func UnsetColumnTagSQL(table types.TableRef, column, tagName string) string {
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s UNSET TAGS ('%s')",
		warehouse.QuoteQualified(table.Catalog, table.Schema, table.Table),
		warehouse.QuoteIdentifier(column),
		warehouse.EscapeStringLiteral(tagName))
}

// ValidTagName reports whether a tag name is safe to embed in DDL.
// Tag names follow identifier rules even though they render as string
// literals; anything else is refused up front.
func ValidTagName(name string) error {
	if !warehouse.SafeIdentifier(name) {
		return fmt.Errorf("%w: %q", types.ErrUnsafeTagName, name)
	}
	return nil
}
