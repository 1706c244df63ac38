// Package tags reads governance tag metadata and manages table and
// column tags.
//
// All reads go straight to the warehouse's information schema on every
// call. Nothing is cached: correctness of the propagation planner
// depends on metadata being queried at the time of use, not memoized.
package tags

import (
	"context"
	"fmt"
	"sort"

	"github.com/tagwarden/tagwarden/internal/types"
	"github.com/tagwarden/tagwarden/internal/warehouse"
)

// Metadata answers catalog/schema/table/column and tag questions through
// the warehouse query capability.
type Metadata struct {
	querier warehouse.Querier
}

// NewMetadata creates a metadata reader.
func NewMetadata(querier warehouse.Querier) *Metadata {
	return &Metadata{querier: querier}
}

// extractName pulls an object name out of SHOW output, which labels the
// name column differently per object kind and warehouse version.
func extractName(row warehouse.Row) string {
	for _, key := range []string{"catalog", "databaseName", "schema_name", "tableName", "table"} {
		if v := row.String(key); v != "" {
			return v
		}
	}
	return ""
}

func (m *Metadata) showNames(ctx context.Context, statement string) ([]string, error) {
	rows, err := m.querier.Query(ctx, statement)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, row := range rows {
		if name := extractName(row); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Catalogs returns all catalog names, sorted.
func (m *Metadata) Catalogs(ctx context.Context) ([]string, error) {
	names, err := m.showNames(ctx, "SHOW CATALOGS")
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	return names, nil
}

// Schemas returns the schema names in a catalog, sorted.
func (m *Metadata) Schemas(ctx context.Context, catalog string) ([]string, error) {
	names, err := m.showNames(ctx, "SHOW SCHEMAS IN "+warehouse.QuoteIdentifier(catalog))
	if err != nil {
		return nil, fmt.Errorf("list schemas in %s: %w", catalog, err)
	}
	return names, nil
}

// Tables returns the table names in a schema, sorted.
func (m *Metadata) Tables(ctx context.Context, catalog, schema string) ([]string, error) {
	names, err := m.showNames(ctx, "SHOW TABLES IN "+warehouse.QuoteQualified(catalog, schema))
	if err != nil {
		return nil, fmt.Errorf("list tables in %s.%s: %w", catalog, schema, err)
	}
	return names, nil
}

// TableColumns returns the column names of a table, sorted.
func (m *Metadata) TableColumns(ctx context.Context, table types.TableRef) ([]string, error) {
	query := `SELECT column_name
		FROM system.information_schema.columns
		WHERE table_catalog = ? AND table_schema = ? AND table_name = ?
		ORDER BY column_name`
	rows, err := m.querier.Query(ctx, query, table.Catalog, table.Schema, table.Table)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table.FQN(), err)
	}
	var columns []string
	for _, row := range rows {
		if name := row.String("column_name"); name != "" {
			columns = append(columns, name)
		}
	}
	return columns, nil
}

// TaggedCatalogs returns catalog-scope bindings for a tag name,
// optionally constrained to one catalog.
func (m *Metadata) TaggedCatalogs(ctx context.Context, tagName, targetCatalog string) ([]types.TagBinding, error) {
	query := `SELECT catalog_name, tag_value
		FROM system.information_schema.catalog_tags
		WHERE tag_name = ?`
	args := []any{tagName}
	if targetCatalog != "" {
		query += " AND catalog_name = ?"
		args = append(args, targetCatalog)
	}

	rows, err := m.querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("discover tagged catalogs: %w", err)
	}

	bindings := make([]types.TagBinding, 0, len(rows))
	for _, row := range rows {
		bindings = append(bindings, types.TagBinding{
			Scope:    types.ScopeCatalog,
			Catalog:  row.String("catalog_name"),
			TagName:  tagName,
			TagValue: row.String("tag_value"),
		})
	}
	return bindings, nil
}

// TaggedSchemas returns schema-scope bindings for a tag name, optionally
// constrained to a catalog and/or schema.
func (m *Metadata) TaggedSchemas(ctx context.Context, tagName, targetCatalog, targetSchema string) ([]types.TagBinding, error) {
	query := `SELECT catalog_name, schema_name, tag_value
		FROM system.information_schema.schema_tags
		WHERE tag_name = ?`
	args := []any{tagName}
	if targetCatalog != "" {
		query += " AND catalog_name = ?"
		args = append(args, targetCatalog)
	}
	if targetSchema != "" {
		query += " AND schema_name = ?"
		args = append(args, targetSchema)
	}

	rows, err := m.querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("discover tagged schemas: %w", err)
	}

	bindings := make([]types.TagBinding, 0, len(rows))
	for _, row := range rows {
		bindings = append(bindings, types.TagBinding{
			Scope:    types.ScopeSchema,
			Catalog:  row.String("catalog_name"),
			Schema:   row.String("schema_name"),
			TagName:  tagName,
			TagValue: row.String("tag_value"),
		})
	}
	return bindings, nil
}

// TaggedTables returns table-scope bindings for a tag name, optionally
// constrained to a catalog and/or schema.
func (m *Metadata) TaggedTables(ctx context.Context, tagName, targetCatalog, targetSchema string) ([]types.TagBinding, error) {
	query := `SELECT catalog_name, schema_name, table_name, tag_value
		FROM system.information_schema.table_tags
		WHERE tag_name = ?`
	args := []any{tagName}
	if targetCatalog != "" {
		query += " AND catalog_name = ?"
		args = append(args, targetCatalog)
	}
	if targetSchema != "" {
		query += " AND schema_name = ?"
		args = append(args, targetSchema)
	}

	rows, err := m.querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("discover tagged tables: %w", err)
	}

	bindings := make([]types.TagBinding, 0, len(rows))
	for _, row := range rows {
		bindings = append(bindings, types.TagBinding{
			Scope:    types.ScopeTable,
			Catalog:  row.String("catalog_name"),
			Schema:   row.String("schema_name"),
			Table:    row.String("table_name"),
			TagName:  tagName,
			TagValue: row.String("tag_value"),
		})
	}
	return bindings, nil
}

// TablesInCatalog enumerates every table under a catalog.
func (m *Metadata) TablesInCatalog(ctx context.Context, catalog string) ([]types.TableRef, error) {
	query := `SELECT DISTINCT table_catalog, table_schema, table_name
		FROM system.information_schema.tables
		WHERE table_catalog = ?`
	rows, err := m.querier.Query(ctx, query, catalog)
	if err != nil {
		return nil, fmt.Errorf("list tables in catalog %s: %w", catalog, err)
	}
	return rowsToTables(rows), nil
}

// TablesInSchema enumerates every table under a schema.
func (m *Metadata) TablesInSchema(ctx context.Context, catalog, schema string) ([]types.TableRef, error) {
	query := `SELECT DISTINCT table_catalog, table_schema, table_name
		FROM system.information_schema.tables
		WHERE table_catalog = ? AND table_schema = ?`
	rows, err := m.querier.Query(ctx, query, catalog, schema)
	if err != nil {
		return nil, fmt.Errorf("list tables in schema %s.%s: %w", catalog, schema, err)
	}
	return rowsToTables(rows), nil
}

// TableTags returns the tags attached to one table.
func (m *Metadata) TableTags(ctx context.Context, table types.TableRef) ([]types.TagBinding, error) {
	query := `SELECT tag_name, tag_value
		FROM system.information_schema.table_tags
		WHERE catalog_name = ? AND schema_name = ? AND table_name = ?
		ORDER BY tag_name`
	rows, err := m.querier.Query(ctx, query, table.Catalog, table.Schema, table.Table)
	if err != nil {
		return nil, fmt.Errorf("list tags of %s: %w", table.FQN(), err)
	}

	bindings := make([]types.TagBinding, 0, len(rows))
	for _, row := range rows {
		bindings = append(bindings, types.TagBinding{
			Scope:    types.ScopeTable,
			Catalog:  table.Catalog,
			Schema:   table.Schema,
			Table:    table.Table,
			TagName:  row.String("tag_name"),
			TagValue: row.String("tag_value"),
		})
	}
	return bindings, nil
}

// ColumnTags returns the column-level tags of one table, ordered by
// column then tag name.
func (m *Metadata) ColumnTags(ctx context.Context, table types.TableRef) ([]types.TagBinding, error) {
	query := `SELECT column_name, tag_name, tag_value
		FROM system.information_schema.column_tags
		WHERE catalog_name = ? AND schema_name = ? AND table_name = ?
		ORDER BY column_name, tag_name`
	rows, err := m.querier.Query(ctx, query, table.Catalog, table.Schema, table.Table)
	if err != nil {
		return nil, fmt.Errorf("list column tags of %s: %w", table.FQN(), err)
	}

	bindings := make([]types.TagBinding, 0, len(rows))
	for _, row := range rows {
		bindings = append(bindings, types.TagBinding{
			Scope:    types.ScopeColumn,
			Catalog:  table.Catalog,
			Schema:   table.Schema,
			Table:    table.Table,
			Column:   row.String("column_name"),
			TagName:  row.String("tag_name"),
			TagValue: row.String("tag_value"),
		})
	}
	return bindings, nil
}

// TagOptions returns the distinct tag names already in use across table
// and column tags in a schema. Drives pick lists so operators reuse
// existing names instead of minting near-duplicates.
func (m *Metadata) TagOptions(ctx context.Context, catalog, schema string) ([]string, error) {
	query := `SELECT DISTINCT tag_name FROM (
			SELECT tag_name FROM system.information_schema.table_tags
			WHERE catalog_name = ? AND schema_name = ?
			UNION ALL
			SELECT tag_name FROM system.information_schema.column_tags
			WHERE catalog_name = ? AND schema_name = ?
		) ORDER BY tag_name`
	rows, err := m.querier.Query(ctx, query, catalog, schema, catalog, schema)
	if err != nil {
		return nil, fmt.Errorf("list tag options in %s.%s: %w", catalog, schema, err)
	}

	var names []string
	for _, row := range rows {
		if name := row.String("tag_name"); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// Coverage counts how much of a schema carries governance tags.
type Coverage struct {
	TaggedTables  int64
	TaggedColumns int64
}

// TagCoverage counts the distinct tagged tables and tagged columns in a
// schema.
func (m *Metadata) TagCoverage(ctx context.Context, catalog, schema string) (Coverage, error) {
	query := `SELECT
			(SELECT COUNT(DISTINCT table_name)
				FROM system.information_schema.table_tags
				WHERE catalog_name = ? AND schema_name = ?) AS tagged_tables,
			(SELECT COUNT(DISTINCT table_name || '.' || column_name)
				FROM system.information_schema.column_tags
				WHERE catalog_name = ? AND schema_name = ?) AS tagged_columns`
	rows, err := m.querier.Query(ctx, query, catalog, schema, catalog, schema)
	if err != nil {
		return Coverage{}, fmt.Errorf("tag coverage of %s.%s: %w", catalog, schema, err)
	}
	if len(rows) == 0 {
		return Coverage{}, nil
	}
	return Coverage{
		TaggedTables:  rows[0].Int64("tagged_tables"),
		TaggedColumns: rows[0].Int64("tagged_columns"),
	}, nil
}

func rowsToTables(rows []warehouse.Row) []types.TableRef {
	tables := make([]types.TableRef, 0, len(rows))
	for _, row := range rows {
		tables = append(tables, types.TableRef{
			Catalog: row.String("table_catalog"),
			Schema:  row.String("table_schema"),
			Table:   row.String("table_name"),
		})
	}
	return tables
}
