// Package propagate turns hierarchy-level governance tags into concrete
// column-tag mutations.
//
// Planning and execution are split on purpose. BuildPlan only reads
// metadata and renders statements; Apply is the single place that
// mutates. A dry run is therefore not a mode of the executor but the
// absence of a call to it.
package propagate

import (
	"context"
	"fmt"
	"strings"

	"github.com/tagwarden/tagwarden/internal/tags"
	"github.com/tagwarden/tagwarden/internal/types"
)

// Discovery is the metadata the planner needs: which objects carry the
// parent tag, what tables live under them, and what columns a table has.
type Discovery interface {
	TaggedCatalogs(ctx context.Context, tagName, targetCatalog string) ([]types.TagBinding, error)
	TaggedSchemas(ctx context.Context, tagName, targetCatalog, targetSchema string) ([]types.TagBinding, error)
	TaggedTables(ctx context.Context, tagName, targetCatalog, targetSchema string) ([]types.TagBinding, error)
	TablesInCatalog(ctx context.Context, catalog string) ([]types.TableRef, error)
	TablesInSchema(ctx context.Context, catalog, schema string) ([]types.TableRef, error)
	TableColumns(ctx context.Context, table types.TableRef) ([]string, error)
}

// Request describes one propagation run.
type Request struct {
	// ParentTagName is the hierarchy tag whose value lists categories,
	// e.g. "data_categories".
	ParentTagName string
	// RequiredCategory gates propagation: only tables whose accumulated
	// category set contains it receive the column tag.
	RequiredCategory string
	// ColumnName is the column that must exist for a table to qualify.
	ColumnName string
	// ColumnTagName and ColumnTagValue form the tag written to the column.
	ColumnTagName  string
	ColumnTagValue string
	// TargetCatalog and TargetSchema narrow discovery. Empty means all.
	TargetCatalog string
	TargetSchema  string
}

// Planner computes propagation plans from live metadata.
type Planner struct {
	discovery Discovery
}

// NewPlanner creates a planner over a metadata source.
func NewPlanner(discovery Discovery) *Planner {
	return &Planner{discovery: discovery}
}

// categoryAccumulator unions category sets per table while remembering
// the order tables were first seen. Plans must come out in a stable
// order so a dry run and the apply that follows it read the same.
type categoryAccumulator struct {
	order      []types.TableRef
	categories map[string]map[string]bool
}

func newCategoryAccumulator() *categoryAccumulator {
	return &categoryAccumulator{categories: make(map[string]map[string]bool)}
}

// add unions the categories of one binding into a table's set.
// A binding with no usable categories still registers the table.
func (a *categoryAccumulator) add(table types.TableRef, tagValue string) {
	fqn := table.FQN()
	set, seen := a.categories[fqn]
	if !seen {
		set = make(map[string]bool)
		a.categories[fqn] = set
		a.order = append(a.order, table)
	}
	for _, token := range strings.Split(tagValue, ",") {
		if token = strings.TrimSpace(token); token != "" {
			set[token] = true
		}
	}
}

func (a *categoryAccumulator) has(table types.TableRef, category string) bool {
	return a.categories[table.FQN()][category]
}

// BuildPlan walks the three tag scopes from widest to narrowest,
// accumulates each table's category set, and emits one action per table
// that passes both gates (required category present, target column
// present).
func (p *Planner) BuildPlan(ctx context.Context, req Request) ([]types.PropagationAction, error) {
	if req.ParentTagName == "" {
		return nil, fmt.Errorf("propagation request missing parent tag name")
	}
	if err := tags.ValidTagName(req.ColumnTagName); err != nil {
		return nil, err
	}

	acc := newCategoryAccumulator()

	// Catalog scope: every table under a tagged catalog inherits the
	// catalog's categories.
	catalogBindings, err := p.discovery.TaggedCatalogs(ctx, req.ParentTagName, req.TargetCatalog)
	if err != nil {
		return nil, fmt.Errorf("plan propagation: %w", err)
	}
	// A schema target narrows which schema and table bindings are
	// discovered, never which tables a tagged catalog covers: catalog
	// inheritance always spans every table under the catalog.
	for _, binding := range catalogBindings {
		tables, err := p.discovery.TablesInCatalog(ctx, binding.Catalog)
		if err != nil {
			return nil, fmt.Errorf("plan propagation: %w", err)
		}
		for _, table := range tables {
			acc.add(table, binding.TagValue)
		}
	}

	// Schema scope.
	schemaBindings, err := p.discovery.TaggedSchemas(ctx, req.ParentTagName, req.TargetCatalog, req.TargetSchema)
	if err != nil {
		return nil, fmt.Errorf("plan propagation: %w", err)
	}
	for _, binding := range schemaBindings {
		tables, err := p.discovery.TablesInSchema(ctx, binding.Catalog, binding.Schema)
		if err != nil {
			return nil, fmt.Errorf("plan propagation: %w", err)
		}
		for _, table := range tables {
			acc.add(table, binding.TagValue)
		}
	}

	// Table scope.
	tableBindings, err := p.discovery.TaggedTables(ctx, req.ParentTagName, req.TargetCatalog, req.TargetSchema)
	if err != nil {
		return nil, fmt.Errorf("plan propagation: %w", err)
	}
	for _, binding := range tableBindings {
		acc.add(types.TableRef{Catalog: binding.Catalog, Schema: binding.Schema, Table: binding.Table}, binding.TagValue)
	}

	var plan []types.PropagationAction
	for _, table := range acc.order {
		if req.RequiredCategory != "" && !acc.has(table, req.RequiredCategory) {
			continue
		}
		columns, err := p.discovery.TableColumns(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("plan propagation: %w", err)
		}
		if !contains(columns, req.ColumnName) {
			continue
		}
		plan = append(plan, types.PropagationAction{
			Table:     table,
			Column:    req.ColumnName,
			TagName:   req.ColumnTagName,
			TagValue:  req.ColumnTagValue,
			Statement: tags.SetColumnTagSQL(table, req.ColumnName, req.ColumnTagName, req.ColumnTagValue),
		})
	}
	return plan, nil
}

func contains(names []string, want string) bool {
	for _, name := range names {
		if name == want {
			return true
		}
	}
	return false
}
