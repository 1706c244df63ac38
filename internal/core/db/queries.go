package db

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/qustavo/dotsql"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// Statements provides access to named SQL statements loaded from embedded
// .sql files. Fixed mutations and lookups live here by name (for example
// "insert-access-rule", "insert-audit-entry"); list queries with
// composable filters are assembled in Go by their owning package.
type Statements struct {
	dot *dotsql.DotSql
}

// LoadStatements parses every embedded .sql file into one named
// statement set.
func LoadStatements() (*Statements, error) {
	var combinedSQL string

	err := fs.WalkDir(queriesFS, "queries", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".sql" {
			return nil
		}

		content, err := queriesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		combinedSQL += string(content) + "\n"
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to load query files: %w", err)
	}

	dot, err := dotsql.LoadFromString(combinedSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse queries: %w", err)
	}

	return &Statements{dot: dot}, nil
}

// Raw returns the statement text registered under name. Callers run the
// text through the warehouse Querier, which handles placeholder
// rebinding per driver.
func (s *Statements) Raw(name string) (string, error) {
	stmt, err := s.dot.Raw(name)
	if err != nil {
		return "", fmt.Errorf("statement not found: %s", name)
	}
	return stmt, nil
}
