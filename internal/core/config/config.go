// Package config provides configuration management for tagwarden.
package config

import (
	"fmt"
	"strings"

	"github.com/tagwarden/tagwarden/internal/warehouse"
)

// Config holds the resolved settings for one invocation. Catalog and
// schema locate the governed warehouse objects; AccessTable and
// AuditTable name the warehouse-side tables referenced by generated
// row-filter artifacts.
type Config struct {
	Catalog      string
	Schema       string
	AccessTable  string
	AuditTable   string
	AdminGroup   string
	PreviewLimit int
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		Catalog:      "main",
		Schema:       "governance",
		AccessTable:  "group_customer_access",
		AuditTable:   "audit_log",
		AdminGroup:   "governance-admins",
		PreviewLimit: 50,
	}
}

// QualifyTable returns the fully qualified name for a table, leaving
// already-qualified names untouched.
func (c *Config) QualifyTable(table string) string {
	if strings.Contains(table, ".") {
		return table
	}
	return c.Catalog + "." + c.Schema + "." + table
}

// validate rejects object names outside the safe identifier pattern so
// configuration can never smuggle statement fragments into generated SQL.
func validate(cfg *Config) error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"catalog", cfg.Catalog},
		{"schema", cfg.Schema},
		{"access_table", cfg.AccessTable},
		{"audit_table", cfg.AuditTable},
	} {
		if !warehouse.SafeIdentifier(field.value) {
			return fmt.Errorf("%s is not a safe identifier: %q", field.name, field.value)
		}
	}
	if cfg.AdminGroup == "" {
		return fmt.Errorf("admin_group must not be empty")
	}
	if cfg.PreviewLimit <= 0 {
		return fmt.Errorf("preview_limit must be positive, got %d", cfg.PreviewLimit)
	}
	return nil
}
