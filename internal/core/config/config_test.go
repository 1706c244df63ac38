package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Catalog != "main" {
		t.Errorf("Catalog = %q, want %q", cfg.Catalog, "main")
	}
	if cfg.Schema != "governance" {
		t.Errorf("Schema = %q, want %q", cfg.Schema, "governance")
	}
	if cfg.AccessTable != "group_customer_access" {
		t.Errorf("AccessTable = %q, want %q", cfg.AccessTable, "group_customer_access")
	}
	if cfg.PreviewLimit != 50 {
		t.Errorf("PreviewLimit = %d, want 50", cfg.PreviewLimit)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TW_ADMIN_GROUP", "data-stewards")
	t.Setenv("TW_CATALOG", "prod")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.AdminGroup != "data-stewards" {
		t.Errorf("AdminGroup = %q, want %q", cfg.AdminGroup, "data-stewards")
	}
	if cfg.Catalog != "prod" {
		t.Errorf("Catalog = %q, want %q", cfg.Catalog, "prod")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "catalog: analytics\nschema: governed\npreview_limit: 10\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Catalog != "analytics" {
		t.Errorf("Catalog = %q, want %q", cfg.Catalog, "analytics")
	}
	if cfg.Schema != "governed" {
		t.Errorf("Schema = %q, want %q", cfg.Schema, "governed")
	}
	if cfg.PreviewLimit != 10 {
		t.Errorf("PreviewLimit = %d, want 10", cfg.PreviewLimit)
	}
}

func TestLoad_RejectsUnsafeIdentifiers(t *testing.T) {
	t.Setenv("TW_CATALOG", "bad-name; DROP TABLE x")

	if _, err := Load(""); err == nil {
		t.Fatal("Load() error = nil, want identifier validation failure")
	}
}

func TestLoad_RejectsNonPositivePreviewLimit(t *testing.T) {
	t.Setenv("TW_PREVIEW_LIMIT", "0")

	if _, err := Load(""); err == nil {
		t.Fatal("Load() error = nil, want preview_limit validation failure")
	}
}

func TestQualifyTable(t *testing.T) {
	cfg := Default()

	if got := cfg.QualifyTable("group_customer_access"); got != "main.governance.group_customer_access" {
		t.Errorf("QualifyTable() = %q, want qualified name", got)
	}
	if got := cfg.QualifyTable("other.schema.table"); got != "other.schema.table" {
		t.Errorf("QualifyTable() = %q, want passthrough for qualified input", got)
	}
}
