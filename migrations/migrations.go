package migrations

import "embed"

// Migration files embedded at compile time so a single binary can
// provision the access_rules and audit_log tables without external
// assets. One directory per supported dialect.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
