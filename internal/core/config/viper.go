package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration with environment > config file > defaults
// precedence. Environment variables use the TW_ prefix
// (TW_ADMIN_GROUP, TW_CATALOG, ...).
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Defaults matching Default()
	v.SetDefault("catalog", "main")
	v.SetDefault("schema", "governance")
	v.SetDefault("access_table", "group_customer_access")
	v.SetDefault("audit_table", "audit_log")
	v.SetDefault("admin_group", "governance-admins")
	v.SetDefault("preview_limit", 50)

	v.SetEnvPrefix("TW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Catalog:      v.GetString("catalog"),
		Schema:       v.GetString("schema"),
		AccessTable:  v.GetString("access_table"),
		AuditTable:   v.GetString("audit_table"),
		AdminGroup:   v.GetString("admin_group"),
		PreviewLimit: v.GetInt("preview_limit"),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
