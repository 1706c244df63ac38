package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/tagwarden/tagwarden/internal/access"
	"github.com/tagwarden/tagwarden/internal/audit"
	"github.com/tagwarden/tagwarden/internal/core/auth"
	"github.com/tagwarden/tagwarden/internal/core/config"
	"github.com/tagwarden/tagwarden/internal/core/db"
	"github.com/tagwarden/tagwarden/internal/propagate"
	"github.com/tagwarden/tagwarden/internal/tags"
	"github.com/tagwarden/tagwarden/internal/warehouse"
)

// app wires the engine components a command needs. Commands are
// short-lived: build, run one operation, close.
type app struct {
	cfg      *config.Config
	database *sqlx.DB
	rules    *access.Store
	audit    *audit.Store
	metadata *tags.Metadata
	tags     *tags.Manager
	planner  *propagate.Planner
	executor *propagate.Executor
	checker  *auth.Checker
	log      zerolog.Logger
}

func newApp() (*app, error) {
	logger := newLogger()

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if dbURL == "" {
		return nil, fmt.Errorf("--db-url required")
	}
	database, err := db.Open(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	stmts, err := db.LoadStatements()
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to load statements: %w", err)
	}

	client := warehouse.NewClient(database)
	auditStore := audit.NewStore(client, stmts)
	metadata := tags.NewMetadata(client)

	return &app{
		cfg:      cfg,
		database: database,
		rules:    access.NewStore(client, stmts, auditStore, logger),
		audit:    auditStore,
		metadata: metadata,
		tags:     tags.NewManager(client, auditStore, logger),
		planner:  propagate.NewPlanner(metadata),
		executor: propagate.NewExecutor(client, auditStore, logger),
		checker:  auth.NewChecker(client, cfg.AdminGroup, logger),
		log:      logger,
	}, nil
}

func (a *app) Close() {
	a.database.Close()
}

// ctx returns a context carrying the acting principal.
func (a *app) ctx() context.Context {
	return auth.WithPrincipal(context.Background(), userName)
}

// requireAdmin gates mutating commands on admin-group membership.
func (a *app) requireAdmin(ctx context.Context) error {
	if skipAdminCheck {
		a.log.Warn().Msg("admin membership check skipped by flag")
		return nil
	}
	if !a.checker.IsAdmin(ctx) {
		return fmt.Errorf("principal %q is not a member of admin group %q", userName, a.cfg.AdminGroup)
	}
	return nil
}

// skipAdminCheck disables the membership gate for backends without an
// is_member function (local SQLite development).
var skipAdminCheck bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&skipAdminCheck, "skip-admin-check", false,
		"skip the admin group membership gate (development backends only)")
}
