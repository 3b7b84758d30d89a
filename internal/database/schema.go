package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"threadline/internal/config"
	"threadline/internal/middleware"

	"gorm.io/gorm"
)

const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan is what ApplySchema will do for a given config.
type SchemaPlan struct {
	Mode   string
	Driver string
	Env    string
	// SQL runs the embedded PostgreSQL migrations.
	SQL bool
	// Auto runs GORM AutoMigrate over PersistentModels.
	Auto bool
}

// SchemaStatus is a SchemaPlan plus the current migration and table state.
type SchemaStatus struct {
	SchemaPlan
	AppliedVersions   []int
	PendingMigrations []Migration
	MissingTables     []string
}

func isProdLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

// PlanSchema resolves DB_SCHEMA_MODE against the driver and environment.
// The embedded migrations are PostgreSQL DDL, so SQLite is always built from
// the models. AutoMigrate never runs in a production-like environment
// unless DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE is set.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{
		Mode:   strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)),
		Driver: driverName(cfg),
		Env:    cfg.Env,
	}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}
	switch plan.Mode {
	case SchemaModeHybrid, SchemaModeSQL, SchemaModeAuto:
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}

	if plan.Driver == config.DBDriverSQLite {
		plan.Auto = true
		return plan, nil
	}

	prodLike := isProdLikeEnv(cfg.Env)
	switch plan.Mode {
	case SchemaModeSQL:
		plan.SQL = true
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.Auto = true
	case SchemaModeHybrid:
		plan.SQL = true
		plan.Auto = !prodLike
	}
	return plan, nil
}

// ApplySchema runs SQL migrations and/or AutoMigrate according to
// DB_SCHEMA_MODE, then checks that every model table exists.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.SQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}

	if plan.Auto {
		if plan.Mode == SchemaModeAuto && isProdLikeEnv(plan.Env) {
			middleware.Logger.Warn("AutoMigrate enabled in a production-like environment; review schema diffs before deploying")
		}
		middleware.Logger.Info("Running GORM AutoMigrate",
			slog.String("mode", plan.Mode),
			slog.String("driver", plan.Driver),
			slog.String("env", plan.Env),
		)
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	if missing := missingTables(db); len(missing) > 0 {
		return fmt.Errorf("schema incomplete after %s apply, missing tables: %s", plan.Mode, strings.Join(missing, ", "))
	}
	return nil
}

func missingTables(db *gorm.DB) []string {
	var missing []string
	for _, model := range PersistentModels() {
		if !db.Migrator().HasTable(model) {
			stmt := &gorm.Statement{DB: db}
			if err := stmt.Parse(model); err == nil {
				missing = append(missing, stmt.Schema.Table)
			} else {
				missing = append(missing, fmt.Sprintf("%T", model))
			}
		}
	}
	return missing
}

// GetSchemaStatus reports the plan for cfg along with applied and pending
// migrations and any model tables that do not exist yet.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan, MissingTables: missingTables(db)}

	if !plan.SQL {
		return status, nil
	}

	if !db.Migrator().HasTable(&MigrationLog{}) {
		status.PendingMigrations = GetMigrations()
		return status, nil
	}
	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied

	appliedSet := make(map[int]bool, len(applied))
	for _, version := range applied {
		appliedSet[version] = true
	}
	for _, m := range GetMigrations() {
		if !appliedSet[m.Version] {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
