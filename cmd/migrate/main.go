// Command migrate runs schema operations for the Threadline database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"threadline/internal/config"
	"threadline/internal/database"
	"threadline/internal/middleware"

	"gorm.io/gorm"
)

type command struct {
	help string
	run  func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error
}

var commands = map[string]command{
	"up": {"apply pending SQL migrations", func(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
		middleware.Logger.Info("SQL migrations applied")
		return nil
	}},
	"auto": {"run AutoMigrate over the models", func(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply: %w", err)
		}
		middleware.Logger.Info("AutoMigrate applied")
		return nil
	}},
	"apply": {"apply the schema the way the server does on start", func(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
		return database.ApplySchema(ctx, db, cfg)
	}},
	"status": {"print the schema plan and migration state", func(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status: %w", err)
		}
		fmt.Printf("driver=%s mode=%s env=%s sql=%t auto=%t applied=%d pending=%d\n",
			status.Driver, status.Mode, status.Env, status.SQL, status.Auto,
			len(status.AppliedVersions), len(status.PendingMigrations))
		for _, m := range status.PendingMigrations {
			fmt.Printf("pending: %s\n", m.String())
		}
		for _, table := range status.MissingTables {
			fmt.Printf("missing table: %s\n", table)
		}
		return nil
	}},
	"down": {"roll back one migration: down <version>", func(ctx context.Context, db *gorm.DB, _ *config.Config, args []string) error {
		if len(args) < 1 {
			return errors.New("down requires a version")
		}
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
		middleware.Logger.Info("Rolled back migration", slog.Int("version", version))
		return nil
	}},
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if err := run(flag.Args()); err != nil {
		middleware.Logger.Error("migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(os.Stderr, "usage: migrate <command> [args]")
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-7s %s\n", name, commands[name].help)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		usage()
		return errors.New("missing command")
	}
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(args[0]))]
	if !ok {
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	middleware.InitLogger(cfg.Env, os.Getenv("LOG_LEVEL"))

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	return cmd.run(context.Background(), db, cfg, args[1:])
}
