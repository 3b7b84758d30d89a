// Package bootstrap wires the process-level dependencies shared by the
// server and the command line tools.
package bootstrap

import (
	"fmt"
	"log/slog"
	"strings"

	"threadline/internal/cache"
	"threadline/internal/config"
	"threadline/internal/database"
	"threadline/internal/middleware"
	"threadline/internal/models"
	"threadline/internal/seed"
	"threadline/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ScenarioPath, when set, loads a seed scenario into an empty database.
	ScenarioPath string
}

// InitRuntime connects to DB and Redis and optionally seeds development data.
// The Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := EnsureDevUser(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development user: %w", err)
	}

	if opts.ScenarioPath != "" {
		if err := seedScenarioIfEmpty(db, opts.ScenarioPath); err != nil {
			return nil, nil, err
		}
	}

	return db, r, nil
}

func seedScenarioIfEmpty(db *gorm.DB, path string) error {
	var users int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if users > 0 {
		middleware.Logger.Info("Database not empty, skipping scenario", slog.String("path", path))
		return nil
	}
	sc, err := seed.LoadScenario(path)
	if err != nil {
		return err
	}
	sum, err := sc.Apply(db, seed.FactoryOptions{})
	if err != nil {
		return fmt.Errorf("apply scenario: %w", err)
	}
	middleware.Logger.Info("Scenario loaded",
		slog.String("path", path),
		slog.Int("users", sum.Users),
		slog.Int("threads", sum.Threads),
	)
	return nil
}

// EnsureDevUser creates (or resets the password of) a known login in
// development when DEV_BOOTSTRAP_USER is enabled. It is a no-op otherwise.
func EnsureDevUser(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapUser {
		return nil
	}

	username := strings.TrimSpace(cfg.DevUserUsername)
	if username == "" {
		username = "threadline_dev"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevUserEmail))
	if email == "" {
		email = "dev@threadline.local"
	}
	password := cfg.DevUserPassword
	if password == "" {
		return fmt.Errorf("DEV_USER_PASSWORD must be set when DEV_BOOTSTRAP_USER is enabled")
	}
	if err := validation.ValidatePassword(password, username); err != nil {
		return fmt.Errorf("DEV_USER_PASSWORD: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash dev user password: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var existing models.User
		res := tx.Where("username = ?", username).Limit(1).Find(&existing)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return tx.Create(&models.User{
				Username: username,
				Email:    email,
				Password: string(hashedPassword),
			}).Error
		}
		return tx.Model(&models.User{}).Where("id = ?", existing.ID).
			Update("password", string(hashedPassword)).Error
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("Development user ensured", slog.String("username", username))
	return nil
}
