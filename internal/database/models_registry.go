package database

import "threadline/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for AutoMigrate: referenced tables come first.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Thread{},
		&models.Reply{},
		&models.Like{},
		&models.Follow{},
	}
}
