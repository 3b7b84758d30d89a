// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"threadline/internal/database"
	"threadline/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Uint64

// NewSQLiteDB returns an isolated in-memory database with the full schema
// and foreign keys enforced. It is closed when the test ends.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := database.SQLiteDSN(fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1)))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	// One connection keeps the shared-cache database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with a cheap password hash of "password123".
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// CreateThread inserts a thread authored by authorID. Successive calls get
// strictly increasing created_at values.
func CreateThread(t testing.TB, db *gorm.DB, authorID uint, content string) *models.Thread {
	t.Helper()
	th := &models.Thread{AuthorID: authorID, Content: content, CreatedAt: nextTimestamp()}
	if err := db.Omit("Author", "OriginalThread").Create(th).Error; err != nil {
		t.Fatalf("create thread: %v", err)
	}
	return th
}

// CreateReply inserts a reply on threadID.
func CreateReply(t testing.TB, db *gorm.DB, threadID, authorID uint, content string) *models.Reply {
	t.Helper()
	r := &models.Reply{ThreadID: threadID, AuthorID: authorID, Content: content, CreatedAt: nextTimestamp()}
	if err := db.Omit("Author", "Thread").Create(r).Error; err != nil {
		t.Fatalf("create reply: %v", err)
	}
	return r
}

var clock atomic.Int64

func nextTimestamp() time.Time {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(clock.Add(1)) * time.Second)
}
