package database

import (
	"context"
	"fmt"
	"testing"
	"testing/fstest"
	"time"

	"threadline/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := SQLiteDSN(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)

	// Zero values fall back to defaults.
	require.NoError(t, configurePool(db, &config.Config{}))
	assert.Equal(t, 25, sqlDB.Stats().MaxOpenConnections)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "app.db?_foreign_keys=on", SQLiteDSN("app.db"))
	assert.Equal(t, "file::memory:?cache=shared&_foreign_keys=on", SQLiteDSN(""))
	assert.Equal(t, "x.db?_foreign_keys=off", SQLiteDSN("x.db?_foreign_keys=off"))
}

func TestPlanSchema(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.Config
		wantSQL   bool
		wantAuto  bool
		wantError bool
	}{
		{"hybrid in development", config.Config{Env: "development", DBSchemaMode: "hybrid"}, true, true, false},
		{"hybrid in production", config.Config{Env: "production", DBSchemaMode: "hybrid"}, true, false, false},
		{"empty mode defaults to hybrid", config.Config{Env: "development"}, true, true, false},
		{"sql only", config.Config{Env: "development", DBSchemaMode: "sql"}, true, false, false},
		{"mode is case-insensitive", config.Config{Env: "development", DBSchemaMode: " SQL "}, true, false, false},
		{"auto refused in staging", config.Config{Env: "staging", DBSchemaMode: "auto"}, false, false, true},
		{"auto allowed with override", config.Config{Env: "staging", DBSchemaMode: "auto", DBAutoMigrateAllowDestructive: true}, false, true, false},
		{"sqlite always auto", config.Config{Env: "test", DBDriver: config.DBDriverSQLite, DBSchemaMode: "sql"}, false, true, false},
		{"sqlite still rejects unknown mode", config.Config{Env: "test", DBDriver: config.DBDriverSQLite, DBSchemaMode: "yolo"}, false, false, true},
		{"unknown mode", config.Config{Env: "development", DBSchemaMode: "yolo"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanSchema(&tt.cfg)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, plan.SQL)
			assert.Equal(t, tt.wantAuto, plan.Auto)
		})
	}
}

func TestApplySchema_SQLite(t *testing.T) {
	db := openSQLite(t)
	cfg := &config.Config{Env: "test", DBDriver: config.DBDriverSQLite, DBSchemaMode: "auto"}

	status, err := GetSchemaStatus(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"users", "threads", "replies", "likes", "follows"}, status.MissingTables)

	require.NoError(t, ApplySchema(context.Background(), db, cfg))
	for _, table := range []string{"users", "threads", "replies", "likes", "follows"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	status, err = GetSchemaStatus(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.False(t, status.SQL)
	assert.True(t, status.Auto)
	assert.Equal(t, config.DBDriverSQLite, status.Driver)
	assert.Empty(t, status.MissingTables)
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000002_second.up.sql":   {Data: []byte("SELECT 2;")},
		"m/000002_second.down.sql": {Data: []byte("SELECT -2;")},
		"m/000001_first.up.sql":    {Data: []byte("SELECT 1;")},
		"m/000001_first.down.sql":  {Data: []byte("SELECT -1;")},
		"m/README.md":              {Data: []byte("ignored")},
	}
	got, err := LoadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Version)
	assert.Equal(t, "first", got[0].Name)
	assert.Equal(t, "000002_second", got[1].String())

	_, err = LoadMigrations(fstest.MapFS{"m/000003_orphan.up.sql": {Data: []byte("SELECT 3;")}}, "m")
	assert.Error(t, err, "missing down script")

	_, err = LoadMigrations(fstest.MapFS{
		"m/abc_bad.up.sql":   {Data: []byte("x")},
		"m/abc_bad.down.sql": {Data: []byte("x")},
	}, "m")
	assert.Error(t, err, "non-numeric version")
}

func TestEmbeddedMigrations(t *testing.T) {
	all := GetMigrations()
	require.NotEmpty(t, all)
	assert.Equal(t, 1, all[0].Version)
	assert.Contains(t, all[0].UpScript, "CREATE TABLE IF NOT EXISTS follows")
	assert.NotNil(t, GetMigrationByVersion(2))
	assert.Nil(t, GetMigrationByVersion(999))
}

func TestRunMigrations_AppliesOnceAndRollsBack(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	registered := []Migration{
		{Version: 1, Name: "widgets", UpScript: "CREATE TABLE widgets (id INTEGER PRIMARY KEY)", DownScript: "DROP TABLE widgets"},
		{Version: 2, Name: "gadgets", UpScript: "CREATE TABLE gadgets (id INTEGER PRIMARY KEY)", DownScript: "DROP TABLE gadgets"},
	}

	require.NoError(t, runMigrations(ctx, db, registered))
	require.NoError(t, runMigrations(ctx, db, registered), "second run is a no-op")

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, applied)
	assert.True(t, db.Migrator().HasTable("gadgets"))

	require.NoError(t, NewMigrationStore(db).RevertMigration(ctx, registered[1]))
	assert.False(t, db.Migrator().HasTable("gadgets"))

	err = runMigrations(ctx, db, registered[1:])
	assert.ErrorContains(t, err, "000001")
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}}
	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, registered))
	assert.ErrorContains(t, validateAppliedVersions([]int{1, 7}, registered), "000007")
}

func TestReadDBFallback(t *testing.T) {
	t.Cleanup(func() { SetReadDB(nil) })
	assert.Nil(t, GetReadDB())

	db := openSQLite(t)
	SetReadDB(db)
	assert.Same(t, db, GetReadDB())
}

func TestGormLogger_LogMode(t *testing.T) {
	l := NewGormLogger(nil)
	assert.Equal(t, 200*time.Millisecond, l.Config.SlowThreshold)
	quiet := l.LogMode(1).(*CustomGormLogger)
	assert.NotSame(t, l, quiet)
}
