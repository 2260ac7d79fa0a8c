package database

import (
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupSQLiteTestDB returns a migrated in-memory database for tests.
// A single connection keeps every query on the same in-memory file.
func SetupSQLiteTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := Open(":memory:", logger.Silent)
	if err != nil {
		t.Fatalf("Failed to connect to SQLite test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get SQLite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := MigrateDB(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}
