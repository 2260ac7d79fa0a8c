package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithForeignKeys(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"routetracker.db", "routetracker.db?_foreign_keys=on"},
		{"file:test.db?cache=shared", "file:test.db?cache=shared&_foreign_keys=on"},
		{"test.db?_fk=1", "test.db?_fk=1"},
		{":memory:?_foreign_keys=on", ":memory:?_foreign_keys=on"},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, withForeignKeys(tt.dsn))
		})
	}
}

func TestSetupSQLiteTestDBEnforcesForeignKeys(t *testing.T) {
	db := SetupSQLiteTestDB(t)

	var enabled int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&enabled).Error)
	assert.Equal(t, 1, enabled)
	assert.True(t, db.Migrator().HasTable("completions"))
}
