package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/nextup/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/nextup/internal/shared/infrastructure/migrations"
)

// setupTestDB creates an in-memory SQLite database with the schema applied.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := database.OpenSQLite(context.Background(), database.Config{SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	_, err = migrations.RunSQLiteMigrations(context.Background(), sqlDB)
	require.NoError(t, err, "Failed to apply SQLite schema")

	return sqlDB
}
