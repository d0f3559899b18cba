package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestRunSQLiteMigrations(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	applied, err := RunSQLiteMigrations(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"000001_tasks",
		"000002_wellness_entries",
		"000003_recommendation_actions",
	}, applied)

	for _, table := range []string{"tasks", "wellness_entries", "recommendation_actions"} {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	again, err := RunSQLiteMigrations(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestUpFiles_Sorted(t *testing.T) {
	files, err := upFiles(postgresFS, "postgres")
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_tasks.up.sql"}, files)
}
