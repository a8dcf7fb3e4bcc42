package testhelpers

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/target/llm-relay/internal/data"
)

// NewSQLiteJobRepoWithTimeProvider creates a SQLiteJobRepo with the provided TimeProvider for tests.
func NewSQLiteJobRepoWithTimeProvider(t testing.TB, db *sql.DB, tp data.TimeProvider) *data.SQLiteJobRepo {
	t.Helper()
	repo, err := data.NewSQLiteJobRepo(db, data.RepoConfig{TimeProvider: tp})
	require.NoError(t, err)
	return repo
}

// NewPostgresJobRepoWithTimeProvider creates a PostgresJobRepo with the provided TimeProvider for tests.
func NewPostgresJobRepoWithTimeProvider(t testing.TB, db *sql.DB, tp data.TimeProvider) *data.PostgresJobRepo {
	t.Helper()
	repo, err := data.NewPostgresJobRepo(db, data.RepoConfig{TimeProvider: tp})
	require.NoError(t, err)
	return repo
}
