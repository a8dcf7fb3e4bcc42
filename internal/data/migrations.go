package data

import (
	"context"
	"database/sql"

	"github.com/target/llm-relay/internal/migrate"
)

// RunMigrations executes database migrations for the given dialect by delegating to the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB, dialect migrate.Dialect) error {
	return migrate.Run(ctx, db, dialect)
}
