package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Dialect selects which embedded migration set to apply.
type Dialect string

const (
	// DialectPostgres applies migrations/postgres.
	DialectPostgres Dialect = "postgres"
	// DialectSQLite applies migrations/sqlite.
	DialectSQLite Dialect = "sqlite"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// dialectSQL holds the statements that differ between dialects.
type dialectSQL struct {
	createTable string
	exists      string
	insert      string
}

var dialects = map[Dialect]dialectSQL{
	DialectPostgres: {
		createTable: `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		exists: `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`,
		insert: `INSERT INTO schema_migrations (version) VALUES ($1)`,
	},
	DialectSQLite: {
		createTable: `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		exists: `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)`,
		insert: `INSERT INTO schema_migrations (version) VALUES (?)`,
	},
}

// Run applies all SQL migrations embedded for the dialect. It is safe to call multiple times.
func Run(ctx context.Context, db *sql.DB, dialect Dialect) error {
	stmts, ok := dialects[dialect]
	if !ok {
		return fmt.Errorf("unsupported migration dialect %q", dialect)
	}

	if _, err := db.ExecContext(ctx, stmts.createTable); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	dir := "migrations/" + string(dialect)
	entries, err := migrationsFS.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		info := migrationInfo{
			versionStr: strings.TrimSuffix(f, ".sql"),
			path:       dir + "/" + f,
		}
		if applyErr := applyMigration(ctx, db, stmts, info); applyErr != nil {
			return applyErr
		}
	}
	return nil
}

// migrationInfo holds information about a migration for processing.
type migrationInfo struct {
	versionStr string
	path       string
}

func migrationExists(ctx context.Context, db *sql.DB, stmts dialectSQL, info migrationInfo) (bool, error) {
	var exists bool
	if err := db.QueryRowContext(ctx, stmts.exists, info.versionStr).Scan(&exists); err != nil {
		return false, fmt.Errorf("check migration %s: %w", info.path, err)
	}
	return exists, nil
}

func applyMigration(ctx context.Context, db *sql.DB, stmts dialectSQL, info migrationInfo) error {
	exists, err := migrationExists(ctx, db, stmts, info)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	sqlBytes, err := migrationsFS.ReadFile(info.path)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", info.path, err)
	}

	logger := slog.Default().With("component", "migrations")
	logger.InfoContext(ctx, "applying migration", "version", info.versionStr)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			logger.ErrorContext(ctx, "failed to rollback transaction", "err", rollbackErr, "migration_file", info.path)
		}
	}()

	if _, execErr := tx.ExecContext(ctx, string(sqlBytes)); execErr != nil {
		return fmt.Errorf("exec migration %s: %w", info.path, execErr)
	}
	if _, insertErr := tx.ExecContext(ctx, stmts.insert, info.versionStr); insertErr != nil {
		return fmt.Errorf("record migration %s: %w", info.path, insertErr)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("commit migration %s: %w", info.path, commitErr)
	}

	return nil
}
