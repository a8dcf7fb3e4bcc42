package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/target/llm-relay/internal/data/pgxutil"
	"github.com/target/llm-relay/internal/domain/model"
)

// RepoConfig holds configuration options for the SQL job repositories.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

func (c RepoConfig) resolve() (TimeProvider, *slog.Logger) {
	tp := c.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return tp, logger
}

const jobColumns = `id, submission_id, webhook_url, status, payload, result, created_at, updated_at`

// PostgresJobRepo stores jobs in PostgreSQL through the pgx stdlib bridge.
type PostgresJobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewPostgresJobRepo creates a new PostgresJobRepo with the given database connection and configuration.
func NewPostgresJobRepo(db *sql.DB, cfg RepoConfig) (*PostgresJobRepo, error) {
	if db == nil {
		return nil, ErrDBRequired
	}
	tp, logger := cfg.resolve()
	return &PostgresJobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       logger.With("component", "job_repo", "driver", "postgres"),
	}, nil
}

// pgJobRow mirrors the jobs table for pgx.RowToStructByName.
type pgJobRow struct {
	ID           string    `db:"id"`
	SubmissionID string    `db:"submission_id"`
	WebhookURL   string    `db:"webhook_url"`
	Status       string    `db:"status"`
	Payload      []byte    `db:"payload"`
	Result       []byte    `db:"result"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r pgJobRow) toModel() *model.Job {
	return &model.Job{
		ID:           r.ID,
		SubmissionID: r.SubmissionID,
		WebhookURL:   r.WebhookURL,
		Status:       model.JobStatus(r.Status),
		Payload:      cloneJSON(r.Payload),
		Result:       cloneNullableJSON(r.Result),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

// queryOne runs a single-row statement on a pgx connection and collects the job.
func (r *PostgresJobRepo) queryOne(ctx context.Context, query string, args ...any) (*model.Job, error) {
	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[pgJobRow])
		if err != nil {
			return err
		}
		job = row.toModel()
		return nil
	})
	return job, err
}

// Create inserts a queued job with a null result.
func (r *PostgresJobRepo) Create(ctx context.Context, params model.CreateJobParams) (*model.Job, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	now := r.timeProvider.Now().UTC()

	job, err := r.queryOne(ctx, `
      INSERT INTO jobs (id, submission_id, webhook_url, status, payload, result, created_at, updated_at)
      VALUES ($1, $2, $3, 'queued', $4, NULL, $5, $5)
      RETURNING `+jobColumns,
		params.ID, params.SubmissionID, params.WebhookURL, []byte(params.Payload), now,
	)
	if err != nil {
		return nil, mapJobError("insert job", err)
	}
	r.logger.DebugContext(ctx, "job created", "job_id", job.ID, "submission_id", job.SubmissionID)
	return job, nil
}

// UpdateStatus applies a terminal status and result in a single UPDATE ... RETURNING.
func (r *PostgresJobRepo) UpdateStatus(
	ctx context.Context,
	id string,
	status model.JobStatus,
	result json.RawMessage,
) (*model.Job, error) {
	if err := model.ValidateTransition(status, result); err != nil {
		return nil, err
	}

	job, err := r.queryOne(ctx, `
      UPDATE jobs
      SET status = $2, result = $3, updated_at = $4
      WHERE id = $1
      RETURNING `+jobColumns,
		id, string(status), []byte(result), r.timeProvider.Now().UTC(),
	)
	if err != nil {
		return nil, mapJobError("update job status", err)
	}
	return job, nil
}

// GetByID returns the job or model.ErrJobNotFound.
func (r *PostgresJobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	job, err := r.queryOne(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	if err != nil {
		return nil, mapJobError("get job", err)
	}
	return job, nil
}

// SQLiteJobRepo stores jobs in SQLite via mattn/go-sqlite3.
type SQLiteJobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewSQLiteJobRepo creates a new SQLiteJobRepo with the given database connection and configuration.
func NewSQLiteJobRepo(db *sql.DB, cfg RepoConfig) (*SQLiteJobRepo, error) {
	if db == nil {
		return nil, ErrDBRequired
	}
	tp, logger := cfg.resolve()
	return &SQLiteJobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       logger.With("component", "job_repo", "driver", "sqlite"),
	}, nil
}

type jobRowScanner interface {
	Scan(dest ...any) error
}

type sqliteJobRow struct {
	status               string
	payload, result      []byte
	createdAt, updatedAt string
}

func scanSQLiteJob(scanner jobRowScanner) (*model.Job, error) {
	job := &model.Job{}
	var row sqliteJobRow
	if err := scanner.Scan(
		&job.ID,
		&job.SubmissionID,
		&job.WebhookURL,
		&row.status,
		&row.payload,
		&row.result,
		&row.createdAt,
		&row.updatedAt,
	); err != nil {
		return nil, err
	}

	created, err := parseDBTime(row.createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	updated, err := parseDBTime(row.updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	job.Status = model.JobStatus(row.status)
	job.Payload = cloneJSON(row.payload)
	job.Result = cloneNullableJSON(row.result)
	job.CreatedAt = created
	job.UpdatedAt = updated
	return job, nil
}

// Create inserts a queued job with a null result.
func (r *SQLiteJobRepo) Create(ctx context.Context, params model.CreateJobParams) (*model.Job, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	now := formatDBTime(r.timeProvider.Now())

	row := r.DB.QueryRowContext(ctx, `
      INSERT INTO jobs (id, submission_id, webhook_url, status, payload, result, created_at, updated_at)
      VALUES (?, ?, ?, 'queued', ?, NULL, ?, ?)
      RETURNING `+jobColumns,
		params.ID, params.SubmissionID, params.WebhookURL, string(params.Payload), now, now,
	)
	job, err := scanSQLiteJob(row)
	if err != nil {
		return nil, mapJobError("insert job", err)
	}
	r.logger.DebugContext(ctx, "job created", "job_id", job.ID, "submission_id", job.SubmissionID)
	return job, nil
}

// UpdateStatus applies a terminal status and result in a single UPDATE ... RETURNING.
func (r *SQLiteJobRepo) UpdateStatus(
	ctx context.Context,
	id string,
	status model.JobStatus,
	result json.RawMessage,
) (*model.Job, error) {
	if err := model.ValidateTransition(status, result); err != nil {
		return nil, err
	}

	row := r.DB.QueryRowContext(ctx, `
      UPDATE jobs
      SET status = ?, result = ?, updated_at = ?
      WHERE id = ?
      RETURNING `+jobColumns,
		string(status), string(result), formatDBTime(r.timeProvider.Now()), id,
	)
	job, err := scanSQLiteJob(row)
	if err != nil {
		return nil, mapJobError("update job status", err)
	}
	return job, nil
}

// GetByID returns the job or model.ErrJobNotFound.
func (r *SQLiteJobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanSQLiteJob(row)
	if err != nil {
		return nil, mapJobError("get job", err)
	}
	return job, nil
}

func cloneJSON(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	return append(json.RawMessage(nil), raw...)
}

func cloneNullableJSON(raw []byte) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}
