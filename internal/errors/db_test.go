package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  ErrorCode
		wantField string
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: fmt.Errorf("query: %w", context.Canceled), wantCode: ErrCodeCanceled},
		{name: "pgx no rows", err: pgx.ErrNoRows, wantCode: ErrCodeNotFound},
		{name: "sql no rows", err: fmt.Errorf("scan: %w", sql.ErrNoRows), wantCode: ErrCodeNotFound},
		{
			name:      "pg unique violation with column",
			err:       &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "id"},
			wantCode:  ErrCodeConflict,
			wantField: "id",
		},
		{
			name:      "pg unique violation from detail",
			err:       &pgconn.PgError{Code: pgerrcode.UniqueViolation, Detail: "Key (id)=(job_1) already exists."},
			wantCode:  ErrCodeConflict,
			wantField: "id",
		},
		{
			name:     "pg check violation",
			err:      &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "jobs_status_check"},
			wantCode: ErrCodeValidation,
		},
		{
			name:      "pg not null violation",
			err:       &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "payload"},
			wantCode:  ErrCodeValidation,
			wantField: "payload",
		},
		{name: "pg unknown code", err: &pgconn.PgError{Code: "XX000"}, wantCode: ErrCodeInternal},
		{
			name:     "sqlite primary key",
			err:      sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey},
			wantCode: ErrCodeConflict,
		},
		{
			name:     "sqlite check",
			err:      sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintCheck},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "sqlite busy",
			err:      sqlite3.Error{Code: sqlite3.ErrBusy},
			wantCode: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if got := GetCode(err); got != tt.wantCode {
				t.Fatalf("MapDBError() code = %v, want %v", got, tt.wantCode)
			}
			var appErr *AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected *AppError, got %T", err)
			}
			if appErr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", appErr.Field, tt.wantField)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("expected cause to be preserved")
			}
		})
	}
}

func TestMapDBError_StandardError(t *testing.T) {
	orig := errors.New("some random error")
	if err := MapDBError(orig); err != orig {
		t.Errorf("MapDBError() should return original error, got %v", err)
	}
}
