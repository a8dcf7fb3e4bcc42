package data

import (
	"errors"
	"fmt"

	apperrors "github.com/target/llm-relay/internal/errors"
	"github.com/target/llm-relay/internal/domain/model"
)

// ErrDBRequired is returned when a SQL-backed repository is built without a *sql.DB.
var ErrDBRequired = errors.New("database handle is required")

// mapJobError translates driver errors into the job store's sentinel errors.
func mapJobError(op string, err error) error {
	if err == nil {
		return nil
	}
	mapped := apperrors.MapDBError(err)
	switch {
	case apperrors.IsNotFound(mapped):
		return model.ErrJobNotFound
	case apperrors.IsConflict(mapped):
		return fmt.Errorf("%s: %w", op, model.ErrDuplicateJobID)
	default:
		return fmt.Errorf("%s: %w", op, mapped)
	}
}
