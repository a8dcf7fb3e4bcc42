package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{name: "message only", err: NotFound("job not found"), want: "job not found"},
		{name: "with cause", err: Wrap(errors.New("boom"), ErrCodeInternal, "store failed"), want: "store failed: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root")
	err := Wrap(cause, ErrCodeConflict, "dup")
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the cause")
	}
}

func TestWrap_NilError(t *testing.T) {
	if err := Wrap(nil, ErrCodeInternal, "x"); err != nil {
		t.Fatalf("Wrap(nil) = %v, want nil", err)
	}
}

func TestPredicates(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Conflict("dup"))

	if !IsConflict(wrapped) {
		t.Error("IsConflict should see through wrapping")
	}
	if IsNotFound(wrapped) {
		t.Error("IsNotFound should be false for a conflict")
	}
	if !IsValidation(Validationf("field %s", "x")) {
		t.Error("IsValidation should be true")
	}
	if !IsTimeout(&AppError{Code: ErrCodeTimeout}) || !IsCanceled(&AppError{Code: ErrCodeCanceled}) {
		t.Error("timeout/canceled predicates should match")
	}
	if GetCode(errors.New("plain")) != "" {
		t.Error("GetCode should be empty for non-AppError")
	}
	if GetCode(Internal("x")) != ErrCodeInternal {
		t.Error("GetCode should return internal")
	}
}
