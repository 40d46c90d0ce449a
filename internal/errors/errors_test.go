package errors

import (
	"context"
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
		{
			name: "error without cause",
			err:  &AppError{Code: ErrCodeNotFound, Message: "resource not found"},
			want: "resource not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeInternal,
				Message: "failed to process",
				Cause:   errors.New("underlying error"),
			},
			want: "failed to process: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &AppError{Code: ErrCodeInternal, Message: "wrapped error", Cause: cause}

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is should see through AppError")
	}
}

func TestValidation(t *testing.T) {
	err := Validation("bad input")
	if err.Code != ErrCodeValidation || err.Message != "bad input" || err.Cause != nil {
		t.Errorf("Validation() = %+v", err)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(cause, ErrCodeUnavailable, "db down")

	if err.Code != ErrCodeUnavailable || err.Message != "db down" {
		t.Errorf("Wrap() = %+v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Wrap().Cause = %v, want %v", err.Cause, cause)
	}
	if Wrap(nil, ErrCodeInternal, "x") != nil {
		t.Error("Wrap(nil) should be nil")
	}
}

func TestPredicates(t *testing.T) {
	wrapped := func(e error) error { return fmt.Errorf("outer: %w", e) }

	checks := []struct {
		name string
		is   func(error) bool
		code ErrorCode
	}{
		{name: "not found", is: IsNotFound, code: ErrCodeNotFound},
		{name: "conflict", is: IsConflict, code: ErrCodeConflict},
		{name: "validation", is: IsValidation, code: ErrCodeValidation},
		{name: "unavailable", is: IsUnavailable, code: ErrCodeUnavailable},
		{name: "timeout", is: IsTimeout, code: ErrCodeTimeout},
		{name: "canceled", is: IsCanceled, code: ErrCodeCanceled},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			err := &AppError{Code: c.code, Message: "m"}
			if !c.is(err) || !c.is(wrapped(err)) {
				t.Errorf("predicate should match code %s", c.code)
			}
			if c.is(errors.New("plain")) || c.is(nil) {
				t.Errorf("predicate should not match non-AppError")
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(MapDBError(context.Canceled)); got != ErrCodeCanceled {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeCanceled)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
}
