package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without wrapped error",
			err:  New(KindNotFound, "config not found"),
			want: "NOT_FOUND: config not found",
		},
		{
			name: "with wrapped error",
			err:  Wrap(fmt.Errorf("db error"), KindInternal, "write failed"),
			want: "INTERNAL: write failed: db error",
		},
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
	inner := fmt.Errorf("inner error")
	appErr := Wrap(inner, KindConflict, "msg")

	if !errors.Is(appErr, inner) {
		t.Error("errors.Is should match inner error")
	}
}

func TestAsHelper(t *testing.T) {
	appErr := NotFound("resource not found").WithCode("NOT_FOUND")
	wrapped := fmt.Errorf("wrapped: %w", appErr)

	got, ok := As(wrapped)
	if !ok {
		t.Fatal("As should return true for wrapped AppError")
	}
	if got.Code != "NOT_FOUND" {
		t.Errorf("Code = %q, want NOT_FOUND", got.Code)
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
	}{
		{"NotFound", NotFound("not found"), http.StatusNotFound},
		{"BadRequest", BadRequest("bad request"), http.StatusBadRequest},
		{"Forbidden", Forbidden("forbidden"), http.StatusForbidden},
		{"Conflict", Conflict("conflict"), http.StatusConflict},
		{"TooManyRequests", TooManyRequests("slow down"), http.StatusTooManyRequests},
		{"Internal", Internal(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.HTTPStatus() != tt.wantStatus {
				t.Errorf("HTTPStatus() = %d, want %d", tt.err.HTTPStatus(), tt.wantStatus)
			}
		})
	}
}

func TestApprovalRequiredCode(t *testing.T) {
	err := BadRequest("value change requires a proposal").WithCode(CodeApprovalRequired)
	if err.Code != CodeApprovalRequired {
		t.Errorf("Code = %q, want %q", err.Code, CodeApprovalRequired)
	}
	if err.HTTPStatus() != http.StatusBadRequest {
		t.Errorf("HTTPStatus() = %d, want 400", err.HTTPStatus())
	}
}
