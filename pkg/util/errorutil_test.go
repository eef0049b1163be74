package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestToDomainError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"domain error passes through", NewInvalidTransition("nope", nil), CodeInvalidTransition, http.StatusConflict},
		{"wrapped domain error", fmt.Errorf("ctx: %w", NewInvalidRole("role", nil)), CodeInvalidRole, http.StatusForbidden},
		{"no rows becomes not found", fmt.Errorf("query: %w", pgx.ErrNoRows), CodeNotFound, http.StatusNotFound},
		{"anything else is internal", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToDomainError(tc.err)
			if got.Code != tc.code {
				t.Fatalf("code = %s, want %s", got.Code, tc.code)
			}
			if got.HTTPStatus != tc.status {
				t.Fatalf("status = %d, want %d", got.HTTPStatus, tc.status)
			}
		})
	}
	if ToDomainError(nil) != nil {
		t.Fatalf("nil error should map to nil")
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewNotFound("ticket", map[string]any{"ticket_id": "t1"}))
	if !IsCode(err, CodeNotFound) {
		t.Fatalf("expected NOT_FOUND")
	}
	if IsCode(err, CodeInvalidRole) {
		t.Fatalf("did not expect INVALID_ROLE")
	}
	if IsCode(errors.New("plain"), CodeNotFound) {
		t.Fatalf("plain errors carry no code")
	}
}
