package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"roster/internal/application/syncstore"
	"roster/internal/domain/apperr"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", apperr.Errorf(apperr.NotFound, "op", "x"), http.StatusNotFound},
		{"unauthorized", apperr.Errorf(apperr.Unauthorized, "op", "x"), http.StatusForbidden},
		{"validation", apperr.Errorf(apperr.ValidationFailed, "op", "x"), http.StatusUnprocessableEntity},
		{"collision", apperr.Errorf(apperr.Collision, "op", "x"), http.StatusConflict},
		{"transport", apperr.Errorf(apperr.TransportFailure, "op", "x"), http.StatusServiceUnavailable},
		{"wrapped kind", fmt.Errorf("outer: %w", apperr.Errorf(apperr.NotFound, "op", "x")), http.StatusNotFound},
		{"deadline", fmt.Errorf("attach: %w", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestWriteError_Bodies verifies what leaks to clients.
func TestWriteError_Bodies(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, apperr.E(apperr.NotFound, "read_team", errors.New("team t1 is private")))
	if body := decode[errorBody](t, rec); body.Error != "not_found" || body.Message != "not found" {
		t.Errorf("not found body = %+v", body)
	}

	rec = httptest.NewRecorder()
	writeError(rec, apperr.E(apperr.TransportFailure, "list_lineups", errors.New("disk I/O error at /var/db")))
	if body := decode[errorBody](t, rec); body.Message != "temporarily unavailable, try again" {
		t.Errorf("transport body leaks cause: %+v", body)
	}

	rec = httptest.NewRecorder()
	writeError(rec, errors.New("nil map write"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode[errorBody](t, rec); body.Message != "internal server error" {
		t.Errorf("internal body = %+v", body)
	}
}

func TestWriteError_BulkReportsApplied(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &syncstore.BulkError{Applied: 3, Err: apperr.Errorf(apperr.TransportFailure, "add_lineups", "write 4 failed")})
	expectStatus(t, rec, http.StatusServiceUnavailable)
	body := decode[errorBody](t, rec)
	if body.Applied == nil || *body.Applied != 3 {
		t.Errorf("applied = %v, want 3", body.Applied)
	}
}
