package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"roster/internal/application/syncstore"
	"roster/internal/domain/apperr"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every non-2xx API response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Applied *int   `json:"applied,omitempty"` // bulk writes only
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err.Error())
	}
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal server error"})
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Unauthorized:
		return http.StatusForbidden
	case apperr.ValidationFailed:
		return http.StatusUnprocessableEntity
	case apperr.Collision:
		return http.StatusConflict
	case apperr.TransportFailure:
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError renders err. NotFound and transport failures carry a fixed
// message so a private team reads exactly like a missing one and storage
// details stay in the log.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := errorBody{Error: string(apperr.KindOf(err)), Message: err.Error()}
	switch status {
	case http.StatusInternalServerError:
		internalError(w, err)
		return
	case http.StatusNotFound:
		body.Message = "not found"
	case http.StatusServiceUnavailable:
		slog.Warn("request_unavailable", "error", err.Error())
		body.Error = string(apperr.TransportFailure)
		body.Message = "temporarily unavailable, try again"
	}
	var bulk *syncstore.BulkError
	if errors.As(err, &bulk) {
		applied := bulk.Applied
		body.Applied = &applied
	}
	writeJSON(w, status, body)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: msg})
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// handleCSRFToken hands browser clients the token for form posts.
func handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	token := csrf.Token(r)
	w.Header().Set("X-CSRF-Token", token)
	writeJSON(w, http.StatusOK, map[string]string{"token": token, "field": "gorilla.csrf.Token"})
}
