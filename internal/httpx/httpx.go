package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperr"
	"github.com/go-chi/chi/v5/middleware"
)

// Error is the JSON error envelope returned by the HTTP handlers.
type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]any
}

func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{Code: code, Message: sanitize(message, 512), Status: status}
}

// WithDetails attaches extra JSON fields to the envelope.
func (e Error) WithDetails(details map[string]any) Error {
	if len(details) == 0 {
		return e
	}
	e.Details = make(map[string]any, len(details))
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// FromError maps the application error taxonomy onto HTTP statuses.
func FromError(err error) Error {
	var partial *apperr.PartialBatchError
	var status *apperr.StatusError
	switch {
	case errors.As(err, &partial):
		return NewError("partial_failure", err.Error(), http.StatusMultiStatus).WithDetails(map[string]any{
			"succeeded": partial.Succeeded,
			"failed":    partial.FailedIDs(),
		})
	case errors.Is(err, apperr.ErrInvalidArgument):
		return NewError("invalid_request", err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperr.ErrNotFound):
		return NewError("not_found", err.Error(), http.StatusNotFound)
	case errors.Is(err, apperr.ErrRequestTimeout):
		return NewError("request_timeout", err.Error(), http.StatusGatewayTimeout)
	case errors.Is(err, apperr.ErrCatalogFetchFailed), errors.As(err, &status):
		return NewError("upstream_failure", err.Error(), http.StatusBadGateway)
	default:
		var mutation *apperr.MutationError
		if errors.As(err, &mutation) {
			return NewError("mutation_failed", err.Error(), http.StatusBadGateway)
		}
		return NewError("internal", "internal error", http.StatusInternalServerError)
	}
}

func WriteError(ctx context.Context, w http.ResponseWriter, e Error) {
	payload := map[string]any{
		"error":   e.Code,
		"message": e.Message,
		"status":  e.Status,
	}
	if id := middleware.GetReqID(ctx); id != "" {
		payload["request_id"] = id
	}
	for k, v := range e.Details {
		payload[k] = v
	}
	WriteJSON(w, e.Status, payload)
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// DecodeJSON reads a JSON body capped at limit bytes.
func DecodeJSON(w http.ResponseWriter, r *http.Request, limit int64, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return errors.Join(apperr.ErrInvalidArgument, err)
	}
	return nil
}

func sanitize(value string, limit int) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
