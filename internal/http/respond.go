package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/inkdesk/storefront/internal/circuitbreaker"
	"github.com/inkdesk/storefront/internal/logger"
	"github.com/inkdesk/storefront/internal/media"
	"github.com/inkdesk/storefront/internal/service"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Error   string `json:"error,omitempty"`
}

// Responder writes JSON bodies and maps service errors onto HTTP statuses.
// The underlying error text is only exposed in development.
type Responder struct {
	dev bool
	log zerolog.Logger
}

func NewResponder(dev bool, log zerolog.Logger) *Responder {
	return &Responder{dev: dev, log: log}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondOK writes {"success": true} merged with fields.
func respondOK(w http.ResponseWriter, status int, fields map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	respondJSON(w, status, body)
}

func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classify(err)

	resp := ErrorResponse{Success: false, Message: message, Code: code}
	if rs.dev {
		resp.Error = err.Error()
	}

	l := logger.FromContext(r.Context(), rs.log)
	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	} else {
		l.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	respondJSON(w, status, resp)
}

func classify(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "validation_error", err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, service.ErrConflict):
		return http.StatusBadRequest, "conflict", err.Error()
	case errors.Is(err, service.ErrInsufficientStock):
		return http.StatusBadRequest, "insufficient_stock", err.Error()
	case errors.Is(err, service.ErrInvalidState):
		return http.StatusBadRequest, "invalid_state", err.Error()
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", err.Error()
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden", err.Error()
	case errors.Is(err, circuitbreaker.ErrOpen), errors.Is(err, media.ErrNotConfigured):
		return http.StatusServiceUnavailable, "service_unavailable", "an upstream service is unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout", "the request timed out"
	}
	return http.StatusInternalServerError, "internal_error", "internal server error"
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return badRequest("invalid JSON body")
	}
	return nil
}

func badRequest(message string) error {
	return &requestError{message: message}
}

// requestError is a malformed request detected before reaching a service.
type requestError struct {
	message string
}

func (e *requestError) Error() string { return e.message }

func (e *requestError) Unwrap() error { return service.ErrValidation }

func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, name)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, badRequest("invalid " + name)
	}
	return id, nil
}
