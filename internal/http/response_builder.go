// Package http serves the FreelanceFlow JSON API.
//
// This file implements the Builder Pattern for JSON responses and the
// mapping from service errors to status codes.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"freelanceflow/internal/auth"
	"freelanceflow/internal/export"
	"freelanceflow/internal/log"
	"freelanceflow/internal/payment"
	"freelanceflow/internal/services"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response. A nil body writes no content.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// BadGatewayError hides collaborator failures behind a generic message.
func BadGatewayError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadGateway, "upstream service unavailable, please try again later")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}

// errorStatus maps a service error to a status code and a client-safe
// message. Unknown errors map to 500.
func errorStatus(err error) (int, string) {
	switch {
	case services.IsValidation(err),
		errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, services.ErrNotFound), errors.Is(err, export.ErrNoPlan):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrTierLimit), errors.Is(err, services.ErrPlanLocked):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, auth.ErrEmailTaken), errors.Is(err, services.ErrAlreadyApplied):
		return http.StatusConflict, err.Error()
	case errors.Is(err, errBadJSON), errors.Is(err, payment.ErrInvalidSignature):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, payment.ErrDisabled),
		errors.Is(err, services.ErrAdvisorDisabled),
		errors.Is(err, export.ErrSheetsDisabled):
		return http.StatusServiceUnavailable, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

// writeError logs err and writes the mapped response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldPath, r.URL.Path, log.FieldError, err)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", log.FieldPath, r.URL.Path, log.FieldStatusCode, status, log.FieldError, err)
	}
	ErrorResponse(status, msg).Write(w)
}

// writeCollaboratorError is writeError for calls that reach an external
// service: failures not caused by the caller become a generic 502.
func writeCollaboratorError(w http.ResponseWriter, r *http.Request, err error) {
	if status, _ := errorStatus(err); status != http.StatusInternalServerError {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Collaborator failed", log.FieldPath, r.URL.Path, log.FieldError, err)
	BadGatewayError().Write(w)
}
