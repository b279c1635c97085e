// Package trace stamps every request with an id and logs its outcome.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"freelanceflow/internal/log"
)

type ContextKey string

const (
	RequestIDKey    ContextKey = "request_id"
	RequestIDHeader            = "X-Request-ID"
)

type Middleware struct {
	logger    *log.Logger
	extractIP func(*http.Request) string
	total     atomic.Int64
}

func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string) *Middleware {
	if logger == nil {
		logger = log.Discard()
	}
	return &Middleware{logger: logger.WithComponent(log.ComponentTrace), extractIP: extractIP}
}

// Middleware stores the request id and a request-scoped logger in the
// context, echoes the id in the response and logs completion.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	access := log.NewStructuredLogger(m.logger)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = GenerateRequestID()
		}
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = log.NewContext(ctx, m.logger.With(log.FieldRequestID, requestID))
		r = r.WithContext(ctx)
		w.Header().Set(RequestIDHeader, requestID)

		m.total.Add(1)
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		access.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// Total returns how many requests went through the middleware.
func (m *Middleware) Total() int64 { return m.total.Load() }

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func GenerateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
