package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/atscore/pkg/logger"
	"github.com/okian/atscore/pkg/metrics"
)

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
// Analyses can take seconds, so durations are recorded with sub-millisecond
// precision.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(start).Microseconds()) / 1000
		status := strconv.Itoa(wrapped.statusCode)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, durationMs)

		if wrapped.statusCode >= http.StatusBadRequest {
			errorType, severity := classifyStatus(wrapped.statusCode)
			metrics.RecordErrorByEndpoint(endpoint, r.Method, errorType)
			metrics.RecordErrorByType(errorType, severity)
			metrics.RecordErrorLatency("http", errorType, durationMs)
		}
	}
}

// RecoverMiddleware turns a handler panic into a 500 response.
func RecoverMiddleware(next http.Handler, log logger.Logger) http.Handler {
	if log == nil {
		log = logger.NamedOrDiscard("api")
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler { //nolint:errorlint // sentinel compared as panic value
					panic(v)
				}
				log.Error(r.Context(), "handler panic",
					logger.String("path", r.URL.Path),
					logger.Any("panic", v))
				metrics.RecordErrorByType("panic", "critical")
				writeError(w, http.StatusInternalServerError, "internal_error", errors.New("internal error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// classifyStatus returns the error type and severity for an error status.
func classifyStatus(statusCode int) (errorType, severity string) {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return "server_error", "high"
	case statusCode == http.StatusTooManyRequests:
		return "rate_limit", "medium"
	case statusCode == http.StatusNotFound:
		return "not_found", "low"
	case statusCode == http.StatusRequestEntityTooLarge, statusCode == http.StatusUnprocessableEntity:
		return "document_error", "medium"
	default:
		return "client_error", "medium"
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
