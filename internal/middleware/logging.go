package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging logs every request with its method, path, status and duration.
// Client errors log at warn and server errors at error so they stand out.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"user_id", GetUserID(r.Context()),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case recorder.status >= 500:
			slog.Error("Request failed", attrs...)
		case recorder.status >= 400:
			slog.Warn("Request rejected", attrs...)
		default:
			slog.Info("Request completed", attrs...)
		}
	})
}
