package middle

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mstgnz/qualpay/infra/logger"
)

// statusWriter wraps http.ResponseWriter to capture the response status
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// RequestLoggingMiddleware assigns each request an id and logs method,
// path, status and latency once the request completes.
func RequestLoggingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set("X-Request-ID", requestID)

			sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(sw, r)

			logger.Info("http request", logger.LogContext{
				RequestID: requestID,
				Fields: map[string]any{
					"method":      r.Method,
					"path":        r.URL.Path,
					"status":      sw.statusCode,
					"duration_ms": time.Since(start).Milliseconds(),
					"client_ip":   GetClientIP(r),
				},
			})
		})
	}
}
