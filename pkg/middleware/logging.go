package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/localpulse/localpulse-engine/pkg/logging"
)

// probePaths are polled by load balancers and the metrics scraper; they log
// at DEBUG so refresh and mutation traffic stays readable.
var probePaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/ping":    true,
	"/metrics": true,
}

// RequestLogger returns middleware that logs each request with its outcome:
// server errors at ERROR, client errors at WARN, everything else at INFO.
// Pass nil logger to disable logging entirely.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.statusCode),
				zap.Int("bytes", wrapped.bytes),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			}
			// Query strings can carry credentials.
			if q := r.URL.RawQuery; q != "" {
				fields = append(fields, zap.String("query", logging.SanitizeStatusMessage(q)))
			}

			switch {
			case wrapped.statusCode >= http.StatusInternalServerError:
				logger.Error("HTTP request", fields...)
			case wrapped.statusCode >= http.StatusBadRequest:
				logger.Warn("HTTP request", fields...)
			case probePaths[r.URL.Path]:
				logger.Debug("HTTP request", fields...)
			default:
				logger.Info("HTTP request", fields...)
			}
		})
	}
}

// responseWriter records the status code and byte count a handler produced.
// Duplicate WriteHeader calls are dropped.
type responseWriter struct {
	http.ResponseWriter
	statusCode    int
	bytes         int
	headerWritten bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.headerWritten {
		return
	}
	rw.statusCode = code
	rw.headerWritten = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.headerWritten {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}
