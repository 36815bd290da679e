package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
	"time"

	logpkg "github.com/benvon/social-momentum/internal/logger"
	"go.uber.org/zap"
)

// ErrorResponse is the envelope every middleware rejection is written in.
// It matches the handlers' error shape plus the request path.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
}

const panicMessage = "An unexpected error occurred"

// ErrorHandler turns handler panics into a 500 envelope. The panic value and
// stack are logged, never returned.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic_recovered",
					zap.Any("error", rec),
					zap.String("method", r.Method),
					logpkg.Path(r.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)
				writeError(w, r, http.StatusInternalServerError, panicMessage, logger)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes the envelope with the status text as the error field.
// logger may be nil.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
	})
	if err != nil && logger != nil {
		logger.Error("error_response_encode_failed",
			zap.Int("status_code", status),
			logpkg.Path(r.URL.Path),
			logpkg.Error(err),
		)
	}
}
