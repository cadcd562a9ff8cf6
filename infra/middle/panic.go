package middle

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/mstgnz/donate/infra/logger"
	"github.com/mstgnz/donate/infra/response"
)

// PanicRecoveryMiddleware handles panics and converts them to HTTP 500 errors
func PanicRecoveryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					stack := debug.Stack()

					requestID := r.Header.Get("X-Request-ID")
					if requestID == "" {
						requestID = "unknown"
					}

					// Safe logging to standard logger (fallback)
					log.Printf("PANIC RECOVERED: %v | Method: %s | URL: %s | Request ID: %s | Time: %s",
						err, r.Method, r.URL.String(), requestID, time.Now().UTC().Format(time.RFC3339))
					log.Printf("PANIC STACK TRACE: %s", string(stack))

					logger.Error("Panic recovered", fmt.Errorf("%v", err), logger.LogContext{
						RequestID: requestID,
						Fields: map[string]any{
							"method": r.Method,
							"url":    r.URL.String(),
							"stack":  string(stack),
						},
					})

					w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
					w.Header().Set("Pragma", "no-cache")
					w.Header().Set("Expires", "0")

					response.DonorError(w, http.StatusInternalServerError, "An unexpected error occurred")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
