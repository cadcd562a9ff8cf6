package middle

import (
	"net/http"
	"strings"

	"github.com/mstgnz/donate/infra/response"
)

// SecurityHeadersMiddleware adds security headers to responses
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// RequestValidationMiddleware validates common request properties
func RequestValidationMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == "POST" || r.Method == "PUT" || r.Method == "PATCH" {
				contentType := r.Header.Get("Content-Type")

				// Provider return legs post whatever the provider sends.
				isConfirmEndpoint := strings.Contains(r.URL.Path, "/confirm/")

				if !isConfirmEndpoint && contentType != "" {
					if !strings.Contains(contentType, "application/json") &&
						!strings.Contains(contentType, "application/x-www-form-urlencoded") {
						response.DonorError(w, http.StatusUnsupportedMediaType, "Unsupported content type")
						return
					}
				}
			}

			// Check request size (max 1MB)
			if r.ContentLength > 1024*1024 {
				response.DonorError(w, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
