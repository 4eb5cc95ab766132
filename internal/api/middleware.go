// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/abiahub/abiahub-gateway/internal/log"
)

// RequestID assigns a request id, stores it in the context and echoes it back
// in the X-Request-Id header for correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(log.ContextWithRequestID(r.Context(), id)))
	})
}

// Recoverer is the outermost safety net: a panic becomes a logged 500
// instead of a dropped connection. The USSD handler installs its own
// recovery first so the webhook always receives a well-formed body.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				logger := log.WithComponentFromContext(r.Context(), "api")
				logger.Error().
					Interface("panic", p).
					Str("path", r.URL.Path).
					Msg("panic recovered in handler")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
