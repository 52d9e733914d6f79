package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/daap14/roster/internal/api/response"
	"github.com/daap14/roster/internal/auth"
)

const identityKey contextKey = "identity"

// rejectFunc writes the response for a request without a valid key.
type rejectFunc func(w http.ResponseWriter, r *http.Request, message string)

// Auth is middleware that checks the X-API-Key header against the auth
// service. Missing or invalid keys return 401.
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return authenticate(authService, func(w http.ResponseWriter, r *http.Request, message string) {
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", message, GetRequestID(r.Context()))
	})
}

// BrowserAuth guards the HTML form posts. Browsers cannot set X-API-Key on
// a form submit, so the key is also read from the HTTP Basic password and a
// 401 carries a Basic challenge to make the browser prompt for it.
func BrowserAuth(authService *auth.Service) func(http.Handler) http.Handler {
	return authenticate(authService, func(w http.ResponseWriter, _ *http.Request, message string) {
		w.Header().Set("WWW-Authenticate", `Basic realm="roster", charset="UTF-8"`)
		http.Error(w, message, http.StatusUnauthorized)
	})
}

func authenticate(authService *auth.Service, reject rejectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			rawKey := apiKey(r)
			if rawKey == "" {
				reject(w, r, "API key is required")
				return
			}

			identity, err := authService.Authenticate(r.Context(), rawKey)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidKey) {
					reject(w, r, "Invalid API key")
					return
				}
				slog.Error("authentication failed", "error", err, "requestId", requestID)
				response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// apiKey returns the X-API-Key header, or the Basic auth password when the
// header is absent. The Basic user name is ignored.
func apiKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if _, password, ok := r.BasicAuth(); ok {
		return password
	}
	return ""
}

// GetIdentity retrieves the authenticated Identity from the request context.
func GetIdentity(ctx context.Context) *auth.Identity {
	if id, ok := ctx.Value(identityKey).(*auth.Identity); ok {
		return id
	}
	return nil
}
