package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/askdeck/askdeck/internal/services"
)

// NewAuthMiddleware resolves the request's credential into a Scope and
// stores it in the request context. A bearer token or an X-API-Key
// header is accepted; both missing or invalid yields 401 with no hint
// about which check failed.
func NewAuthMiddleware(access *services.AccessService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := extractCredential(r)
			scope, err := access.ResolveCredential(r.Context(), credential)
			if err != nil {
				log.Printf("[AuthMiddleware] Rejected %s %s: %v", r.Method, r.URL.Path, err)
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), ScopeKey, scope)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePrimary gates management routes to JWT-authenticated callers.
// API keys never reach store, prompt or key administration.
func RequirePrimary(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := ScopeFromContext(r.Context())
		if scope == nil || !scope.Primary {
			log.Printf("[AuthMiddleware] Non-primary credential blocked from %s", r.URL.Path)
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ScopeFromContext returns the scope placed by NewAuthMiddleware, or
// nil when the route skipped authentication.
func ScopeFromContext(ctx context.Context) *services.Scope {
	scope, _ := ctx.Value(ScopeKey).(*services.Scope)
	return scope
}

func extractCredential(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
