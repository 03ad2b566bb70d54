package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/theblitlabs/parity-stake/internal/session"
)

// SessionResolver turns a session cookie value into a Session.
type SessionResolver interface {
	Resolve(token string) (session.Session, error)
}

// Session attaches the caller's session to the request context. Requests
// without a valid cookie proceed as disconnected.
func Session(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sess session.Session
			if cookie, err := r.Cookie(session.CookieName); err == nil && cookie.Value != "" {
				if resolved, err := resolver.Resolve(cookie.Value); err == nil {
					sess = resolved
				}
			}
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}

// RequireSession rejects disconnected callers with 401.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).Connected() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "wallet not connected"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
