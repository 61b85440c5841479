package daemon

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireAuth wraps next with bearer-token validation. An empty token
// disables authentication entirely. The comparison is constant-time so
// response latency reveals nothing about the configured token.
func (s *apiServer) requireAuth(token string, next http.HandlerFunc) http.HandlerFunc {
	if token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}
