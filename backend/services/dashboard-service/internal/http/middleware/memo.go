package middleware

import (
	"net/http"

	"tempdash/backend/services/dashboard-service/internal/cache"
)

// RequestMemo attaches a per-request view memo.
func RequestMemo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(cache.WithRequestMemo(r.Context())))
	})
}
