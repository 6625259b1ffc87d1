package httpserver

import (
	"net/http"

	"tempdash/backend/services/dashboard-service/internal/http/handlers"
	"tempdash/backend/services/dashboard-service/internal/http/middleware"
)

// Routes collects handler dependencies. Nil handlers are not registered.
type Routes struct {
	Health    http.HandlerFunc
	Login     http.HandlerFunc
	Sync      *handlers.SyncHandlers
	Dashboard *handlers.DashboardHandlers
	SyncFeed  http.HandlerFunc
}

// NewRouter wires HTTP routes. authMiddleware guards mutating endpoints and may be nil.
func NewRouter(routes Routes, authMiddleware func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	if routes.Login != nil {
		mux.Handle("/api/auth/login", method(http.MethodPost, routes.Login))
	}

	if routes.Sync != nil {
		trigger := http.Handler(http.HandlerFunc(routes.Sync.Trigger))
		if authMiddleware != nil {
			trigger = middleware.Chain(trigger, authMiddleware)
		}
		mux.Handle("/api/sync", method(http.MethodPost, trigger))
		mux.Handle("/api/sync/last", method(http.MethodGet, http.HandlerFunc(routes.Sync.Last)))
	}

	if routes.Dashboard != nil {
		memo := func(h http.HandlerFunc) http.Handler {
			return middleware.Chain(h, middleware.RequestMemo)
		}
		mux.Handle("/api/dashboard", method(http.MethodGet, memo(routes.Dashboard.Dashboard)))
		mux.Handle("/api/views/", method(http.MethodGet, memo(routes.Dashboard.View)))
	}

	if routes.SyncFeed != nil {
		mux.Handle("/ws/sync", method(http.MethodGet, routes.SyncFeed))
	}

	return mux
}

func method(expected string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
