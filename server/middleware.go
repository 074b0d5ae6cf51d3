package server

import (
	"log/slog"
	"net/http"
	"time"
)

func (h *Handle) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		h.l.LogAttrs(r.Context(), slog.LevelInfo, "",
			slog.Group("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("duration", time.Since(start)),
			),
		)
	})
}

// WithAuth gates a route on a valid session. Page loads bounce to the
// login form; mutations fail with 401.
func (h *Handle) WithAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.auth.Authorized(r) {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodGet {
			http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
			return
		}

		writeError(w, "authentication required", http.StatusUnauthorized)
	})
}
