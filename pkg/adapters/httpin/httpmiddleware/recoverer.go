package httpmiddleware

import (
	"log/slog"
	"net/http"
)

type recovererMiddleware struct {
	l    *slog.Logger
	next http.Handler
}

// NewRecoverer turns a panicking handler into a 500 instead of a dead
// connection. http.ErrAbortHandler is re-thrown by design of net/http, so it
// passes through untouched.
func NewRecoverer(l *slog.Logger) func(next http.Handler) http.Handler {
	recoverer := &recovererMiddleware{
		l: l,
	}

	return func(next http.Handler) http.Handler {
		recoverer.next = next
		return recoverer
	}
}

func (midd *recovererMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rvr := recover(); rvr != nil && rvr != http.ErrAbortHandler {
			midd.l.Error("captured panic on HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"error", rvr)
			w.WriteHeader(http.StatusInternalServerError)
		}
	}()

	midd.next.ServeHTTP(w, r)
}
