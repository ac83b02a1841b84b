package httpmiddleware

import (
	"fmt"
	"net/http"
)

// Auth gates a route behind a pre-shared bearer token.
func Auth(token string) func(http.Handler) http.Handler {

	formattedToken := fmt.Sprintf("Bearer %s", token)

	f := func(h http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			reqToken := r.Header.Get("Authorization")

			if reqToken != formattedToken {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			h.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
	return f
}
