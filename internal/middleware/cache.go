package middleware

import (
	"net/http"
	"strconv"
)

// StaticCache returns middleware that sets a Cache-Control header with the
// given max-age in seconds. Stored image names are content-unique, so long
// cache lifetimes are safe.
func StaticCache(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(maxAge))
			next.ServeHTTP(w, r)
		})
	}
}
