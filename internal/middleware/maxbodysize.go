package middleware

import "net/http"

// NewMaxBodySizeHandler returns a middleware that limits incoming request
// bodies to limit bytes using http.MaxBytesReader. A handler that reads past
// the limit gets an error from the body, which the JSON decoder surfaces as
// a request error; the connection is also closed so an oversized upload
// cannot keep streaming.
//
// Only the JSON request surface needs this — export responses are outbound
// and unaffected.
func NewMaxBodySizeHandler(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
