package clientip

import "net/http"

// Middleware stores the resolved client IP in the request context.
func (e *Extractor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := SetIPToContext(r.Context(), e.GetIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
