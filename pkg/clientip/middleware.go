package clientip

import "net/http"

// Middleware resolves the client IP and country once per request and
// stores them in the context for the decision handlers.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithIP(r.Context(), FromRequest(r))
		ctx = WithCountry(ctx, CountryFromRequest(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
