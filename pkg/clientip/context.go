package clientip

import "context"

type ipContextKey struct{}

type countryContextKey struct{}

// WithIP stores the client IP in the context.
func WithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipContextKey{}, ip)
}

// IPFromContext retrieves the client IP, or "" when not set.
func IPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ipContextKey{}).(string)
	return ip
}

// WithCountry stores the country hint in the context.
func WithCountry(ctx context.Context, country string) context.Context {
	return context.WithValue(ctx, countryContextKey{}, country)
}

// CountryFromContext retrieves the country hint, or "" when not set.
func CountryFromContext(ctx context.Context) string {
	country, _ := ctx.Value(countryContextKey{}).(string)
	return country
}
