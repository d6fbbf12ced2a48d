// Package pg provides PostgreSQL connectivity for the policy store:
// pooled connections with startup retry, embedded schema migrations,
// and a health check hook for the service's readiness endpoint.
//
// The directory packages consume the *pgxpool.Pool this package
// produces; nothing here knows about the authorization model.
package pg
