// Package authzhttp exposes the decision engine over a JSON HTTP API.
//
// Endpoints:
//
//	POST   /v1/authorize                          single decision
//	POST   /v1/authorize/batch                    one action, many resources
//	GET    /v1/principals/{id}/permissions        effective permission names
//	GET    /v1/principals/{id}/permissions/{name} boolean permission check
//	GET    /v1/principals/{id}/roles/{name}       boolean role check
//	DELETE /v1/principals/{id}/cache              drop cached membership answers
//
// Authorization requests that omit client_ip or country_code inherit
// the values extracted from the HTTP request by the clientip
// middleware, so callers proxying end-user traffic get geo checks for
// free.
package authzhttp
