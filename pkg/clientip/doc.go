// Package clientip extracts the caller's IP address and country hint
// from HTTP requests, for geographic restriction checks on decisions
// made over the HTTP API.
//
// Header-derived values are only as trustworthy as the proxy chain in
// front of the service; deploy behind infrastructure that strips
// client-supplied forwarding headers.
package clientip
