package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// FromRequest returns the client IP, preferring proxy headers over the
// socket address:
//
//  1. CF-Connecting-IP (CDN-terminated deployments)
//  2. X-Forwarded-For (first valid entry)
//  3. X-Real-IP
//  4. RemoteAddr
//
// Returns "" when nothing parses; geographic network restrictions then
// fail closed in the engine.
func FromRequest(r *http.Request) string {
	if ip := parseAddr(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for entry := range strings.SplitSeq(forwarded, ",") {
			if ip := parseAddr(entry); ip != "" {
				return ip
			}
		}
	}

	if ip := parseAddr(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, e.g. in tests.
		return parseAddr(r.RemoteAddr)
	}
	return parseAddr(host)
}

// CountryFromRequest returns the two-letter country hint set by the
// edge, or "" when absent. CF-IPCountry uses "XX" for unknown.
func CountryFromRequest(r *http.Request) string {
	country := strings.ToUpper(strings.TrimSpace(r.Header.Get("CF-IPCountry")))
	if country == "" {
		country = strings.ToUpper(strings.TrimSpace(r.Header.Get("X-Country-Code")))
	}
	if country == "XX" || len(country) != 2 {
		return ""
	}
	return country
}

// parseAddr validates and canonicalizes one IP string.
func parseAddr(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return ""
	}
	return addr.String()
}
