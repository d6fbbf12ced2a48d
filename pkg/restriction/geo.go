package restriction

import (
	"net/netip"
	"strings"
)

// Geo restricts access by country code and client IP network.
//
// Block lists win over allow lists. An empty allow list permits any
// value not explicitly blocked; a non-empty allow list permits only
// listed values. Country codes are matched case-insensitively.
// Network entries are CIDR prefixes ("10.0.0.0/8") or single
// addresses ("203.0.113.7").
type Geo struct {
	AllowedCountries []string `json:"allowed_countries,omitempty" yaml:"allowed_countries,omitempty"`
	BlockedCountries []string `json:"blocked_countries,omitempty" yaml:"blocked_countries,omitempty"`
	AllowedNetworks  []string `json:"allowed_networks,omitempty" yaml:"allowed_networks,omitempty"`
	BlockedNetworks  []string `json:"blocked_networks,omitempty" yaml:"blocked_networks,omitempty"`
}

// Allows evaluates both dimensions against the request metadata.
// Empty clientIP or countryCode means that dimension was not supplied
// and is not checked; restrictions only apply to what is present.
func (g *Geo) Allows(clientIP, countryCode string) bool {
	if clientIP != "" && !g.AllowsIP(clientIP) {
		return false
	}
	if countryCode != "" && !g.AllowsCountry(countryCode) {
		return false
	}
	return true
}

// AllowsCountry reports whether the country code passes the block and
// allow lists.
func (g *Geo) AllowsCountry(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, blocked := range g.BlockedCountries {
		if strings.EqualFold(blocked, code) {
			return false
		}
	}
	if len(g.AllowedCountries) == 0 {
		return true
	}
	for _, allowed := range g.AllowedCountries {
		if strings.EqualFold(allowed, code) {
			return true
		}
	}
	return false
}

// AllowsIP reports whether the address passes the block and allow
// network lists. An address that cannot be parsed is denied whenever
// any network restriction is configured.
func (g *Geo) AllowsIP(ip string) bool {
	if len(g.AllowedNetworks) == 0 && len(g.BlockedNetworks) == 0 {
		return true
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}

	for _, network := range g.BlockedNetworks {
		if networkContains(network, addr) {
			return false
		}
	}

	if len(g.AllowedNetworks) == 0 {
		return true
	}
	for _, network := range g.AllowedNetworks {
		if networkContains(network, addr) {
			return true
		}
	}
	return false
}

// HasRestrictions reports whether any dimension is configured.
func (g *Geo) HasRestrictions() bool {
	return len(g.AllowedCountries) > 0 || len(g.BlockedCountries) > 0 ||
		len(g.AllowedNetworks) > 0 || len(g.BlockedNetworks) > 0
}

// networkContains matches an address against a CIDR prefix or a single
// address entry. Malformed entries never match.
func networkContains(network string, addr netip.Addr) bool {
	if strings.Contains(network, "/") {
		prefix, err := netip.ParsePrefix(network)
		if err != nil {
			return false
		}
		return prefix.Contains(addr)
	}
	single, err := netip.ParseAddr(network)
	if err != nil {
		return false
	}
	return single == addr
}
