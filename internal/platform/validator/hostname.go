// internal/platform/validator/hostname.go
package validator

import (
	"net"
	"regexp"
	"strings"
)

var (
	domainRegex = regexp.MustCompile(`^([a-z0-9]([a-z0-9\-]{0,61}[a-z0-9])?\.)+[a-z0-9]([a-z0-9\-]{0,61}[a-z0-9])?$`)
	labelRegex  = regexp.MustCompile(`^[a-z0-9]([a-z0-9\-]{0,61}[a-z0-9])?$`)
	cveRegex    = regexp.MustCompile(`^CVE-\d{4}-\d{4,}$`)
)

// IsDomain verifica si s es un nombre de dominio en minúsculas con al menos
// dos labels. Acepta punycode (xn--); rechaza IPs.
func IsDomain(s string) bool {
	if len(s) == 0 || len(s) > 253 {
		return false
	}
	if net.ParseIP(s) != nil {
		return false
	}
	return domainRegex.MatchString(s)
}

// IsLabel verifica un único label DNS (sin puntos).
func IsLabel(s string) bool {
	return labelRegex.MatchString(s)
}

// IsIP verifica si s es una dirección IP válida (v4 o v6).
func IsIP(s string) bool {
	return net.ParseIP(s) != nil
}

// NormalizeDomain normaliza un dominio a su forma canónica:
// minúsculas, sin espacios ni puntos en los extremos.
func NormalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	return strings.Trim(domain, ".")
}

// HostFromValue extracts the host part of a URL-ish string: the scheme,
// path, query, fragment, userinfo and port are dropped. The result is
// normalized with NormalizeDomain and may still be invalid.
func HostFromValue(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if strings.HasPrefix(s, "[") {
		// IPv6 literal
		if i := strings.Index(s, "]"); i >= 0 {
			return strings.ToLower(s[1:i])
		}
	}
	if i := strings.LastIndex(s, ":"); i >= 0 && strings.Count(s, ":") == 1 {
		s = s[:i]
	}
	return NormalizeDomain(s)
}

// IsCVEID valida identificadores CVE-YYYY-NNNN (4 o más dígitos).
func IsCVEID(id string) bool {
	return cveRegex.MatchString(id)
}
