// internal/core/usecases/extractor.go
package usecases

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"

	"domowner/internal/core/domain"
	"domowner/internal/platform/validator"
)

// ExtractDomains devuelve los dominios registrables referenciados por los
// valores string de primer nivel del record, sin duplicados y en el orden
// en que aparecen. Nunca falla: lo que no parece un dominio se ignora.
func ExtractDomains(record domain.Record) []domain.CanonicalDomain {
	out := []domain.CanonicalDomain{}
	seen := make(map[domain.CanonicalDomain]struct{})

	for _, f := range record.Fields() {
		s, ok := f.Value.(string)
		if !ok || !IsCandidate(s) {
			continue
		}
		d, ok := RegistrableDomain(s)
		if !ok {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// IsCandidate is the cheap pre-filter: the value mentions "http" or has a
// dot. It is deliberately loose; RegistrableDomain does the real check.
func IsCandidate(value string) bool {
	return strings.Contains(value, "http") || strings.Contains(value, ".")
}

// RegistrableDomain reduces a URL or hostname to its registrable domain
// using the ICANN section of the public suffix list. Hosts under a private
// suffix (github.io, blogspot.com) reduce against its ICANN parent.
// Internationalized hosts are returned in their punycode form
// (bücher.de -> xn--bcher-kva.de).
func RegistrableDomain(value string) (domain.CanonicalDomain, bool) {
	host := validator.HostFromValue(value)
	if host == "" || validator.IsIP(host) {
		return "", false
	}
	host, ok := asciiHost(host)
	if !ok {
		return "", false
	}

	suffix, ok := icannSuffix(host)
	if !ok || len(host) <= len(suffix)+1 {
		return "", false
	}

	rest := strings.TrimSuffix(host, "."+suffix)
	if rest == host {
		return "", false
	}
	label := rest
	if i := strings.LastIndexByte(rest, '.'); i >= 0 {
		label = rest[i+1:]
	}
	if !validator.IsLabel(label) {
		return "", false
	}

	registrable := label + "." + suffix
	if !validator.IsDomain(registrable) {
		return "", false
	}
	return domain.CanonicalDomain(registrable), true
}

// asciiHost converts a non-ASCII host to its A-label form. ASCII hosts are
// returned unchanged.
func asciiHost(host string) (string, bool) {
	if isASCII(host) {
		return host, true
	}
	a, err := idna.Lookup.ToASCII(host)
	if err != nil || a == "" {
		return "", false
	}
	return strings.ToLower(a), true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// icannSuffix returns the longest ICANN public suffix of host. Unlisted
// TLDs ("v2.0", "1.5") have none.
func icannSuffix(host string) (string, bool) {
	suffix, icann := publicsuffix.PublicSuffix(host)
	for !icann {
		i := strings.IndexByte(suffix, '.')
		if i < 0 {
			return "", false
		}
		suffix, icann = publicsuffix.PublicSuffix(suffix[i+1:])
	}
	return suffix, true
}
