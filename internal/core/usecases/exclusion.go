// internal/core/usecases/exclusion.go
package usecases

import (
	"strings"

	"domowner/internal/core/domain"
)

// Excluder decide si un dominio extraído debe descartarse para un record.
type Excluder func(record domain.Record, d domain.CanonicalDomain) bool

// ExclusionPolicy aplica reglas {field, prefix, domain} después de la
// extracción y antes de la resolución WHOIS.
type ExclusionPolicy struct {
	rules []domain.ExclusionRule
}

// NewExclusionPolicy copia las reglas; dominios y prefijos se comparan
// sin distinguir mayúsculas.
func NewExclusionPolicy(rules []domain.ExclusionRule) *ExclusionPolicy {
	cp := make([]domain.ExclusionRule, len(rules))
	for i, r := range rules {
		cp[i] = domain.ExclusionRule{
			Field:  r.Field,
			Prefix: strings.ToLower(r.Prefix),
			Domain: strings.ToLower(strings.Trim(strings.TrimSpace(r.Domain), ".")),
		}
	}
	return &ExclusionPolicy{rules: cp}
}

// Rules returns a copy of the configured rules.
func (p *ExclusionPolicy) Rules() []domain.ExclusionRule {
	out := make([]domain.ExclusionRule, len(p.rules))
	copy(out, p.rules)
	return out
}

// Excludes implements Excluder.
func (p *ExclusionPolicy) Excludes(record domain.Record, d domain.CanonicalDomain) bool {
	for _, r := range p.rules {
		if !d.EqualFold(r.Domain) {
			continue
		}
		if strings.HasPrefix(strings.ToLower(record.GetString(r.Field)), r.Prefix) {
			return true
		}
	}
	return false
}

// Apply splits domains into kept and excluded, preserving order.
func (p *ExclusionPolicy) Apply(record domain.Record, domains []domain.CanonicalDomain) (kept, excluded []domain.CanonicalDomain) {
	return ApplyExcluder(p.Excludes, record, domains)
}

// ApplyExcluder splits domains with an arbitrary predicate. A nil
// excluder keeps everything.
func ApplyExcluder(ex Excluder, record domain.Record, domains []domain.CanonicalDomain) (kept, excluded []domain.CanonicalDomain) {
	kept = make([]domain.CanonicalDomain, 0, len(domains))
	for _, d := range domains {
		if ex != nil && ex(record, d) {
			excluded = append(excluded, d)
			continue
		}
		kept = append(kept, d)
	}
	return kept, excluded
}
