// internal/core/domain/exclusion.go
package domain

// ExclusionRule drops Domain from the extracted set when the record's
// Field is a string starting with Prefix. Matching is case-insensitive.
type ExclusionRule struct {
	Field  string `yaml:"field" json:"field" validate:"required"`
	Prefix string `yaml:"prefix" json:"prefix" validate:"required"`
	Domain string `yaml:"domain" json:"domain" validate:"required,domain"`
}

// DefaultExclusionRules exclude the hosting platform of a code-hosting
// organization record: its repository URLs point at the platform, not
// at the organization.
func DefaultExclusionRules() []ExclusionRule {
	return []ExclusionRule{
		{Field: "id", Prefix: "org:github", Domain: "github.com"},
		{Field: "id", Prefix: "org:gitlab", Domain: "gitlab.com"},
		{Field: "id", Prefix: "org:bitbucket", Domain: "bitbucket.org"},
	}
}
