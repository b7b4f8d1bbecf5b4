// Package rdap implements a WHOIS backend over RDAP (Registration Data Access
// Protocol). The JSON response is rendered as registry-style "Key: value"
// text so it can be used as inference context like a port 43 response.
package rdap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"domowner/internal/core/ports"
	"domowner/internal/platform/errors"
	"domowner/internal/platform/httpclient"
	"domowner/internal/platform/logx"
	"domowner/internal/platform/registry"
)

const (
	// Name is the registry name of this backend.
	Name = "rdap"

	// rdap.org redirige al servidor autoritativo (bootstrap IANA)
	defaultBaseURL = "https://rdap.org"
)

// RDAP implements ports.WhoisClient against an RDAP server.
type RDAP struct {
	client  *httpclient.Client
	baseURL string
	logger  logx.Logger
}

var _ ports.WhoisClient = (*RDAP)(nil)

// rdapResponse representa la respuesta de RDAP (simplificada)
type rdapResponse struct {
	ObjectClassName string   `json:"objectClassName"`
	Handle          string   `json:"handle"`
	LDHName         string   `json:"ldhName"` // Domain name
	Status          []string `json:"status"`

	// Entities (contacts, registrar)
	Entities []rdapEntity `json:"entities"`

	// Nameservers
	Nameservers []rdapNameserver `json:"nameservers"`

	// Events (created, updated, expiry)
	Events []rdapEvent `json:"events"`

	// DNSSEC
	SecureDNS struct {
		DelegationSigned bool `json:"delegationSigned"`
	} `json:"secureDNS"`
}

// rdapEntity representa una entidad (registrar, contacto)
type rdapEntity struct {
	Handle string   `json:"handle"`
	Roles  []string `json:"roles"` // registrar, registrant, administrative, technical, abuse

	// Contact info (VCard)
	VCardArray []interface{} `json:"vcardArray"`

	PublicIDs []rdapPublicID `json:"publicIds"`

	// Nested entities
	Entities []rdapEntity `json:"entities"`
}

type rdapPublicID struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type rdapNameserver struct {
	LDHName string `json:"ldhName"`
}

type rdapEvent struct {
	EventAction string `json:"eventAction"` // registration, last changed, expiration
	EventDate   string `json:"eventDate"`
}

// New creates the backend. cfg.BaseURL defaults to rdap.org.
func New(cfg ports.WhoisClientConfig, userAgent string, logger logx.Logger) *RDAP {
	if logger == nil {
		logger = logx.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}

	// Un solo reintento: el resolver ya limita la tasa y aplica el breaker.
	httpConfig := httpclient.Config{
		Timeout:         timeout,
		MaxRetries:      1,
		RetryBackoff:    500 * time.Millisecond,
		MaxRetryBackoff: 2 * time.Second,
		UserAgent:       userAgent,
	}

	return &RDAP{
		client:  httpclient.New(httpConfig, logger),
		baseURL: base,
		logger:  logger.With("backend", Name),
	}
}

// Factory returns a registry factory bound to userAgent.
func Factory(userAgent string) registry.WhoisFactory {
	return func(cfg ports.WhoisClientConfig, logger logx.Logger) (ports.WhoisClient, error) {
		opts := registry.Options(cfg.Options)
		if cfg.BaseURL == "" {
			cfg.BaseURL = opts.String("base_url", "")
		}
		if cfg.BaseURL != "" {
			if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
				return nil, errors.Wrapf(errors.ErrInvalidInput, "rdap base url %q", cfg.BaseURL)
			}
		}
		return New(cfg, userAgent, logger), nil
	}
}

// Register adds this backend to r.
func Register(r *registry.WhoisRegistry, userAgent string) error {
	return r.Register(Name, Factory(userAgent), "RDAP over HTTPS rendered as registry text")
}

// Name implements ports.WhoisClient.
func (r *RDAP) Name() string {
	return Name
}

// Lookup implements ports.WhoisClient.
func (r *RDAP) Lookup(ctx context.Context, domain string) (string, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return "", errors.Wrap(errors.ErrInvalidInput, "empty domain")
	}

	data, err := r.query(ctx, domain)
	if err != nil {
		return "", err
	}

	text := renderText(data)
	r.logger.Debug("RDAP query completed", "domain", domain, "bytes", len(text))
	return text, nil
}

// query performs the RDAP query
func (r *RDAP) query(ctx context.Context, domain string) (*rdapResponse, error) {
	u := r.baseURL + "/domain/" + url.PathEscape(domain)

	r.logger.Debug("Querying RDAP server", "domain", domain, "url", u)

	body, err := r.client.FetchJSON(ctx, u)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Wrapf(err, "domain not found in RDAP: %s", domain)
		}
		if errors.IsRateLimit(err) {
			return nil, errors.Wrap(err, "RDAP rate limit exceeded")
		}
		return nil, errors.Wrap(err, "failed to fetch RDAP data")
	}

	var data rdapResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidResponse, "failed to parse RDAP response for %s: %v", domain, err)
	}
	if data.LDHName == "" && len(data.Entities) == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidResponse, "RDAP response for %s has no domain object", domain)
	}
	return &data, nil
}

// renderText produce líneas "Key: value" al estilo de un registry WHOIS.
func renderText(data *rdapResponse) string {
	var b strings.Builder
	line := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			fmt.Fprintf(&b, "%s: %s\n", key, value)
		}
	}

	line("Domain Name", data.LDHName)
	line("Registry Domain ID", data.Handle)
	if len(data.Status) > 0 {
		line("Domain Status", strings.Join(data.Status, ", "))
	}

	for _, e := range flattenEntities(data.Entities) {
		switch {
		case hasRole(e.Roles, "registrar"):
			line("Registrar", vcardField(e.VCardArray, "fn"))
			for _, id := range e.PublicIDs {
				if id.Type == "IANA Registrar ID" {
					line("Registrar IANA ID", id.Identifier)
				}
			}
		case hasRole(e.Roles, "abuse"):
			line("Registrar Abuse Contact Email", vcardField(e.VCardArray, "email"))
		default:
			renderContact(line, e)
		}
	}

	for _, ns := range data.Nameservers {
		line("Name Server", strings.ToLower(ns.LDHName))
	}

	for _, ev := range data.Events {
		switch strings.ToLower(ev.EventAction) {
		case "registration":
			line("Creation Date", ev.EventDate)
		case "last changed":
			line("Updated Date", ev.EventDate)
		case "expiration":
			line("Registry Expiry Date", ev.EventDate)
		}
	}

	if data.SecureDNS.DelegationSigned {
		line("DNSSEC", "signedDelegation")
	} else {
		line("DNSSEC", "unsigned")
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderContact(line func(key, value string), e rdapEntity) {
	prefix := contactPrefix(e.Roles)
	if prefix == "" {
		return
	}
	if isRedacted(e.VCardArray) {
		line(prefix+" Name", "REDACTED FOR PRIVACY")
	} else {
		line(prefix+" Name", vcardField(e.VCardArray, "fn"))
		line(prefix+" Email", vcardField(e.VCardArray, "email"))
	}
	// La organización y el país suelen publicarse aunque el resto esté redactado.
	line(prefix+" Organization", vcardField(e.VCardArray, "org"))
	if addr := vcardAddress(e.VCardArray); addr != nil {
		line(prefix+" State/Province", addr["region"])
		line(prefix+" Country", addr["country"])
	}
}

func contactPrefix(roles []string) string {
	for _, role := range roles {
		switch strings.ToLower(role) {
		case "registrant":
			return "Registrant"
		case "administrative":
			return "Admin"
		case "technical":
			return "Tech"
		}
	}
	return ""
}

// flattenEntities devuelve las entidades en profundidad, padres primero.
func flattenEntities(entities []rdapEntity) []rdapEntity {
	var out []rdapEntity
	for _, e := range entities {
		out = append(out, e)
		out = append(out, flattenEntities(e.Entities)...)
	}
	return out
}

// vcardField extracts a specific field from a jCard array:
// ["vcard", [["version", {}, "text", "4.0"], ["fn", {}, "text", "John Doe"], ...]]
func vcardField(vcardArray []interface{}, fieldName string) string {
	for _, field := range vcardProperties(vcardArray) {
		name, ok := field[0].(string)
		if !ok || !strings.EqualFold(name, fieldName) {
			continue
		}
		switch v := field[3].(type) {
		case string:
			return v
		case []interface{}:
			// org puede venir como lista de unidades
			var parts []string
			for _, p := range v {
				if s, ok := p.(string); ok && s != "" {
					parts = append(parts, s)
				}
			}
			return strings.Join(parts, ", ")
		}
	}
	return ""
}

// vcardAddress extracts the adr property:
// [pobox, ext, street, locality, region, code, country]
func vcardAddress(vcardArray []interface{}) map[string]string {
	for _, field := range vcardProperties(vcardArray) {
		name, ok := field[0].(string)
		if !ok || !strings.EqualFold(name, "adr") {
			continue
		}
		addrValue, ok := field[3].([]interface{})
		if !ok || len(addrValue) < 7 {
			continue
		}

		keys := []string{"pobox", "ext", "street", "locality", "region", "code", "country"}
		addr := make(map[string]string, len(keys))
		for i, k := range keys {
			if s, ok := addrValue[i].(string); ok {
				addr[k] = s
			}
		}
		// Algunos registries ponen el país solo en el parámetro "cc".
		if addr["country"] == "" {
			if params, ok := field[1].(map[string]interface{}); ok {
				if cc, ok := params["cc"].(string); ok {
					addr["country"] = cc
				}
			}
		}
		return addr
	}
	return nil
}

func vcardProperties(vcardArray []interface{}) [][]interface{} {
	if len(vcardArray) < 2 {
		return nil
	}
	props, ok := vcardArray[1].([]interface{})
	if !ok {
		return nil
	}
	out := make([][]interface{}, 0, len(props))
	for _, item := range props {
		field, ok := item.([]interface{})
		if ok && len(field) >= 4 {
			out = append(out, field)
		}
	}
	return out
}

// isRedacted checks for common redaction markers in name and email.
func isRedacted(vcardArray []interface{}) bool {
	email := strings.ToLower(vcardField(vcardArray, "email"))
	name := strings.ToLower(vcardField(vcardArray, "fn"))

	return strings.Contains(email, "redacted") ||
		strings.Contains(name, "redacted") ||
		strings.Contains(email, "privacy") ||
		email == ""
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
