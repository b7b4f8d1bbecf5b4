// Package nvd looks up CVE records in the NIST National Vulnerability
// Database (CVE API 2.0).
package nvd

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"domowner/internal/core/domain"
	"domowner/internal/platform/errors"
	"domowner/internal/platform/httpclient"
	"domowner/internal/platform/logx"
	"domowner/internal/platform/validator"
)

const (
	// DefaultBaseURL is the CVE API 2.0 endpoint.
	DefaultBaseURL = "https://services.nvd.nist.gov/rest/json/cves/2.0"

	defaultTimeout = 30 * time.Second
)

// Config configura el cliente NVD.
type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// Client consulta la API de CVEs.
type Client struct {
	http    *httpclient.Client
	baseURL string
	logger  logx.Logger
}

// New crea un cliente. Sin API key NVD limita a 5 peticiones cada 30s,
// así que el cliente se autolimita en ese caso.
func New(cfg Config, logger logx.Logger) *Client {
	if logger == nil {
		logger = logx.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}

	hc := httpclient.DefaultConfig()
	hc.Timeout = cfg.Timeout
	hc.MaxRetries = 1
	hc.UserAgent = cfg.UserAgent
	if cfg.APIKey != "" {
		hc.Headers = map[string]string{"apiKey": cfg.APIKey}
	} else {
		hc.RateLimit = 5.0 / 30.0
		hc.RateLimitBurst = 5
	}

	return &Client{
		http:    httpclient.New(hc, logger),
		baseURL: base,
		logger:  logger.With("component", "nvd"),
	}
}

// Lookup returns the raw API response for one CVE id. The id is
// normalized to upper case and must look like CVE-YYYY-NNNN.
func (c *Client) Lookup(ctx context.Context, id string) (json.RawMessage, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if !validator.IsCVEID(id) {
		return nil, errors.Wrapf(domain.ErrInvalidCVE, "%q", id)
	}

	u := c.baseURL + "?" + url.Values{"cveId": {id}}.Encode()
	c.logger.Debug("querying NVD", "cve", id)

	body, err := c.http.FetchJSON(ctx, u)
	if err != nil {
		return nil, errors.Wrapf(err, "nvd lookup %s", id)
	}
	if !json.Valid(body) {
		return nil, errors.Wrapf(errors.ErrInvalidResponse, "nvd lookup %s: body is not JSON", id)
	}

	var page struct {
		TotalResults int `json:"totalResults"`
	}
	if err := json.Unmarshal(body, &page); err == nil && page.TotalResults == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "nvd lookup %s", id)
	}
	return json.RawMessage(body), nil
}
