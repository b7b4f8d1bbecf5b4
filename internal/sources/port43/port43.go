// Package port43 implements the WHOIS protocol backend (TCP port 43,
// following registry referrals) on top of github.com/likexian/whois.
package port43

import (
	"context"
	"strings"
	"time"

	"github.com/likexian/whois"

	"domowner/internal/core/ports"
	"domowner/internal/platform/errors"
	"domowner/internal/platform/logx"
	"domowner/internal/platform/registry"
)

const (
	// Name is the registry name of this backend.
	Name = "port43"

	defaultTimeout = 15 * time.Second
)

// queryFunc is the blocking lookup; replaced in tests.
type queryFunc func(domain string, servers ...string) (string, error)

// Client realiza consultas WHOIS sobre el protocolo clásico.
// La librería no acepta context, así que cada consulta corre en una
// goroutine y el llamador deja de esperar cuando ctx termina.
type Client struct {
	query  queryFunc
	server string
	logger logx.Logger
}

var _ ports.WhoisClient = (*Client)(nil)

// New crea el backend. cfg.Server fuerza un servidor concreto
// (por defecto se usa el de IANA y sus referrals).
func New(cfg ports.WhoisClientConfig, logger logx.Logger) *Client {
	if logger == nil {
		logger = logx.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	wc := whois.NewClient().
		SetTimeout(cfg.Timeout).
		SetDisableReferral(!cfg.FollowReferral)

	return &Client{
		query:  wc.Whois,
		server: strings.TrimSpace(cfg.Server),
		logger: logger.With("backend", Name),
	}
}

// Factory adapts New to the registry.
func Factory(cfg ports.WhoisClientConfig, logger logx.Logger) (ports.WhoisClient, error) {
	opts := registry.Options(cfg.Options)
	if cfg.Server == "" {
		cfg.Server = opts.String("server", "")
	}
	cfg.FollowReferral = opts.Bool("follow_referral", cfg.FollowReferral)
	return New(cfg, logger), nil
}

// Register adds this backend to r.
func Register(r *registry.WhoisRegistry) error {
	return r.Register(Name, Factory, "WHOIS protocol over TCP port 43 with registry referrals")
}

// Name implements ports.WhoisClient.
func (c *Client) Name() string {
	return Name
}

// Lookup implements ports.WhoisClient.
func (c *Client) Lookup(ctx context.Context, domain string) (string, error) {
	if strings.TrimSpace(domain) == "" {
		return "", errors.Wrap(errors.ErrInvalidInput, "empty domain")
	}

	type result struct {
		data string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		var servers []string
		if c.server != "" {
			servers = append(servers, c.server)
		}
		data, err := c.query(domain, servers...)
		ch <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return "", classify(res.err)
		}
		c.logger.Debug("whois response received", "domain", domain, "bytes", len(res.data))
		return res.data, nil
	}
}

// classify maps library errors onto platform sentinels so metrics and the
// breaker see the same outcomes as the RDAP backend.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return errors.Wrap(errors.ErrTimeout, err.Error())
	case strings.Contains(msg, "no whois server"), strings.Contains(msg, "not found"):
		return errors.Wrap(errors.ErrNotFound, err.Error())
	case strings.Contains(msg, "connect"), strings.Contains(msg, "dial"):
		return errors.Wrap(errors.ErrConnectionFailed, err.Error())
	default:
		return err
	}
}
