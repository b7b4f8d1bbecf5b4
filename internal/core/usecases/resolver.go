// internal/core/usecases/resolver.go
package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"domowner/internal/core/domain"
	"domowner/internal/core/ports"
	"domowner/internal/platform/cache"
	"domowner/internal/platform/errors"
	"domowner/internal/platform/logx"
	"domowner/internal/platform/metrics"
	"domowner/internal/platform/resilience"
	"domowner/internal/platform/workerpool"
)

// WhoisResolverOptions configura el resolver.
type WhoisResolverOptions struct {
	Client ports.WhoisClient
	Logger logx.Logger

	// Timeout por consulta (default 15s)
	Timeout time.Duration

	// RateLimit consultas por segundo hacia el backend (0 = sin límite).
	// Los aciertos de caché no consumen cupo.
	RateLimit float64
	Burst     int

	// Workers consultas simultáneas (<= 1 = secuencial)
	Workers int

	// Cache opcional de respuestas exitosas
	Cache    cache.Store
	CacheTTL time.Duration

	// Breaker opcional alrededor del backend
	Breaker *resilience.CircuitBreaker

	Metrics *metrics.Metrics
}

// WhoisResolver realiza una consulta best-effort por dominio. Un fallo se
// registra y se sustituye por domain.WhoisUnavailable; nunca aborta el lote.
type WhoisResolver struct {
	client   ports.WhoisClient
	logger   logx.Logger
	timeout  time.Duration
	limiter  *rate.Limiter
	pool     *workerpool.WorkerPool
	cache    cache.Store
	cacheTTL time.Duration
	breaker  *resilience.CircuitBreaker
	metrics  *metrics.Metrics
}

// NewWhoisResolver crea un resolver. Client es obligatorio.
func NewWhoisResolver(opts WhoisResolverOptions) (*WhoisResolver, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("whois resolver: client is required")
	}
	if opts.Logger == nil {
		opts.Logger = logx.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Burst)
	}

	return &WhoisResolver{
		client:   opts.Client,
		logger:   opts.Logger.With("component", "whois_resolver", "backend", opts.Client.Name()),
		timeout:  opts.Timeout,
		limiter:  limiter,
		pool:     workerpool.NewWorkerPool(workerpool.WorkerPoolConfig{Workers: opts.Workers, Logger: opts.Logger}),
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		breaker:  opts.Breaker,
		metrics:  opts.Metrics,
	}, nil
}

// Backend returns the name of the underlying client.
func (r *WhoisResolver) Backend() string {
	return r.client.Name()
}

// Resolve returns exactly one entry per distinct requested domain, in
// request order. It waits for every lookup before returning.
func (r *WhoisResolver) Resolve(ctx context.Context, domains []domain.CanonicalDomain) domain.WhoisResult {
	start := time.Now()

	entries := make([]domain.WhoisEntry, len(domains))
	tasks := make([]workerpool.Task, len(domains))
	for i, d := range domains {
		tasks[i] = workerpool.TaskFunc{
			TaskName: "whois:" + string(d),
			Fn: func(ctx context.Context) error {
				entries[i] = r.lookup(ctx, d)
				return nil
			},
		}
	}

	for i, res := range r.pool.Run(ctx, tasks) {
		// tareas que no llegaron a arrancar (ctx cancelado)
		if res.Error != nil && entries[i].Domain == "" {
			e := domain.UnavailableEntry(domains[i], res.Error)
			e.Backend = r.client.Name()
			entries[i] = e
		}
	}
	result := domain.NewWhoisResult(entries...)

	r.logger.Debug("whois batch resolved",
		"domains", len(domains),
		"failed", len(result.Failed()),
		"workers", r.pool.Workers(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result
}

// ResolveOne looks up a single domain.
func (r *WhoisResolver) ResolveOne(ctx context.Context, d domain.CanonicalDomain) domain.WhoisEntry {
	return r.lookup(ctx, d)
}

func (r *WhoisResolver) lookup(ctx context.Context, d domain.CanonicalDomain) domain.WhoisEntry {
	backend := r.client.Name()
	key := "whois:" + backend + ":" + string(d)

	if r.cache != nil {
		resp, ok, err := r.cache.Get(ctx, key)
		switch {
		case err != nil:
			r.metrics.ObserveWhoisCache("error")
			r.logger.Debug("whois cache read failed", "domain", d, "error", err)
		case ok:
			r.metrics.ObserveWhoisCache("hit")
			r.metrics.ObserveWhois(backend, "cached", 0)
			e := domain.AvailableEntry(d, resp)
			e.Backend = backend
			e.Cached = true
			return e
		default:
			r.metrics.ObserveWhoisCache("miss")
		}
	}

	resp, elapsed, err := r.query(ctx, d)
	if err != nil {
		r.metrics.ObserveWhois(backend, errors.Classify(err), elapsed)
		r.logger.Warn("whois lookup failed",
			"domain", d,
			"backend", backend,
			"error", err,
		)
		e := domain.UnavailableEntry(d, err)
		e.Backend = backend
		return e
	}

	r.metrics.ObserveWhois(backend, "ok", elapsed)
	if r.cache != nil {
		if err := r.cache.Set(ctx, key, resp, r.cacheTTL); err != nil {
			r.logger.Debug("whois cache write failed", "domain", d, "error", err)
		}
	}

	e := domain.AvailableEntry(d, resp)
	e.Backend = backend
	return e
}

// query runs one backend call behind the breaker and the rate limiter.
// elapsed is zero when the backend was never reached.
func (r *WhoisResolver) query(ctx context.Context, d domain.CanonicalDomain) (string, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	if r.breaker != nil && !r.breaker.Allow() {
		return "", 0, fmt.Errorf("%w: %w", domain.ErrWhoisUnavailable, resilience.ErrCircuitOpen)
	}
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", 0, errors.Wrap(err, "rate limit wait")
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.client.Lookup(lookupCtx, string(d))
	elapsed := time.Since(start)

	if err == nil && strings.TrimSpace(resp) == "" {
		err = domain.ErrEmptyWhois
	}
	if err != nil && lookupCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		err = errors.Wrapf(errors.ErrTimeout, "after %s: %v", r.timeout, err)
	}

	if r.breaker != nil {
		// caller cancellation says nothing about backend health
		switch {
		case err == nil:
			r.breaker.RecordSuccess()
		case ctx.Err() == nil:
			r.breaker.RecordFailure()
		}
	}
	return resp, elapsed, err
}
