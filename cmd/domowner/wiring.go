// cmd/domowner/wiring.go
package main

import (
	"context"
	"fmt"
	"io"

	"domowner/internal/core/ports"
	"domowner/internal/core/usecases"
	"domowner/internal/inference"
	"domowner/internal/platform/cache"
	"domowner/internal/platform/config"
	"domowner/internal/platform/logx"
	"domowner/internal/platform/metrics"
	"domowner/internal/platform/registry"
	"domowner/internal/platform/resilience"
	"domowner/internal/platform/ui"
	"domowner/internal/sources/port43"
	"domowner/internal/sources/rdap"
)

func buildInfo() config.BuildInfo {
	return config.BuildInfo{Version: version, Commit: commit, Date: date}
}

func userAgent() string {
	return buildInfo().UserAgent()
}

// app agrupa los handles construidos una sola vez por proceso.
type app struct {
	cfg      config.Config
	logger   logx.Logger
	metrics  *metrics.Metrics
	cache    cache.Store
	excluder usecases.Excluder
	resolver *usecases.WhoisResolver

	// sólo para infer / serve
	inferencer *usecases.OwnershipInferencer
	pipeline   *usecases.Pipeline
}

type buildOptions struct {
	withInference  bool
	runtimeMetrics bool
	presenter      ui.Presenter
}

// newWhoisRegistry registra los backends disponibles.
func newWhoisRegistry(logger logx.Logger) (*registry.WhoisRegistry, error) {
	reg := registry.NewWhoisRegistry(logger)
	if err := port43.Register(reg); err != nil {
		return nil, err
	}
	if err := rdap.Register(reg, userAgent()); err != nil {
		return nil, err
	}
	return reg, nil
}

// buildApp construye registry, caché, breakers, resolver y, si se pide,
// el answerer y el pipeline.
func buildApp(ctx context.Context, cfg config.Config, logger logx.Logger, opts buildOptions) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics.New(opts.runtimeMetrics),
		excluder: usecases.NewExclusionPolicy(cfg.Exclusions).Excludes,
	}

	store, err := cache.New(ctx, cache.Options{
		Backend:   cfg.Cache.Backend,
		Capacity:  cfg.Cache.Capacity,
		RedisURL:  cfg.Cache.RedisURL,
		KeyPrefix: cfg.Cache.KeyPrefix,
	})
	if err != nil {
		return nil, usageErr(fmt.Errorf("cache: %w", err))
	}
	a.cache = store

	reg, err := newWhoisRegistry(logger)
	if err != nil {
		return nil, err
	}
	client, err := reg.Build(cfg.Whois.Backend, ports.WhoisClientConfig{
		Timeout:        cfg.Whois.Timeout,
		Server:         cfg.Whois.Server,
		BaseURL:        cfg.Whois.RDAPBaseURL,
		FollowReferral: cfg.Whois.FollowReferral,
		Options:        cfg.Whois.Options,
	}, logger)
	if err != nil {
		return nil, usageErr(err)
	}

	var whoisBreaker *resilience.CircuitBreaker
	if cfg.Resilience.BreakerEnabled {
		whoisBreaker = a.newBreaker("whois")
	}

	a.resolver, err = usecases.NewWhoisResolver(usecases.WhoisResolverOptions{
		Client:    client,
		Logger:    logger,
		Timeout:   cfg.Whois.Timeout,
		RateLimit: cfg.Whois.RateLimit,
		Burst:     cfg.Whois.Burst,
		Workers:   cfg.Whois.Workers,
		Cache:     store,
		CacheTTL:  cfg.Cache.TTL,
		Breaker:   whoisBreaker,
		Metrics:   a.metrics,
	})
	if err != nil {
		return nil, err
	}

	if !opts.withInference {
		return a, nil
	}

	answerer, err := inference.New(cfg.Inference, userAgent(), logger)
	if err != nil {
		return nil, usageErr(err)
	}

	var inferBreaker *resilience.CircuitBreaker
	if cfg.Resilience.BreakerEnabled {
		inferBreaker = a.newBreaker("inference")
	}
	answerer = resilience.NewRetryableAnswerer(answerer, cfg.Resilience.Retry, inferBreaker, logger)

	var memo cache.Store
	if cfg.Inference.Memoize {
		memo = store
	}
	a.inferencer, err = usecases.NewOwnershipInferencer(usecases.OwnershipInferencerOptions{
		Answerer:        answerer,
		Logger:          logger,
		Question:        cfg.Inference.Question,
		MaxContextChars: cfg.Inference.MaxContextChars,
		Memo:            memo,
		MemoTTL:         cfg.Cache.TTL,
		Metrics:         a.metrics,
	})
	if err != nil {
		return nil, err
	}

	a.pipeline, err = usecases.NewPipeline(usecases.PipelineOptions{
		Resolver:   a.resolver,
		Inferencer: a.inferencer,
		Excluder:   a.excluder,
		Logger:     logger,
		Metrics:    a.metrics,
		Presenter:  opts.presenter,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("pipeline ready",
		"whois_backend", client.Name(),
		"provider", cfg.Inference.Provider,
		"model", cfg.Inference.Model,
		"cache", cfg.Cache.Backend,
	)
	return a, nil
}

// newBreaker crea un breaker que publica sus transiciones en métricas.
func (a *app) newBreaker(component string) *resilience.CircuitBreaker {
	cb := resilience.NewCircuitBreaker(a.cfg.Resilience.Breaker)
	logger := a.logger
	m := a.metrics
	cb.OnStateChange(func(from, to resilience.State) {
		m.SetBreakerState(component, int(to))
		logger.Warn("circuit breaker state change", "component", component, "from", from.String(), "to", to.String())
	})
	return cb
}

// Close libera la caché y vuelca el textfile de métricas si está configurado.
func (a *app) Close() error {
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn("failed to write metrics textfile", "path", a.cfg.Metrics.Textfile, "error", err)
	}
	if a.cache != nil {
		return a.cache.Close()
	}
	return nil
}

// exportOptions traduce la config de salida a opciones del exporter.
func exportOptions(cfg config.Config, path string) ports.ExportOptions {
	opts := ports.DefaultExportOptions()
	opts.OutputPath = path
	opts.Pretty = cfg.Output.Pretty
	return opts
}

// writeExtraction imprime dominios extraídos, uno por línea.
func writeExtraction(w io.Writer, ext usecases.Extraction) {
	for _, d := range ext.Domains {
		fmt.Fprintln(w, d)
	}
	for _, d := range ext.Excluded {
		fmt.Fprintf(w, "%s (excluded)\n", d)
	}
}
