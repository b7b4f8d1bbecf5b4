// Package httpapi exposes the ownership pipeline over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"

	"domowner/internal/core/domain"
	"domowner/internal/core/usecases"
	"domowner/internal/platform/config"
	"domowner/internal/platform/logx"
	"domowner/internal/platform/metrics"
)

// OwnershipRunner runs the full pipeline on one record.
type OwnershipRunner interface {
	Run(ctx context.Context, record domain.Record) (*domain.Report, error)
}

// DomainResolver runs WHOIS lookups alone.
type DomainResolver interface {
	Resolve(ctx context.Context, domains []domain.CanonicalDomain) domain.WhoisResult
}

// CVELookup fetches a raw CVE record.
type CVELookup interface {
	Lookup(ctx context.Context, id string) (json.RawMessage, error)
}

// Options agrupa las dependencias del servidor. Pipeline es obligatorio;
// Resolver y CVE son opcionales (sus rutas responden 501 si faltan).
type Options struct {
	Config   config.Server
	Pipeline OwnershipRunner
	Resolver DomainResolver
	Excluder usecases.Excluder
	CVE      CVELookup
	Logger   logx.Logger
	Metrics  *metrics.Metrics
	Version  string
}

// Server sirve la API JSON.
type Server struct {
	cfg      config.Server
	pipeline OwnershipRunner
	resolver DomainResolver
	excluder usecases.Excluder
	cve      CVELookup
	logger   logx.Logger
	metrics  *metrics.Metrics
	version  string
}

// New crea el servidor.
func New(opts Options) (*Server, error) {
	if opts.Pipeline == nil {
		return nil, errors.New("httpapi: pipeline is required")
	}
	if opts.Logger == nil {
		opts.Logger = logx.NewNop()
	}
	if opts.Config.MaxBodyBytes <= 0 {
		opts.Config.MaxBodyBytes = 1 << 20
	}
	return &Server{
		cfg:      opts.Config,
		pipeline: opts.Pipeline,
		resolver: opts.Resolver,
		excluder: opts.Excluder,
		cve:      opts.CVE,
		logger:   opts.Logger.With("component", "httpapi"),
		metrics:  opts.Metrics,
		version:  opts.Version,
	}, nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(requestID)
	r.Use(chimw.Recoverer)
	r.Use(s.accessLog)
	r.Use(chicors.Handler(chicors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if s.cfg.WriteTimeout > 0 {
			r.Use(chimw.Timeout(s.cfg.WriteTimeout))
		}
		r.Post("/ownership", s.handleOwnership)
		r.Post("/domains", s.handleDomains)
		r.Post("/whois", s.handleWhois)
		r.Get("/cve/{id}", s.handleCVE)
	})

	return r
}

// ListenAndServe sirve hasta que ctx termina y luego hace un shutdown
// ordenado.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout + 5*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
