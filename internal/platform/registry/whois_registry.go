// internal/platform/registry/whois_registry.go
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"domowner/internal/core/domain"
	"domowner/internal/core/ports"
	"domowner/internal/platform/logx"
)

// WhoisFactory crea un backend WHOIS.
type WhoisFactory func(cfg ports.WhoisClientConfig, logger logx.Logger) (ports.WhoisClient, error)

// BackendInfo describe un backend registrado.
type BackendInfo struct {
	Name        string
	Description string
}

// WhoisRegistry gestiona el registro y construcción de backends WHOIS
// (patrón Registry + Factory). Se construye en main y se inyecta.
type WhoisRegistry struct {
	mu        sync.RWMutex
	factories map[string]WhoisFactory
	info      map[string]BackendInfo
	logger    logx.Logger
}

// NewWhoisRegistry crea un registry vacío.
func NewWhoisRegistry(logger logx.Logger) *WhoisRegistry {
	return &WhoisRegistry{
		factories: make(map[string]WhoisFactory),
		info:      make(map[string]BackendInfo),
		logger:    logger.With("component", "whois-registry"),
	}
}

// Register registra una factory bajo name (case-insensitive).
func (r *WhoisRegistry) Register(name string, factory WhoisFactory, description string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("backend name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil for backend %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("backend %s is already registered", name)
	}
	r.factories[name] = factory
	r.info[name] = BackendInfo{Name: name, Description: description}
	r.logger.Debug("whois backend registered", "name", name)
	return nil
}

// MustRegister is Register for wiring code; it panics on error.
func (r *WhoisRegistry) MustRegister(name string, factory WhoisFactory, description string) {
	if err := r.Register(name, factory, description); err != nil {
		panic(err)
	}
}

// Build construye el backend name. Un nombre desconocido devuelve
// domain.ErrUnknownBackend.
func (r *WhoisRegistry) Build(name string, cfg ports.WhoisClientConfig, logger logx.Logger) (ports.WhoisClient, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	r.mu.RLock()
	factory, ok := r.factories[key]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", domain.ErrUnknownBackend, name, strings.Join(r.List(), ", "))
	}

	client, err := factory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build whois backend %s: %w", key, err)
	}
	r.logger.Debug("whois backend built", "name", key, "timeout", cfg.Timeout)
	return client, nil
}

// List retorna los nombres registrados, ordenados.
func (r *WhoisRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Info retorna la descripción de un backend.
func (r *WhoisRegistry) Info(name string) (BackendInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.info[strings.ToLower(name)]
	return info, ok
}
