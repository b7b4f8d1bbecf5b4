// internal/core/ports/whois.go
package ports

//go:generate mockgen -source=whois.go -destination=mocks/whois_mock.go -package=mocks

import (
	"context"
	"time"
)

// WhoisClient es el port para una consulta WHOIS de un único dominio.
// Implementaciones: port43 (protocolo WHOIS) y rdap.
type WhoisClient interface {
	// Name identifica el backend (ej: "port43", "rdap").
	Name() string

	// Lookup devuelve la respuesta cruda del registro para domain.
	// Una respuesta vacía debe tratarse como fallo por el llamador.
	Lookup(ctx context.Context, domain string) (string, error)
}

// WhoisClientConfig agrupa los parámetros comunes de los backends.
type WhoisClientConfig struct {
	// Timeout por consulta
	Timeout time.Duration

	// Server fuerza un servidor WHOIS concreto (vacío = descubrimiento automático)
	Server string

	// BaseURL para backends HTTP (rdap)
	BaseURL string

	// FollowReferral sigue la referencia del registro al registrar
	FollowReferral bool

	// Options parámetros propios de cada backend (whois.options en YAML)
	Options map[string]any
}
