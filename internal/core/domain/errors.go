// internal/core/domain/errors.go
package domain

import "errors"

// Errores de dominio comunes.
var (
	// Record errors
	ErrEmptyRecord   = errors.New("record cannot be empty")
	ErrInvalidRecord = errors.New("invalid record")

	// Lookup errors
	ErrEmptyDomain      = errors.New("domain cannot be empty")
	ErrEmptyWhois       = errors.New("empty WHOIS response")
	ErrUnknownBackend   = errors.New("unknown WHOIS backend")
	ErrWhoisUnavailable = errors.New("WHOIS backend unavailable")
	ErrInvalidCVE       = errors.New("invalid CVE identifier")

	// Inference errors
	ErrInferenceFailed = errors.New("inference failed")
	ErrNoAnswer        = errors.New("inference returned no answer")
	ErrEmptyContext    = errors.New("inference context cannot be empty")
	ErrUnknownProvider = errors.New("unknown inference provider")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// IsRecordError reports whether err originates from record decoding.
func IsRecordError(err error) bool {
	return errors.Is(err, ErrInvalidRecord) || errors.Is(err, ErrEmptyRecord)
}
