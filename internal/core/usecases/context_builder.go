// internal/core/usecases/context_builder.go
package usecases

import (
	"strings"

	"domowner/internal/core/domain"
)

// BuildContext serializa el record y los resultados WHOIS en un único texto:
// "key: value" por campo en orden del record, luego
// "WHOIS data for <domain>: <response>" por entrada, unidos con un espacio.
// No trunca ni escapa nada.
func BuildContext(record domain.Record, whois domain.WhoisResult) string {
	parts := make([]string, 0, record.Len()+whois.Len())

	for _, f := range record.Fields() {
		parts = append(parts, f.Key+": "+domain.RenderValue(f.Value))
	}
	for _, e := range whois.Entries() {
		parts = append(parts, "WHOIS data for "+string(e.Domain)+": "+e.Response)
	}

	return strings.Join(parts, " ")
}
