// internal/core/ports/exporter.go
package ports

import (
	"io"

	"domowner/internal/core/domain"
)

// Exporter es el port para exportar reportes en diferentes formatos.
type Exporter interface {
	// Name retorna el nombre del exporter (ej: "json", "table")
	Name() string

	// Export escribe el reporte según opts
	Export(report *domain.Report, opts ExportOptions) error
}

// WriterExporter permite exportar a cualquier io.Writer.
type WriterExporter interface {
	Exporter

	ExportToWriter(report *domain.Report, w io.Writer, opts ExportOptions) error
}

// ExportOptions configura las opciones de exportación.
type ExportOptions struct {
	// OutputPath ruta donde guardar el resultado (vacío = stdout)
	OutputPath string

	// Pretty indica si el output debe ser indentado
	Pretty bool

	// IncludeContext incluye el ContextBlob completo en la salida
	IncludeContext bool

	// IncludeWhois incluye las respuestas WHOIS crudas
	IncludeWhois bool
}

// DefaultExportOptions retorna opciones por defecto.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Pretty:         true,
		IncludeContext: true,
		IncludeWhois:   true,
	}
}
