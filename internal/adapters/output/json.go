// internal/adapters/output/json.go
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"domowner/internal/core/domain"
	"domowner/internal/core/ports"
)

// JSONExporter escribe el reporte como JSON.
type JSONExporter struct {
	stdout io.Writer
	now    func() time.Time
}

var _ ports.WriterExporter = (*JSONExporter)(nil)

// NewJSONExporter crea un exporter que usa os.Stdout para rutas vacías o "-".
func NewJSONExporter() *JSONExporter {
	return NewJSONExporterTo(os.Stdout)
}

// NewJSONExporterTo usa w en lugar de os.Stdout.
func NewJSONExporterTo(w io.Writer) *JSONExporter {
	return &JSONExporter{stdout: w, now: time.Now}
}

// Name implementa ports.Exporter.
func (e *JSONExporter) Name() string { return "json" }

// Export escribe en stdout, en un archivo o, si OutputPath es un
// directorio existente (o termina en "/"), en un archivo con nombre
// generado dentro de él.
func (e *JSONExporter) Export(report *domain.Report, opts ports.ExportOptions) error {
	path := strings.TrimSpace(opts.OutputPath)
	if path == "" || path == "-" {
		return e.ExportToWriter(report, e.stdout, opts)
	}

	if isDirTarget(path) {
		path = filepath.Join(path, e.reportFilename(report))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	return e.ExportToWriter(report, f, opts)
}

// ExportToWriter implementa ports.WriterExporter.
func (e *JSONExporter) ExportToWriter(report *domain.Report, w io.Writer, opts ports.ExportOptions) error {
	if report == nil {
		return fmt.Errorf("nil report")
	}

	enc := json.NewEncoder(w)
	if opts.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(trimReport(report, opts)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// reportFilename genera domowner_{dominio}_{timestamp}.json; sin dominios se
// usa el run id.
func (e *JSONExporter) reportFilename(report *domain.Report) string {
	subject := report.RunID
	if len(report.Domains) > 0 {
		subject = string(report.Domains[0])
	}
	if subject == "" {
		subject = "report"
	}
	return fmt.Sprintf("domowner_%s_%s.json", sanitizeName(subject), e.now().Format("20060102_150405"))
}

// trimReport aplica IncludeContext / IncludeWhois sobre una copia.
func trimReport(report *domain.Report, opts ports.ExportOptions) *domain.Report {
	if opts.IncludeContext && opts.IncludeWhois {
		return report
	}

	out := *report
	if !opts.IncludeContext {
		out.Context = ""
	}
	if !opts.IncludeWhois {
		entries := report.Whois.Entries()
		for i := range entries {
			entries[i].Response = ""
		}
		out.Whois = domain.NewWhoisResult(entries...)
	}
	return &out
}

func isDirTarget(path string) bool {
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(os.PathSeparator)) {
		return true
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// sanitizeName convierte un dominio en un fragmento de nombre de archivo.
// Ejemplo: "example.co.uk" -> "example_co_uk"
func sanitizeName(s string) string {
	s = strings.ReplaceAll(s, ".", "_")
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, s)
}
