// internal/adapters/output/table.go
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"

	"domowner/internal/core/domain"
	"domowner/internal/core/ports"
)

// maxResponsePreview limita la primera línea WHOIS mostrada en la tabla.
const maxResponsePreview = 60

// TableExporter imprime un resumen legible del reporte en terminal.
type TableExporter struct {
	stdout io.Writer
}

var _ ports.WriterExporter = (*TableExporter)(nil)

func NewTableExporter() *TableExporter {
	return NewTableExporterTo(os.Stdout)
}

func NewTableExporterTo(w io.Writer) *TableExporter {
	return &TableExporter{stdout: w}
}

func (e *TableExporter) Name() string { return "table" }

// Export ignora OutputPath: la tabla siempre va a stdout.
func (e *TableExporter) Export(report *domain.Report, opts ports.ExportOptions) error {
	return e.ExportToWriter(report, e.stdout, opts)
}

// ExportToWriter renderiza secciones de resumen, dominios, WHOIS y respuesta.
func (e *TableExporter) ExportToWriter(report *domain.Report, w io.Writer, opts ports.ExportOptions) error {
	if report == nil {
		return fmt.Errorf("nil report")
	}

	var b strings.Builder

	b.WriteString(pterm.DefaultSection.Sprint("Ownership report"))
	summary := pterm.TableData{
		{"Run", report.RunID},
		{"Question", report.Question},
		{"Elapsed", fmt.Sprintf("%dms", report.ElapsedMs)},
	}
	if err := renderTable(&b, summary, false); err != nil {
		return err
	}

	b.WriteString(pterm.DefaultSection.WithLevel(2).Sprint("Domains"))
	domains := pterm.TableData{{"Domain", "Status", "Backend", "WHOIS"}}
	for _, d := range report.Domains {
		entry, ok := report.Whois.Get(d)
		domains = append(domains, whoisRow(d, entry, ok, opts.IncludeWhois))
	}
	for _, d := range report.Excluded {
		domains = append(domains, []string{string(d), "excluded", "", ""})
	}
	if len(domains) == 1 {
		b.WriteString("No domains found in record.\n")
	} else if err := renderTable(&b, domains, true); err != nil {
		return err
	}

	if opts.IncludeContext && report.Context != "" {
		b.WriteString(pterm.DefaultSection.WithLevel(2).Sprint("Context"))
		b.WriteString(report.Context)
		b.WriteString("\n")
	}

	b.WriteString(pterm.DefaultSection.WithLevel(2).Sprint("Answer"))
	if report.Answer != nil {
		answer := pterm.TableData{
			{"Owner", report.Answer.Answer},
			{"Score", fmt.Sprintf("%.4f", report.Answer.Score)},
			{"Span", fmt.Sprintf("%d-%d", report.Answer.Start, report.Answer.End)},
		}
		if report.Answer.Provider != "" {
			answer = append(answer, []string{"Provider", report.Answer.Provider})
		}
		if err := renderTable(&b, answer, false); err != nil {
			return err
		}
	} else {
		b.WriteString(pterm.Red("✗ inference failed: " + report.Error))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderTable(b *strings.Builder, data pterm.TableData, header bool) error {
	s, err := pterm.DefaultTable.
		WithHasHeader(header).
		WithBoxed(true).
		WithData(data).
		Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	b.WriteString(s)
	b.WriteString("\n")
	return nil
}

func whoisRow(d domain.CanonicalDomain, entry domain.WhoisEntry, ok, includeWhois bool) []string {
	switch {
	case !ok:
		return []string{string(d), "pending", "", ""}
	case !entry.Available:
		return []string{string(d), "unavailable", entry.Backend, entry.Error}
	}

	status := "ok"
	if entry.Cached {
		status = "ok (cached)"
	}
	preview := ""
	if includeWhois {
		preview = firstLine(entry.Response, maxResponsePreview)
	}
	return []string{string(d), status, entry.Backend, preview}
}

// firstLine devuelve la primera línea no vacía, recortada a max runas.
func firstLine(s string, max int) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r := []rune(line)
		if len(r) > max {
			return string(r[:max]) + "…"
		}
		return line
	}
	return ""
}
