// internal/adapters/output/table_test.go
package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pterm/pterm"

	"domowner/internal/core/domain"
	"domowner/internal/core/ports"
)

func TestTableExporter_Report(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var buf bytes.Buffer
	if err := NewTableExporter().ExportToWriter(sampleReport(t), &buf, ports.DefaultExportOptions()); err != nil {
		t.Fatalf("ExportToWriter() failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Ownership report",
		"run-1",
		"azure.com",
		"port43",
		"Registrant Organization: Microsoft Corporation",
		"down.com",
		"unavailable",
		"github.com",
		"excluded",
		"Microsoft Corporation",
		"0.9300",
		"10-31",
		"WHOIS data for",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestTableExporter_InferenceFailure(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	report := sampleReport(t)
	report.Answer = nil
	report.Error = "inference failed: model not loaded"

	var buf bytes.Buffer
	if err := NewTableExporter().ExportToWriter(report, &buf, ports.ExportOptions{}); err != nil {
		t.Fatalf("ExportToWriter() failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "model not loaded") {
		t.Errorf("error not shown:\n%s", out)
	}
	if strings.Contains(out, "WHOIS data for") {
		t.Error("context shown although IncludeContext is false")
	}
	if strings.Contains(out, "Registrant Organization") {
		t.Error("whois preview shown although IncludeWhois is false")
	}
}

func TestTableExporter_NoDomains(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	rec := domain.NewRecord(domain.Field{Key: "id", Value: "x"})
	report := domain.NewReport("run-2", rec)
	report.Answer = &domain.AnswerResult{Answer: "x"}

	var buf bytes.Buffer
	if err := NewTableExporter().ExportToWriter(report, &buf, ports.ExportOptions{}); err != nil {
		t.Fatalf("ExportToWriter() failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No domains found in record.") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("\n\n  Domain Name: AZURE.COM\nRegistrar: x", 60); got != "Domain Name: AZURE.COM" {
		t.Errorf("firstLine() = %q", got)
	}
	if got := firstLine(strings.Repeat("a", 10), 4); got != "aaaa…" {
		t.Errorf("firstLine() truncation = %q", got)
	}
	if got := firstLine("   ", 10); got != "" {
		t.Errorf("firstLine() blank = %q", got)
	}
}
