// cmd/domowner/main_test.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domowner/internal/core/domain"
)

func executeCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const rdapAzure = `{"objectClassName":"domain","ldhName":"AZURE.COM","entities":[` +
	`{"roles":["registrant"],"vcardArray":["vcard",[["org",{},"text","Microsoft Corporation"]]]}]}`

// backends levanta un RDAP y un servidor QA falsos y devuelve la ruta de
// un config YAML que apunta a ellos.
func backends(t *testing.T, qa http.HandlerFunc) string {
	t.Helper()
	rdapSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/domain/azure.com" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/rdap+json")
		_, _ = w.Write([]byte(rdapAzure))
	}))
	t.Cleanup(rdapSrv.Close)
	qaSrv := httptest.NewServer(qa)
	t.Cleanup(qaSrv.Close)

	cfg := fmt.Sprintf(`whois:
  backend: rdap
  rdap_base_url: %s
  rate_limit: 0
inference:
  provider: local
  api_base: %s
cache:
  backend: memory
resilience:
  retry:
    max_retries: 0
  breaker_enabled: false
`, rdapSrv.URL, qaSrv.URL)
	return writeFile(t, "domowner.yaml", cfg)
}

func TestInfer_JSON(t *testing.T) {
	var passage string
	cfg := backends(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Inputs struct {
				Question string `json:"question"`
				Context  string `json:"context"`
			} `json:"inputs"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		passage = body.Inputs.Context
		_, _ = w.Write([]byte(`{"answer":"Microsoft Corporation","score":0.91,"start":1,"end":22}`))
	})

	out, err := executeCmd(t, "", "infer", "--sample", "--json", "--config", cfg)
	require.NoError(t, err)

	var report domain.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	assert.Equal(t, []domain.CanonicalDomain{"azure.com"}, report.Domains)
	assert.Equal(t, []domain.CanonicalDomain{"github.com"}, report.Excluded)
	require.NotNil(t, report.Answer)
	assert.Equal(t, "Microsoft Corporation", report.Answer.Answer)
	assert.Equal(t, "local", report.Answer.Provider)
	assert.Contains(t, passage, "WHOIS data for azure.com: ")
	assert.Contains(t, passage, "Microsoft Corporation")
}

func TestInfer_QuietAndOut(t *testing.T) {
	cfg := backends(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"answer":"Microsoft Corporation","score":0.5,"start":0,"end":21}`))
	})
	outFile := filepath.Join(t.TempDir(), "reports", "azure.json")

	out, err := executeCmd(t, "", "infer", "--sample", "-q", "--out", outFile, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "domains: azure.com")
	assert.Contains(t, out, "answer: Microsoft Corporation")

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestInfer_YAMLRecordFromFile(t *testing.T) {
	cfg := backends(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"answer":"Microsoft Corporation","score":0.5}`))
	})
	record := writeFile(t, "record.yml", "id: org:github/azure\nwebsiteUrl: https://azure.com\n")

	out, err := executeCmd(t, "", "infer", record, "--json", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, `"azure.com"`)
}

func TestInfer_InferenceFailureExitsOne(t *testing.T) {
	cfg := backends(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model loading"}`, http.StatusServiceUnavailable)
	})

	out, err := executeCmd(t, "", "infer", "--sample", "--json", "--config", cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInferenceFailed)
	assert.Equal(t, exitFailure, exitCode(err))
	assert.Contains(t, out, `"error"`, "partial report is still printed")
}

func TestInfer_InvalidRecordExitsTwo(t *testing.T) {
	_, err := executeCmd(t, "[1,2,3]", "infer", "-")
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestExtract(t *testing.T) {
	out, err := executeCmd(t, sampleRecord, "extract")
	require.NoError(t, err)
	assert.Equal(t, "azure.com\ngithub.com (excluded)\n", out)

	out, err = executeCmd(t, sampleRecord, "extract", "--no-exclude", "--json")
	require.NoError(t, err)
	var ext struct {
		Domains  []string `json:"domains"`
		Excluded []string `json:"excluded"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ext))
	assert.Equal(t, []string{"github.com", "azure.com"}, ext.Domains)
	assert.Empty(t, ext.Excluded)
}

func TestWhois_InvalidArgument(t *testing.T) {
	_, err := executeCmd(t, "", "whois", "not-a-domain")
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestInvalidConfigExitsTwo(t *testing.T) {
	cfg := writeFile(t, "bad.yaml", "whois:\n  workers: 0\n  unknown_key: 1\n")
	_, err := executeCmd(t, "", "extract", "--config", cfg)
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestUnknownFlagExitsTwo(t *testing.T) {
	_, err := executeCmd(t, "", "extract", "--nope")
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestVersion(t *testing.T) {
	out, err := executeCmd(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "domowner "+version)
}

func TestConfigMasksSecrets(t *testing.T) {
	t.Setenv("DOMOWNER_INFERENCE_API_TOKEN", "hf_very_secret")
	out, err := executeCmd(t, "", "config")
	require.NoError(t, err)
	assert.NotContains(t, out, "hf_very_secret")
	assert.Contains(t, out, "provider:")
}

func TestReadRecord(t *testing.T) {
	r, err := readRecord("", strings.NewReader(`{"b":1,"a":"x.com"}`), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, r.Keys())

	yml := writeFile(t, "r.yaml", "z: 1\ny: https://example.co.uk\n")
	r, err = readRecord(yml, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "y"}, r.Keys())

	r, err = readRecord("", nil, true)
	require.NoError(t, err)
	assert.Equal(t, "org:github/azure", r.GetString("id"))

	_, err = readRecord("", strings.NewReader(`{}`), false)
	assert.ErrorIs(t, err, domain.ErrEmptyRecord)

	_, err = readRecord(filepath.Join(t.TempDir(), "missing.json"), nil, false)
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitUsage, exitCode(fmt.Errorf("x: %w", domain.ErrInvalidConfig)))
	assert.Equal(t, exitUsage, exitCode(domain.ErrInvalidRecord))
	assert.Equal(t, exitFailure, exitCode(fmt.Errorf("%w: boom", domain.ErrInferenceFailed)))
	assert.Equal(t, exitFailure, exitCode(context.Canceled))
}

func TestRunReleasesSignalContext(t *testing.T) {
	ctx, cancel := rootContextWithSignals()
	code := run(ctx, []string{"version"})
	cancel()

	assert.Equal(t, exitOK, code)
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("signal context still active after cancel")
	}
}
