package inference

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domowner/internal/core/domain"
	"domowner/internal/platform/config"
	"domowner/internal/platform/errors"
	"domowner/internal/platform/logx"
)

const passage = "id: org:github/azure WHOIS data for azure.com: Registrant Organization: Microsoft Corporation"

func inferenceConfig(provider, base string) config.Inference {
	return config.Inference{
		Provider: provider,
		Model:    "test-model",
		APIBase:  base,
		Question: domain.DefaultQuestion,
		Timeout:  2 * time.Second,
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(inferenceConfig("watsonx", "http://x"), "ua", logx.NewNop())
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestNew_Providers(t *testing.T) {
	for _, p := range []string{config.ProviderHuggingFace, config.ProviderLocal, config.ProviderOllama, config.ProviderOpenAI} {
		a, err := New(inferenceConfig(p, "http://localhost:1"), "ua", logx.NewNop())
		require.NoError(t, err, p)
		assert.Equal(t, p, a.Name())
	}

	cfg := inferenceConfig(config.ProviderBedrock, "")
	cfg.Region = "us-east-1"
	a, err := New(cfg, "ua", logx.NewNop())
	require.NoError(t, err)
	assert.Equal(t, config.ProviderBedrock, a.Name())
}

func TestHuggingFace_Answer(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq qaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"score":0.97,"start":72,"end":93,"answer":"Microsoft Corporation"}`))
	}))
	defer srv.Close()

	cfg := inferenceConfig(config.ProviderHuggingFace, srv.URL)
	cfg.APIToken = "hf_secret"
	a, err := New(cfg, "ua", logx.NewNop())
	require.NoError(t, err)

	res, err := a.Answer(context.Background(), domain.DefaultQuestion, passage)
	require.NoError(t, err)

	assert.Equal(t, "/models/test-model", gotPath)
	assert.Equal(t, "Bearer hf_secret", gotAuth)
	assert.Equal(t, domain.DefaultQuestion, gotReq.Inputs.Question)
	assert.Equal(t, passage, gotReq.Inputs.Context)
	assert.Equal(t, "Microsoft Corporation", res.Answer)
	assert.InDelta(t, 0.97, res.Score, 1e-9)
	assert.Equal(t, 72, res.Start)
	assert.Equal(t, config.ProviderHuggingFace, res.Provider)
	assert.Equal(t, "test-model", res.Model)
}

func TestLocal_PostsToBaseWithoutToken(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[{"score":0.2,"start":0,"end":2,"answer":"id"},{"score":0.8,"start":72,"end":93,"answer":"Microsoft Corporation"}]`))
	}))
	defer srv.Close()

	a, err := New(inferenceConfig(config.ProviderLocal, srv.URL), "ua", logx.NewNop())
	require.NoError(t, err)

	res, err := a.Answer(context.Background(), "q", passage)
	require.NoError(t, err)
	assert.Equal(t, "/", gotPath)
	assert.Empty(t, gotAuth)
	assert.Equal(t, "Microsoft Corporation", res.Answer, "best of top-k")
}

func TestHuggingFace_ModelLoading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"Model is currently loading","estimated_time":20}`))
	}))
	defer srv.Close()

	a, err := New(inferenceConfig(config.ProviderHuggingFace, srv.URL), "ua", logx.NewNop())
	require.NoError(t, err)

	_, err = a.Answer(context.Background(), "q", passage)
	assert.True(t, errors.IsServiceUnavailable(err), "503 is temporary")
	assert.True(t, errors.IsTemporary(err))
}

func TestDecodeQA(t *testing.T) {
	_, err := decodeQA([]byte(`{"error":"bad input"}`))
	assert.True(t, errors.IsInvalidResponse(err))

	_, err = decodeQA([]byte(`[]`))
	assert.ErrorIs(t, err, domain.ErrNoAnswer)

	_, err = decodeQA([]byte(`not json`))
	assert.True(t, errors.IsInvalidResponse(err))

	_, err = decodeQA(nil)
	assert.True(t, errors.IsInvalidResponse(err))
}

func TestChat_Answer(t *testing.T) {
	var gotPath string
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotReq))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" \"Microsoft Corporation.\" "}}]}`))
	}))
	defer srv.Close()

	cfg := inferenceConfig(config.ProviderOllama, srv.URL)
	cfg.NumCtx = 8192
	cfg.MaxNewTokens = 64
	a, err := New(cfg, "ua", logx.NewNop())
	require.NoError(t, err)

	res, err := a.Answer(context.Background(), domain.DefaultQuestion, passage)
	require.NoError(t, err)

	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "test-model", gotReq["model"])
	assert.Equal(t, float64(64), gotReq["max_tokens"])
	assert.Equal(t, map[string]any{"num_ctx": float64(8192)}, gotReq["options"])

	assert.Equal(t, "Microsoft Corporation", res.Answer)
	assert.Equal(t, 1.0, res.Score)
	assert.Equal(t, "Microsoft Corporation", passage[res.Start:res.End], "ascii passage: rune == byte offsets")
}

func TestChat_OpenAIOmitsOllamaOptions(t *testing.T) {
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Contoso"}}]}`))
	}))
	defer srv.Close()

	cfg := inferenceConfig(config.ProviderOpenAI, srv.URL)
	cfg.NumCtx = 8192
	a, err := New(cfg, "ua", logx.NewNop())
	require.NoError(t, err)

	res, err := a.Answer(context.Background(), "q", passage)
	require.NoError(t, err)

	_, hasOptions := gotReq["options"]
	assert.False(t, hasOptions)
	assert.Equal(t, "Contoso", res.Answer)
	assert.Equal(t, 0.0, res.Score, "not a span of the context")
}

func TestChat_ErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"model not found"}}`))
	}))
	defer srv.Close()

	a, err := New(inferenceConfig(config.ProviderOpenAI, srv.URL), "ua", logx.NewNop())
	require.NoError(t, err)

	_, err = a.Answer(context.Background(), "q", passage)
	assert.True(t, errors.IsInvalidResponse(err))
	assert.Contains(t, err.Error(), "model not found")
}

func TestLocateSpan(t *testing.T) {
	tests := []struct {
		passage, answer string
		start, end      int
		found           bool
	}{
		{"owner: Microsoft", "Microsoft", 7, 16, true},
		{"owner: Microsoft", "microsoft", 7, 16, true},
		{"dueño: Ñandú SA", "Ñandú SA", 7, 15, true},
		{"owner: Microsoft", "Google", 0, 0, false},
		{"owner: Microsoft", "", 0, 0, false},
	}
	for _, tt := range tests {
		start, end, found := locateSpan(tt.passage, tt.answer)
		assert.Equal(t, tt.found, found, tt.answer)
		assert.Equal(t, tt.start, start, tt.answer)
		assert.Equal(t, tt.end, end, tt.answer)
	}
}

func TestCleanReply(t *testing.T) {
	assert.Equal(t, "Microsoft Corporation", cleanReply(" \"Microsoft Corporation.\"\n"))
	assert.Equal(t, "ACME", cleanReply("`ACME`"))
	assert.Equal(t, "", cleanReply("  "))
}
