// internal/testutil/mocks.go
package testutil

import (
	"context"
	"sync"

	"domowner/internal/core/domain"
	"domowner/internal/core/ports"
)

// Nota: los mocks generados (gomock) viven en internal/core/ports/mocks.
// Aquí solo hay fakes con estado para tests de adapters y CLI.

// FakeWhoisClient responde desde mapas. Un dominio sin entrada en
// Responses ni en Errors devuelve domain.ErrEmptyWhois.
type FakeWhoisClient struct {
	BackendName string
	Responses   map[string]string
	Errors      map[string]error

	mu    sync.Mutex
	calls []string
}

var _ ports.WhoisClient = (*FakeWhoisClient)(nil)

// NewFakeWhoisClient crea un fake con respuestas fijas.
func NewFakeWhoisClient(responses map[string]string) *FakeWhoisClient {
	return &FakeWhoisClient{
		BackendName: "fake",
		Responses:   responses,
		Errors:      map[string]error{},
	}
}

// Name implements ports.WhoisClient.
func (f *FakeWhoisClient) Name() string {
	return f.BackendName
}

// Lookup implements ports.WhoisClient.
func (f *FakeWhoisClient) Lookup(ctx context.Context, d string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, d)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err, ok := f.Errors[d]; ok {
		return "", err
	}
	if resp, ok := f.Responses[d]; ok {
		return resp, nil
	}
	return "", domain.ErrEmptyWhois
}

// Calls returns the looked-up domains in call order.
func (f *FakeWhoisClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// FakeAnswerer devuelve siempre el mismo resultado y guarda el último
// contexto recibido.
type FakeAnswerer struct {
	Result *domain.AnswerResult
	Err    error

	mu          sync.Mutex
	lastPassage string
}

var _ ports.Answerer = (*FakeAnswerer)(nil)

// Name implements ports.Answerer.
func (f *FakeAnswerer) Name() string {
	return "fake-qa"
}

// Answer implements ports.Answerer.
func (f *FakeAnswerer) Answer(_ context.Context, _, passage string) (*domain.AnswerResult, error) {
	f.mu.Lock()
	f.lastPassage = passage
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	res := *f.Result
	return &res, nil
}

// LastPassage returns the context of the most recent call.
func (f *FakeAnswerer) LastPassage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPassage
}
