package port43

import (
	"context"
	"errors"
	"testing"
	"time"

	"domowner/internal/core/ports"
	perrors "domowner/internal/platform/errors"
	"domowner/internal/platform/logx"
	"domowner/internal/platform/registry"
	"domowner/internal/testutil"
)

func newTestClient(q queryFunc, server string) *Client {
	c := New(ports.WhoisClientConfig{Server: server}, logx.NewNop())
	c.query = q
	return c
}

func TestClient_Lookup(t *testing.T) {
	var gotDomain string
	var gotServers []string
	c := newTestClient(func(domain string, servers ...string) (string, error) {
		gotDomain, gotServers = domain, servers
		return "Registrant Organization: Microsoft Corporation", nil
	}, "")

	out, err := c.Lookup(context.Background(), "azure.com")

	testutil.AssertNoError(t, err, "lookup")
	testutil.AssertEqual(t, out, "Registrant Organization: Microsoft Corporation", "response")
	testutil.AssertEqual(t, gotDomain, "azure.com", "domain")
	testutil.AssertEqual(t, len(gotServers), 0, "no forced server")
}

func TestClient_ForcedServer(t *testing.T) {
	var gotServers []string
	c := newTestClient(func(_ string, servers ...string) (string, error) {
		gotServers = servers
		return "x", nil
	}, "whois.verisign-grs.com")

	_, err := c.Lookup(context.Background(), "azure.com")
	testutil.AssertNoError(t, err, "lookup")
	testutil.AssertEqual(t, gotServers, []string{"whois.verisign-grs.com"}, "server passed through")
}

func TestClient_ContextCancel(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	c := newTestClient(func(string, ...string) (string, error) {
		<-release
		return "late", nil
	}, "")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Lookup(ctx, "slow.com")

	testutil.AssertTrue(t, errors.Is(err, context.DeadlineExceeded), "deadline error")
	testutil.AssertTrue(t, time.Since(start) < time.Second, "returns when ctx ends")
}

func TestClient_EmptyDomain(t *testing.T) {
	c := newTestClient(func(string, ...string) (string, error) {
		t.Fatal("query must not run")
		return "", nil
	}, "")

	_, err := c.Lookup(context.Background(), " ")
	testutil.AssertTrue(t, perrors.IsInvalidInput(err), "invalid input")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		msg   string
		check func(error) bool
	}{
		{"whois: connect to whois server failed: dial tcp: i/o timeout", perrors.IsTimeout},
		{"whois: no whois server found for domain: x.zz", perrors.IsNotFound},
		{"whois: connect to whois server failed: connection refused", perrors.IsConnectionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			testutil.AssertTrue(t, tt.check(classify(errors.New(tt.msg))), "classified")
		})
	}

	other := errors.New("weird")
	testutil.AssertEqual(t, classify(other), other, "unknown errors pass through")
}

func TestRegister(t *testing.T) {
	r := registry.NewWhoisRegistry(logx.NewNop())
	testutil.AssertNoError(t, Register(r), "register")

	client, err := r.Build(Name, ports.WhoisClientConfig{
		Options: map[string]any{"server": "whois.example.net"},
	}, logx.NewNop())
	testutil.AssertNoError(t, err, "build")
	testutil.AssertEqual(t, client.Name(), Name, "name")
	testutil.AssertEqual(t, client.(*Client).server, "whois.example.net", "server from options")
}
