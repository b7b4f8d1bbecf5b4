// internal/platform/registry/whois_registry_test.go
package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"domowner/internal/core/domain"
	"domowner/internal/core/ports"
	"domowner/internal/platform/logx"
	"domowner/internal/testutil"
)

type stubClient struct {
	name    string
	timeout time.Duration
}

func (s *stubClient) Name() string { return s.name }
func (s *stubClient) Lookup(context.Context, string) (string, error) {
	return "Registrant Organization: Stub", nil
}

func stubFactory(name string) WhoisFactory {
	return func(cfg ports.WhoisClientConfig, _ logx.Logger) (ports.WhoisClient, error) {
		return &stubClient{name: name, timeout: cfg.Timeout}, nil
	}
}

func TestWhoisRegistry_RegisterAndBuild(t *testing.T) {
	r := NewWhoisRegistry(logx.NewNop())

	testutil.AssertNoError(t, r.Register("port43", stubFactory("port43"), "WHOIS protocol"), "register port43")
	testutil.AssertNoError(t, r.Register("RDAP", stubFactory("rdap"), "RDAP"), "register rdap")

	client, err := r.Build("Port43", ports.WhoisClientConfig{Timeout: 15 * time.Second}, logx.NewNop())
	testutil.AssertNoError(t, err, "build")
	testutil.AssertEqual(t, client.Name(), "port43", "name")
	testutil.AssertEqual(t, client.(*stubClient).timeout, 15*time.Second, "config passed through")

	names := r.List()
	testutil.AssertLen(t, names, 2, "registered backends")
	testutil.AssertEqual(t, names[0], "port43", "sorted")
	testutil.AssertEqual(t, names[1], "rdap", "sorted")

	info, ok := r.Info("rdap")
	testutil.AssertTrue(t, ok, "info present")
	testutil.AssertEqual(t, info.Description, "RDAP", "description")
}

func TestWhoisRegistry_Errors(t *testing.T) {
	r := NewWhoisRegistry(logx.NewNop())
	r.MustRegister("port43", stubFactory("port43"), "")

	testutil.AssertError(t, r.Register("", stubFactory("x"), ""), "empty name")
	testutil.AssertError(t, r.Register("x", nil, ""), "nil factory")
	testutil.AssertError(t, r.Register("port43", stubFactory("dup"), ""), "duplicate")

	_, err := r.Build("carrier-pigeon", ports.WhoisClientConfig{}, logx.NewNop())
	testutil.AssertTrue(t, errors.Is(err, domain.ErrUnknownBackend), "unknown backend error")

	failing := func(ports.WhoisClientConfig, logx.Logger) (ports.WhoisClient, error) {
		return nil, errors.New("bad server")
	}
	r.MustRegister("broken", failing, "")
	_, err = r.Build("broken", ports.WhoisClientConfig{}, logx.NewNop())
	testutil.AssertError(t, err, "factory error propagates")
}

func TestOptions(t *testing.T) {
	opts := Options{
		"server":   "whois.verisign-grs.com",
		"retries":  float64(3),
		"referral": true,
		"timeout":  "5s",
		"grace":    2,
		"servers":  []any{"a", "b"},
		"bad":      []any{"a", 1},
	}

	testutil.AssertEqual(t, opts.String("server", ""), "whois.verisign-grs.com", "string")
	testutil.AssertEqual(t, opts.String("missing", "def"), "def", "string default")
	testutil.AssertEqual(t, opts.Int("retries", 0), 3, "int from float64")
	testutil.AssertEqual(t, opts.Bool("referral", false), true, "bool")
	testutil.AssertEqual(t, opts.Duration("timeout", 0), 5*time.Second, "duration string")
	testutil.AssertEqual(t, opts.Duration("grace", 0), 2*time.Second, "duration seconds")
	testutil.AssertEqual(t, opts.Duration("server", time.Minute), time.Minute, "unparseable duration")
	testutil.AssertLen(t, opts.Strings("servers", nil), 2, "string slice")
	testutil.AssertLen(t, opts.Strings("bad", []string{"x"}), 1, "mixed slice falls back")

	var nilOpts Options
	testutil.AssertEqual(t, nilOpts.Int("x", 7), 7, "nil options")
}
