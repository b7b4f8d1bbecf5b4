package rdap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"domowner/internal/core/ports"
	"domowner/internal/platform/errors"
	"domowner/internal/platform/logx"
	"domowner/internal/platform/registry"
	"domowner/internal/testutil"
)

const azureRDAP = `{
  "objectClassName": "domain",
  "handle": "2176258_DOMAIN_COM-VRSN",
  "ldhName": "AZURE.COM",
  "status": ["client delete prohibited", "client transfer prohibited"],
  "entities": [
    {
      "roles": ["registrar"],
      "vcardArray": ["vcard", [["version", {}, "text", "4.0"], ["fn", {}, "text", "MarkMonitor Inc."]]],
      "publicIds": [{"type": "IANA Registrar ID", "identifier": "292"}],
      "entities": [
        {
          "roles": ["abuse"],
          "vcardArray": ["vcard", [["fn", {}, "text", ""], ["email", {}, "text", "abusecomplaints@markmonitor.com"]]]
        }
      ]
    },
    {
      "roles": ["registrant"],
      "vcardArray": ["vcard", [
        ["fn", {}, "text", "REDACTED FOR PRIVACY"],
        ["org", {}, "text", "Microsoft Corporation"],
        ["adr", {"cc": "US"}, "text", ["", "", "", "", "WA", "", ""]]
      ]]
    }
  ],
  "nameservers": [{"ldhName": "NS1-39.AZURE-DNS.COM"}, {"ldhName": "NS2-39.AZURE-DNS.NET"}],
  "events": [
    {"eventAction": "registration", "eventDate": "1996-03-29T05:00:00Z"},
    {"eventAction": "expiration", "eventDate": "2027-03-30T04:00:00Z"},
    {"eventAction": "last changed", "eventDate": "2025-02-25T10:03:32Z"}
  ],
  "secureDNS": {"delegationSigned": false}
}`

func newTestRDAP(t *testing.T, handler http.HandlerFunc) *RDAP {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(ports.WhoisClientConfig{BaseURL: srv.URL + "/", Timeout: 2 * time.Second}, "domowner-test", logx.NewNop())
}

func TestRDAP_Lookup(t *testing.T) {
	var gotPath, gotUA string
	r := newTestRDAP(t, func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		gotUA = req.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rdap+json")
		w.Write([]byte(azureRDAP))
	})

	text, err := r.Lookup(context.Background(), "Azure.com")
	testutil.AssertNoError(t, err, "lookup")

	testutil.AssertEqual(t, gotPath, "/domain/azure.com", "path")
	testutil.AssertEqual(t, gotUA, "domowner-test", "user agent")

	for _, want := range []string{
		"Domain Name: AZURE.COM",
		"Domain Status: client delete prohibited, client transfer prohibited",
		"Registrar: MarkMonitor Inc.",
		"Registrar IANA ID: 292",
		"Registrar Abuse Contact Email: abusecomplaints@markmonitor.com",
		"Registrant Name: REDACTED FOR PRIVACY",
		"Registrant Organization: Microsoft Corporation",
		"Registrant State/Province: WA",
		"Registrant Country: US",
		"Name Server: ns1-39.azure-dns.com",
		"Creation Date: 1996-03-29T05:00:00Z",
		"Updated Date: 2025-02-25T10:03:32Z",
		"Registry Expiry Date: 2027-03-30T04:00:00Z",
		"DNSSEC: unsigned",
	} {
		testutil.AssertContains(t, text, want, "rendered text")
	}
	testutil.AssertFalse(t, strings.HasSuffix(text, "\n"), "no trailing newline")
}

func TestRDAP_NotFound(t *testing.T) {
	r := newTestRDAP(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := r.Lookup(context.Background(), "nope.example")
	testutil.AssertTrue(t, errors.IsNotFound(err), "404 maps to not found")
}

func TestRDAP_InvalidJSON(t *testing.T) {
	r := newTestRDAP(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := r.Lookup(context.Background(), "azure.com")
	testutil.AssertTrue(t, errors.IsInvalidResponse(err), "html body is invalid")
}

func TestRDAP_EmptyObject(t *testing.T) {
	r := newTestRDAP(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := r.Lookup(context.Background(), "azure.com")
	testutil.AssertTrue(t, errors.IsInvalidResponse(err), "empty object is invalid")
}

func TestRDAP_EmptyDomain(t *testing.T) {
	r := New(ports.WhoisClientConfig{}, "", logx.NewNop())
	_, err := r.Lookup(context.Background(), "")
	testutil.AssertTrue(t, errors.IsInvalidInput(err), "empty domain")
	testutil.AssertEqual(t, r.baseURL, defaultBaseURL, "default base url")
}

func TestVCardField(t *testing.T) {
	vcard := []interface{}{
		"vcard",
		[]interface{}{
			[]interface{}{"version", map[string]interface{}{}, "text", "4.0"},
			[]interface{}{"FN", map[string]interface{}{}, "text", "Jane Doe"},
			[]interface{}{"org", map[string]interface{}{}, "text", []interface{}{"ACME", "Legal"}},
		},
	}

	testutil.AssertEqual(t, vcardField(vcard, "fn"), "Jane Doe", "case insensitive")
	testutil.AssertEqual(t, vcardField(vcard, "org"), "ACME, Legal", "structured org")
	testutil.AssertEqual(t, vcardField(vcard, "email"), "", "missing")
	testutil.AssertEqual(t, vcardField(nil, "fn"), "", "invalid vcard")
}

func TestVCardAddress(t *testing.T) {
	vcard := []interface{}{
		"vcard",
		[]interface{}{
			[]interface{}{"adr", map[string]interface{}{}, "text",
				[]interface{}{"", "", "123 Main St", "Anytown", "CA", "12345", "US"}},
		},
	}

	addr := vcardAddress(vcard)
	testutil.AssertEqual(t, addr["street"], "123 Main St", "street")
	testutil.AssertEqual(t, addr["region"], "CA", "region")
	testutil.AssertEqual(t, addr["country"], "US", "country")

	testutil.AssertTrue(t, vcardAddress([]interface{}{"vcard", []interface{}{}}) == nil, "no adr")
}

func TestIsRedacted(t *testing.T) {
	mk := func(fn, email string) []interface{} {
		props := []interface{}{[]interface{}{"fn", map[string]interface{}{}, "text", fn}}
		if email != "" {
			props = append(props, []interface{}{"email", map[string]interface{}{}, "text", email})
		}
		return []interface{}{"vcard", props}
	}

	testutil.AssertTrue(t, isRedacted(mk("John", "redacted@example.com")), "redacted email")
	testutil.AssertTrue(t, isRedacted(mk("REDACTED FOR PRIVACY", "john@example.com")), "redacted name")
	testutil.AssertTrue(t, isRedacted(mk("John", "privacy@example.com")), "privacy email")
	testutil.AssertTrue(t, isRedacted(mk("John", "")), "no email")
	testutil.AssertFalse(t, isRedacted(mk("John", "john@example.com")), "visible contact")
}

func TestRegister(t *testing.T) {
	r := registry.NewWhoisRegistry(logx.NewNop())
	testutil.AssertNoError(t, Register(r, "ua"), "register")

	c, err := r.Build(Name, ports.WhoisClientConfig{Options: map[string]any{"base_url": "https://rdap.example.net/"}}, logx.NewNop())
	testutil.AssertNoError(t, err, "build")
	testutil.AssertEqual(t, c.(*RDAP).baseURL, "https://rdap.example.net", "base url from options")

	_, err = r.Build(Name, ports.WhoisClientConfig{BaseURL: "::not a url"}, logx.NewNop())
	testutil.AssertError(t, err, "invalid base url")
}
