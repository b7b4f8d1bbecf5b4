// internal/core/usecases/context_builder_test.go
package usecases

import (
	"errors"
	"testing"

	"domowner/internal/core/domain"
	"domowner/internal/testutil"
)

func TestBuildContext_Literal(t *testing.T) {
	whois := domain.NewWhoisResult(domain.AvailableEntry("x.com", "owner info"))

	got := BuildContext(rec("id", "x"), whois)

	testutil.AssertEqual(t, got, "id: x WHOIS data for x.com: owner info", "literal concatenation")
}

func TestBuildContext_OrderAndValues(t *testing.T) {
	r := rec(
		"name", "azure",
		"stars", 5,
		"archived", false,
		"topics", []any{"cloud"},
		"owner", nil,
	)
	whois := domain.NewWhoisResult(
		domain.AvailableEntry("azure.com", "Registrant: Microsoft Corporation"),
		domain.UnavailableEntry("example.org", errors.New("timeout")),
	)

	got := BuildContext(r, whois)

	want := "name: azure stars: 5 archived: false topics: [\"cloud\"] owner: null " +
		"WHOIS data for azure.com: Registrant: Microsoft Corporation " +
		"WHOIS data for example.org: " + domain.WhoisUnavailable
	testutil.AssertEqual(t, got, want, "context")
}

func TestBuildContext_Empty(t *testing.T) {
	testutil.AssertEqual(t, BuildContext(domain.Record{}, domain.WhoisResult{}), "", "empty inputs")
	testutil.AssertEqual(t, BuildContext(rec("id", "x"), domain.WhoisResult{}), "id: x", "no whois")
}

func TestBuildContext_Deterministic(t *testing.T) {
	r := rec("b", "2", "a", "1")
	w := domain.NewWhoisResult(domain.AvailableEntry("b.com", "B"), domain.AvailableEntry("a.com", "A"))

	testutil.AssertEqual(t, BuildContext(r, w), BuildContext(r, w), "same output")
	testutil.AssertEqual(t, BuildContext(r, w), "b: 2 a: 1 WHOIS data for b.com: B WHOIS data for a.com: A", "input order kept")
}
