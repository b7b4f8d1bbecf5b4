// internal/core/domain/whois.go
package domain

import (
	"encoding/json"
	"strings"
)

// WhoisUnavailable is stored in place of a registry response when the lookup
// failed. It is a fixed marker so a reader of the context can tell "no data"
// from "data that says nothing relevant".
const WhoisUnavailable = "No WHOIS info available"

// CanonicalDomain is a registrable domain: the label directly below the public
// suffix plus the suffix itself (e.g. "azure.com", "example.co.uk").
type CanonicalDomain string

// String implements fmt.Stringer.
func (d CanonicalDomain) String() string {
	return string(d)
}

// EqualFold compares two domains ignoring case.
func (d CanonicalDomain) EqualFold(other string) bool {
	return strings.EqualFold(string(d), other)
}

// WhoisEntry is the outcome of one registry lookup.
type WhoisEntry struct {
	Domain    CanonicalDomain `json:"domain"`
	Response  string          `json:"response"`
	Available bool            `json:"available"`
	Backend   string          `json:"backend,omitempty"`
	Cached    bool            `json:"cached,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// AvailableEntry builds an entry holding a registry response.
func AvailableEntry(d CanonicalDomain, response string) WhoisEntry {
	return WhoisEntry{Domain: d, Response: response, Available: true}
}

// UnavailableEntry builds an entry holding the sentinel for a failed lookup.
func UnavailableEntry(d CanonicalDomain, err error) WhoisEntry {
	e := WhoisEntry{Domain: d, Response: WhoisUnavailable}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WhoisResult maps each requested domain to its entry, in request order.
// Setting a domain twice replaces the first entry in place.
type WhoisResult struct {
	entries []WhoisEntry
	index   map[CanonicalDomain]int
}

// NewWhoisResult builds a result from entries in the given order.
func NewWhoisResult(entries ...WhoisEntry) WhoisResult {
	var r WhoisResult
	for _, e := range entries {
		r.Set(e)
	}
	return r
}

// Set stores an entry, replacing any previous entry for the same domain.
func (r *WhoisResult) Set(e WhoisEntry) {
	if r.index == nil {
		r.index = make(map[CanonicalDomain]int)
	}
	if i, ok := r.index[e.Domain]; ok {
		r.entries[i] = e
		return
	}
	r.index[e.Domain] = len(r.entries)
	r.entries = append(r.entries, e)
}

// Get returns the entry for a domain.
func (r WhoisResult) Get(d CanonicalDomain) (WhoisEntry, bool) {
	i, ok := r.index[d]
	if !ok {
		return WhoisEntry{}, false
	}
	return r.entries[i], true
}

// Len returns the number of entries.
func (r WhoisResult) Len() int {
	return len(r.entries)
}

// Entries returns a copy of the entries in request order.
func (r WhoisResult) Entries() []WhoisEntry {
	out := make([]WhoisEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Failed returns the domains whose lookup produced the sentinel.
func (r WhoisResult) Failed() []CanonicalDomain {
	var out []CanonicalDomain
	for _, e := range r.entries {
		if !e.Available {
			out = append(out, e.Domain)
		}
	}
	return out
}

// MarshalJSON encodes the entries as an ordered array.
func (r WhoisResult) MarshalJSON() ([]byte, error) {
	if r.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.entries)
}

// UnmarshalJSON decodes an array of entries.
func (r *WhoisResult) UnmarshalJSON(data []byte) error {
	var entries []WhoisEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*r = NewWhoisResult(entries...)
	return nil
}
