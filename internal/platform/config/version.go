// internal/platform/config/version.go
package config

import (
	"fmt"
	"io"
	"runtime"
)

// BuildInfo is injected at link time through main's version variables.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// UserAgent is sent by every outbound HTTP client.
func (b BuildInfo) UserAgent() string {
	v := b.Version
	if v == "" {
		v = "dev"
	}
	return "domowner/" + v
}

// PrintVersion writes version information to w.
func PrintVersion(w io.Writer, b BuildInfo) {
	fmt.Fprintf(w, "domowner %s\n", b.Version)
	fmt.Fprintf(w, "  Commit:  %s\n", b.Commit)
	fmt.Fprintf(w, "  Built:   %s\n", b.Date)
	fmt.Fprintf(w, "  Go:      %s\n", runtime.Version())
}
