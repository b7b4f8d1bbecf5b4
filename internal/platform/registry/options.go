package registry

import (
	"strings"
	"time"
)

// Options holds backend-specific settings decoded from YAML or JSON.
// Accessors return def when the key is missing or has the wrong type.
type Options map[string]any

func (o Options) lookup(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o[key]
	if !ok {
		v, ok = o[strings.ToLower(key)]
	}
	return v, ok
}

// String returns a non-empty string value.
func (o Options) String(key, def string) string {
	if v, ok := o.lookup(key); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

// Int accepts int, int64 and float64 (JSON numbers).
func (o Options) Int(key string, def int) int {
	v, ok := o.lookup(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

func (o Options) Bool(key string, def bool) bool {
	if v, ok := o.lookup(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Duration accepts time.Duration, a duration string ("5s") or a number of
// seconds.
func (o Options) Duration(key string, def time.Duration) time.Duration {
	v, ok := o.lookup(key)
	if !ok {
		return def
	}
	switch d := v.(type) {
	case time.Duration:
		return d
	case string:
		if parsed, err := time.ParseDuration(d); err == nil {
			return parsed
		}
	case int:
		return time.Duration(d) * time.Second
	case float64:
		return time.Duration(d * float64(time.Second))
	}
	return def
}

// Strings accepts []string or a []any of strings.
func (o Options) Strings(key string, def []string) []string {
	v, ok := o.lookup(key)
	if !ok {
		return def
	}
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return def
			}
			out = append(out, str)
		}
		return out
	}
	return def
}
