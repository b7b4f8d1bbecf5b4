// internal/platform/logx/logx.go
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Err(err error, kv ...any)
	With(kv ...any) Logger
	SetLevel(lvl Level)
}

// Options configures the zerolog backend.
type Options struct {
	Level  string    // debug|info|warn|error
	Format string    // console|json
	Writer io.Writer // defaults to stderr
}

// OptionsFromEnv reads DOMOWNER_LOG_LEVEL and DOMOWNER_LOG_FORMAT.
func OptionsFromEnv() Options {
	return Options{
		Level:  os.Getenv("DOMOWNER_LOG_LEVEL"),
		Format: os.Getenv("DOMOWNER_LOG_FORMAT"),
	}
}

type zeroLogger struct {
	mu *sync.RWMutex
	zl *zerolog.Logger
}

// New builds a logger from the environment.
func New() Logger {
	return NewWithOptions(OptionsFromEnv())
}

// NewWithOptions builds a logger writing to opts.Writer (stderr by default),
// so stdout stays free for command output.
func NewWithOptions(opts Options) Logger {
	var w io.Writer = os.Stderr
	if opts.Writer != nil {
		w = opts.Writer
	}
	if strings.ToLower(strings.TrimSpace(opts.Format)) != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: opts.Writer != nil}
	}

	zl := zerolog.New(w).
		Level(toZerolog(parseLevel(opts.Level))).
		With().Timestamp().Logger()

	return &zeroLogger{mu: &sync.RWMutex{}, zl: &zl}
}

// NewWithLevel creates a logger with a specific log level
func NewWithLevel(lvl Level) Logger {
	l := New()
	l.SetLevel(lvl)
	return l
}

// NewNop returns a logger that discards everything. Useful in tests.
func NewNop() Logger {
	zl := zerolog.Nop()
	return &zeroLogger{mu: &sync.RWMutex{}, zl: &zl}
}

func (s *zeroLogger) With(kv ...any) Logger {
	s.mu.RLock()
	child := s.zl.With().Fields(normalizeKV(kv)).Logger()
	s.mu.RUnlock()
	return &zeroLogger{mu: &sync.RWMutex{}, zl: &child}
}

func (s *zeroLogger) SetLevel(lvl Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.zl.Level(toZerolog(lvl))
	s.zl = &next
}

func (s *zeroLogger) Debug(msg string, kv ...any) { s.log(zerolog.DebugLevel, msg, kv...) }
func (s *zeroLogger) Info(msg string, kv ...any)  { s.log(zerolog.InfoLevel, msg, kv...) }
func (s *zeroLogger) Warn(msg string, kv ...any)  { s.log(zerolog.WarnLevel, msg, kv...) }
func (s *zeroLogger) Err(err error, kv ...any) {
	if err == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.zl.Error().Err(err).Fields(normalizeKV(kv)).Send()
}

func (s *zeroLogger) log(l zerolog.Level, msg string, kv ...any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.zl.WithLevel(l).Fields(normalizeKV(kv)).Msg(msg)
}

// normalizeKV turns alternating key/value pairs into a zerolog field list.
// Keys are stringified; a dangling key gets "(missing)".
func normalizeKV(kv []any) []any {
	out := make([]any, 0, len(kv)+1)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = toString(kv[i])
		}
		var v any = "(missing)"
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		if err, ok := v.(error); ok && err != nil {
			v = err.Error()
		}
		out = append(out, key, v)
	}
	return out
}

func toString(v any) string {
	return fmt.Sprint(v)
}

func toZerolog(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func parseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "dbg":
		return LevelDebug
	case "info", "inf", "":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "err", "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ParseLevel exposes the level parser for configuration code.
func ParseLevel(s string) Level {
	return parseLevel(s)
}
