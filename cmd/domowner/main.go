// cmd/domowner/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"domowner/internal/core/domain"
)

var (
	// Rellenables con -ldflags en build
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, cancel := rootContextWithSignals()
	code := run(ctx, os.Args[1:])
	cancel()
	os.Exit(code)
}

// run ejecuta el comando raíz y traduce el error a un exit code.
func run(ctx context.Context, args []string) int {
	root := newRootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return exitCode(err)
}

// usageError marca errores de uso o de entrada.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usageErr(err error) error {
	if err == nil {
		return nil
	}
	return usageError{err: err}
}

// exitCode: 2 para configuración, uso o record inválido; 1 para el resto
// (fallo de inferencia o de runtime).
func exitCode(err error) int {
	var ue usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ue),
		errors.Is(err, domain.ErrInvalidConfig),
		domain.IsRecordError(err):
		return exitUsage
	default:
		return exitFailure
	}
}

// rootContextWithSignals cancela el contexto con SIGINT/SIGTERM.
func rootContextWithSignals() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
