// Package enginelog builds module loggers on top of the root geth logger.
package enginelog

import (
	"log/slog"

	"github.com/ethereum/go-ethereum/log"
	zkrlog "github.com/zircuit-labs/zkr-go-common/log"
)

// New returns a logger tagged with the given module name. It keeps the root
// logger's output format and renders wrapped errors with their stack traces.
func New(module string) log.Logger {
	handler := zkrlog.NewLoggableErrorHandler(log.Root().Handler())
	return NewAdapter(slog.New(handler).With("module", module))
}

// NewWith is New plus extra context attributes.
func NewWith(module string, ctx ...any) log.Logger {
	return New(module).With(ctx...)
}
