// Package logging provides the structured, leveled logger used by every
// subsystem in this repository. It is a thin wrapper over erigon-lib/log/v3
// (a log15-style structured logger), used throughout instead of reaching
// for the standard library's log package.
package logging

import (
	log "github.com/erigontech/erigon-lib/log/v3"
)

// Logger is re-exported so callers don't need to import log/v3 directly.
type Logger = log.Logger

// New creates a component-scoped logger, e.g. logging.New("txpool").
func New(component string, ctx ...interface{}) Logger {
	return log.New(append([]interface{}{"component", component}, ctx...)...)
}

// Root returns the process-wide root logger.
func Root() Logger { return log.Root() }
