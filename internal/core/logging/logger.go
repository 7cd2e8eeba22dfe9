// Package logging holds the shared zerolog helpers: component loggers and
// the hook that lifts session fields out of a context.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a child of the global logger tagged with the "cmp" key.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}
