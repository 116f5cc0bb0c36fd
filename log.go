package schemalane

import (
	"os"

	"github.com/rs/zerolog"
)

// resolveLogger returns cfg.Logger if the caller set one, or a fresh
// default logger writing to stderr otherwise. It keeps no state between
// calls: the engine holds no logger of its own (spec.md §9, no global
// process state).
func resolveLogger(cfg Config) zerolog.Logger {
	if cfg.Logger != nil {
		return *cfg.Logger
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
