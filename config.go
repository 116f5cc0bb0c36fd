package schemalane

import (
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

const (
	// DefaultSchema is the PostgreSQL schema the engine operates in when
	// the caller does not override it.
	DefaultSchema = "public"
	// DefaultHistoryTable is the Flyway-compatible history table name.
	DefaultHistoryTable = "flyway_schema_history"
	// DefaultMigrationsDir is the flat directory discovery walks by
	// default.
	DefaultMigrationsDir = "./migrations"
)

// Config collects every input the core consumes from a CLI or embedding
// caller. It carries no behavior beyond defaulting and validation; the
// engine treats it as a read-only value for the duration of one command.
type Config struct {
	DatabaseURL   string
	Schema        string
	MigrationsDir string
	HistoryTable  string
	InstalledBy   string

	// Logger receives discovery, lock, and apply events as structured
	// entries. Nil means "use the default stderr logger"; the engine
	// holds no logger of its own, so every call resolves this field fresh
	// rather than reading from shared state (spec.md §9, no global state).
	Logger *zerolog.Logger
}

// WithDefaults returns a copy of cfg with every zero-valued field replaced
// by its documented default. It never mutates the receiver.
func (cfg Config) WithDefaults() Config {
	out := cfg
	if out.Schema == "" {
		out.Schema = DefaultSchema
	}
	if out.MigrationsDir == "" {
		out.MigrationsDir = DefaultMigrationsDir
	}
	if out.HistoryTable == "" {
		out.HistoryTable = DefaultHistoryTable
	}
	return out
}

// validatePostgresURL rejects connection strings for any backend other
// than PostgreSQL before discovery runs, so that a config mistake fails
// atomically with the rest of validation rather than surfacing later as an
// opaque driver error. It accepts both URL-form (postgres://, postgresql://)
// and libpq key=value DSNs, using pgx's own parser as the source of truth
// for "is this a plausible PostgreSQL connection string".
func validatePostgresURL(raw string) error {
	if raw == "" {
		return configErrorf("--database-url (or DATABASE_URL) is required")
	}

	if idx := strings.Index(raw, "://"); idx >= 0 {
		scheme := strings.ToLower(raw[:idx])
		switch scheme {
		case "postgres", "postgresql":
			// fall through to parser validation below
		default:
			return validationErrorf("non-PostgreSQL database URL scheme %q", scheme)
		}
	}

	if _, err := pgconn.ParseConfig(raw); err != nil {
		return validationErrorf("invalid PostgreSQL connection string: %v", err)
	}

	return nil
}
