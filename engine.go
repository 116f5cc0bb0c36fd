package schemalane

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Option configures Connect. It follows the teacher repo's functional-
// options convention (ManagerOption in the original db-migrator) rather
// than a builder struct, since every option here is genuinely optional
// and the defaults are sane for both CLI and embedded use.
type Option func(*connectSettings)

type connectSettings struct {
	maxOpenConns int
	maxIdleConns int
	gormLogLevel gormlogger.LogLevel
}

// WithPoolSize caps the number of open and idle connections gorm's
// underlying *sql.DB maintains. The advisory lock only ever pins one
// connection regardless of this setting; a larger pool only helps
// concurrent Status calls.
func WithPoolSize(maxOpen, maxIdle int) Option {
	return func(s *connectSettings) {
		s.maxOpenConns = maxOpen
		s.maxIdleConns = maxIdle
	}
}

// WithGormLogLevel sets GORM's own statement logger verbosity, separate
// from the engine's structured zerolog output.
func WithGormLogLevel(level gormlogger.LogLevel) Option {
	return func(s *connectSettings) { s.gormLogLevel = level }
}

// Connect opens a gorm.DB against databaseURL with sane defaults for a
// migration runner: a small connection pool (the engine is single-session
// for the duration of a lock-holding command) and Postgres's simple
// protocol, which the teacher's own constructor also preferred to avoid
// prepared-statement caching surprises across DDL-heavy sessions.
func Connect(databaseURL string, opts ...Option) (*gorm.DB, error) {
	if err := validatePostgresURL(databaseURL); err != nil {
		return nil, err
	}

	settings := connectSettings{
		maxOpenConns: 5,
		maxIdleConns: 1,
		gormLogLevel: gormlogger.Silent,
	}
	for _, opt := range opts {
		opt(&settings)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  databaseURL,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(settings.gormLogLevel),
	})
	if err != nil {
		return nil, newError(KindDatabase, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, newError(KindDatabase, err)
	}
	sqlDB.SetMaxOpenConns(settings.maxOpenConns)
	sqlDB.SetMaxIdleConns(settings.maxIdleConns)

	return db, nil
}
