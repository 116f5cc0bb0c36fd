package schemalane

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// advisoryLockID is the fixed 64-bit key every Schemalane runner contends
// for. It is derived once from a stable string so the constant is
// documented by its source rather than by a bare magic number; the actual
// value must never change, or two binaries built against different
// versions of this package would no longer exclude each other.
var advisoryLockID = deriveAdvisoryLockID("schemalane.migrate")

func deriveAdvisoryLockID(seed string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	// pg_advisory_lock takes a signed bigint; masking off the sign bit
	// keeps the value non-negative, at the cost of one bit of the hash.
	return int64(h.Sum64() &^ (1 << 63))
}

// withAdvisoryLock pins one session from db's pool, acquires the
// session-scoped advisory lock, runs fn, and always attempts to release
// the lock before returning-even if fn failed. Bootstrap, Load, and
// Append for a single command all happen inside fn, on the connection
// handed to it, so that they observe the same session that holds the lock.
//
// This is the one place the engine drops from gorm's pooled *gorm.DB to a
// single pinned *sql.Conn: pg_advisory_lock is scoped to a backend
// session, which a connection pool does not otherwise preserve across
// calls.
func withAdvisoryLock(ctx context.Context, db *gorm.DB, logger zerolog.Logger, fn func(*gorm.DB) error) error {
	sqlDB, err := db.DB()
	if err != nil {
		return newError(KindDatabase, err)
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return newError(KindLock, err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		return newError(KindLock, err)
	}
	logger.Debug().Int64("lock_id", advisoryLockID).Msg("advisory lock acquired")

	pinned := db.Session(&gorm.Session{})
	pinned.Statement.ConnPool = singleConnPool{conn}

	operationErr := fn(pinned)

	_, unlockErr := conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID)
	logger.Debug().Int64("lock_id", advisoryLockID).Msg("advisory lock released")

	if operationErr != nil {
		return operationErr
	}
	if unlockErr != nil {
		return newError(KindLock, unlockErr)
	}
	return nil
}

// singleConnPool adapts a single pinned *sql.Conn to gorm's ConnPool
// interface, so every statement issued through the session-scoped *gorm.DB
// runs on the exact connection holding the advisory lock.
type singleConnPool struct {
	conn *sql.Conn
}

func (p singleConnPool) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return p.conn.PrepareContext(ctx, query)
}

func (p singleConnPool) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return p.conn.ExecContext(ctx, query, args...)
}

func (p singleConnPool) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return p.conn.QueryContext(ctx, query, args...)
}

func (p singleConnPool) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return p.conn.QueryRowContext(ctx, query, args...)
}

// BeginTx satisfies gorm's ConnPoolBeginner so that db.Transaction still
// opens its transaction on the pinned connection rather than a fresh one
// borrowed from the pool, which would not hold the advisory lock.
func (p singleConnPool) BeginTx(ctx context.Context, opts *sql.TxOptions) (gorm.ConnPool, error) {
	tx, err := p.conn.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// rawConn extracts the connection-like value actually backing db's current
// statement, whether that is a pinned *sql.Conn (outside any transaction)
// or the *sql.Tx gorm opened via singleConnPool.BeginTx (inside one).
// db.DB() cannot be used here: it only recognizes a bare *sql.DB pool,
// and the advisory-lock path never uses one.
func rawConn(db *gorm.DB) (rawSQLConn, error) {
	switch pool := db.Statement.ConnPool.(type) {
	case *sql.Tx:
		return pool, nil
	case singleConnPool:
		return pool.conn, nil
	case *sql.Conn:
		return pool, nil
	case *sql.DB:
		return pool, nil
	default:
		return nil, newError(KindDatabase, fmt.Errorf("unsupported connection pool type %T", pool))
	}
}
