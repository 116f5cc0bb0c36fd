package schemalane

import (
	"errors"
	"fmt"
)

// Kind classifies a Schemalane error for exit-code and programmatic dispatch
// purposes. It deliberately mirrors the taxonomy in the specification rather
// than Go's error-string conventions, so callers can branch on Kind instead
// of matching messages.
type Kind int

const (
	KindValidation Kind = iota
	KindConfig
	KindDatabase
	KindDrift
	// KindFailedPresent means a history row with success = false blocks Up.
	// No command clears it: an operator deletes the failed row from the
	// history table by hand (or rolls forward with a new, higher version)
	// and then re-runs up.
	KindFailedPresent
	KindDestructiveGuard
	KindLock
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConfig:
		return "config"
	case KindDatabase:
		return "database"
	case KindDrift:
		return "drift"
	case KindFailedPresent:
		return "failed_present"
	case KindDestructiveGuard:
		return "destructive_guard"
	case KindLock:
		return "lock"
	default:
		return "unknown"
	}
}

// Error is the tagged error every exported Schemalane operation returns on
// failure. It carries enough structure for an embedding application to
// decide what to do without parsing strings, while still satisfying the
// plain error interface for CLI use.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ExitCode maps the error's Kind onto the process exit code table from the
// specification's external-interfaces section. Drift and FailedPresent each
// carry their own code because operators script against them differently:
// drift usually means "someone edited a file", a failed row means "the
// database is in a half-migrated state".
func (e *Error) ExitCode() int {
	switch e.Kind {
	case KindValidation:
		return 2
	case KindDrift:
		return 3
	case KindFailedPresent:
		return 4
	case KindDestructiveGuard:
		return 6
	default:
		return 1
	}
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func validationErrorf(format string, args ...any) *Error {
	return newError(KindValidation, fmt.Errorf(format, args...))
}

func configErrorf(format string, args ...any) *Error {
	return newError(KindConfig, fmt.Errorf(format, args...))
}

// ErrPendingMigrations is a sentinel for "pending migrations remain". Status
// does not return it: a pending migration is reported through
// StatusReport.ExitCode(true), which yields ExitCodePendingMigrations (5).
var ErrPendingMigrations = errors.New("pending migrations found")

// ExitCodePendingMigrations is the exit code for ErrPendingMigrations; it
// does not fit the Kind/ExitCode scheme above because it is conditional on
// a CLI flag rather than being an unconditional failure mode of the engine.
const ExitCodePendingMigrations = 5
