package schemalane

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/schemalane/schemalane/internal/models"
	"github.com/schemalane/schemalane/internal/repository"
)

// State is the classification the Status Evaluator assigns to one
// StatusEntry.
type State string

const (
	StateSuccess          State = "Success"
	StatePending          State = "Pending"
	StateFailed           State = "Failed"
	StateMissing          State = "Missing"
	StateChecksumMismatch State = "ChecksumMismatch"
)

// StatusEntry pairs a Plan entry and/or a history row with one
// classification. It is derived fresh on every call, never stored.
type StatusEntry struct {
	Version       string        `json:"version"`
	Description   string        `json:"description"`
	Type          MigrationKind `json:"type"`
	Script        string        `json:"script"`
	Checksum      *int32        `json:"checksum,omitempty"`
	InstalledRank *int          `json:"installed_rank,omitempty"`
	ExecutionTime *int          `json:"execution_time_ms,omitempty"`
	State         State         `json:"state"`
}

// StatusSummary tallies StatusEntry.State across a StatusReport, used both
// for human-readable rendering and for the --fail-on-pending exit check.
type StatusSummary struct {
	Success          int `json:"success"`
	Pending          int `json:"pending"`
	Failed           int `json:"failed"`
	Missing          int `json:"missing"`
	ChecksumMismatch int `json:"checksum_mismatch"`
}

// StatusReport is the result of joining a Plan against history.
type StatusReport struct {
	Schema       string        `json:"schema"`
	HistoryTable string        `json:"history_table"`
	Entries      []StatusEntry `json:"entries"`
	Summary      StatusSummary `json:"summary"`
}

// Status evaluates the current Plan against whatever has been committed
// to the history table, without taking the advisory lock: spec.md §9
// deliberately permits status to run concurrently with an in-progress up.
func Status(ctx context.Context, db *gorm.DB, cfg Config, registry *ExecutorRegistry) (StatusReport, error) {
	cfg = cfg.WithDefaults()

	// Status never needs to resolve executors; it only reads. ctx and
	// registry are part of the signature for parity with Up and Fresh.
	plan, err := Discover(cfg)
	if err != nil {
		return StatusReport{}, err
	}

	exists, err := repository.Exists(db, cfg.Schema, cfg.HistoryTable)
	if err != nil {
		return StatusReport{}, newError(KindDatabase, err)
	}

	var history []models.HistoryRow
	if exists {
		history, err = repository.Load(db, cfg.Schema, cfg.HistoryTable)
		if err != nil {
			return StatusReport{}, newError(KindDatabase, err)
		}
	}

	report := evaluateStatus(cfg.Schema, cfg.HistoryTable, plan, history)
	logger := resolveLogger(cfg)
	logger.Debug().
		Int("success", report.Summary.Success).
		Int("pending", report.Summary.Pending).
		Int("failed", report.Summary.Failed).
		Int("missing", report.Summary.Missing).
		Int("checksum_mismatch", report.Summary.ChecksumMismatch).
		Msg("status evaluated")

	return report, nil
}

// evaluateStatus is the pure join at the heart of the Status Evaluator:
// no I/O, so it is exercised directly by unit tests without a database.
func evaluateStatus(schema, historyTable string, plan Plan, history []models.HistoryRow) StatusReport {
	latest := latestHistoryByVersion(history)

	entries := make([]StatusEntry, 0, len(plan))
	for _, migration := range plan {
		entries = append(entries, classifyMigration(migration, latest))
	}

	seen := make(map[string]struct{}, len(plan))
	for _, migration := range plan {
		seen[migration.VersionDisplay] = struct{}{}
	}
	for _, row := range latest {
		if !row.Success {
			continue
		}
		if row.Version != nil {
			if _, ok := seen[*row.Version]; ok {
				continue
			}
		}
		entries = append(entries, missingEntry(row))
	}
	// latestHistoryByVersion cannot key rows with no recorded version, so
	// they are read from the full history here.
	for _, row := range history {
		if row.Version == nil && row.Success {
			entries = append(entries, missingEntry(row))
		}
	}

	sort.SliceStable(entries, statusEntryLess(entries))

	summary := summarize(entries)

	return StatusReport{
		Schema:       schema,
		HistoryTable: historyTable,
		Entries:      entries,
		Summary:      summary,
	}
}

func classifyMigration(migration Migration, latest map[string]models.HistoryRow) StatusEntry {
	base := StatusEntry{
		Version:     migration.VersionDisplay,
		Description: migration.Description,
		Type:        migration.Kind,
		Script:      migration.Script,
		Checksum:    int32Ptr(migration.Checksum),
	}

	row, ok := latest[migration.VersionDisplay]
	if !ok {
		base.State = StatePending
		return base
	}

	rank := row.InstalledRank
	base.InstalledRank = &rank
	execTime := row.ExecutionTime
	base.ExecutionTime = &execTime

	switch {
	case !row.Success:
		base.State = StateFailed
	case !checksumsEqual(row.Checksum, migration.Checksum):
		base.State = StateChecksumMismatch
	default:
		base.State = StateSuccess
	}

	return base
}

func missingEntry(row models.HistoryRow) StatusEntry {
	rank := row.InstalledRank
	execTime := row.ExecutionTime
	version := ""
	if row.Version != nil {
		version = *row.Version
	}

	return StatusEntry{
		Version:       version,
		Description:   row.Description,
		Type:          MigrationKind(row.Type),
		Script:        row.Script,
		Checksum:      row.Checksum,
		InstalledRank: &rank,
		ExecutionTime: &execTime,
		State:         StateMissing,
	}
}

// statusEntryLess orders entries by parsed version first, falling back to
// script and then installed_rank when versions tie or fail to parse,
// mirroring the Rust ground truth's Option<ParsedVersion> comparison: an
// entry whose version string does not parse sorts before one that does.
func statusEntryLess(entries []StatusEntry) func(i, j int) bool {
	return func(i, j int) bool {
		vi, erri := parseVersionVector(entries[i].Version)
		vj, errj := parseVersionVector(entries[j].Version)

		switch {
		case erri != nil && errj == nil:
			return true
		case erri == nil && errj != nil:
			return false
		case erri == nil && errj == nil:
			if cmp := vi.Compare(vj); cmp != 0 {
				return cmp < 0
			}
		}

		if entries[i].Script != entries[j].Script {
			return entries[i].Script < entries[j].Script
		}

		ri, rj := -1, -1
		if entries[i].InstalledRank != nil {
			ri = *entries[i].InstalledRank
		}
		if entries[j].InstalledRank != nil {
			rj = *entries[j].InstalledRank
		}
		return ri < rj
	}
}

func summarize(entries []StatusEntry) StatusSummary {
	var s StatusSummary
	for _, e := range entries {
		switch e.State {
		case StateSuccess:
			s.Success++
		case StatePending:
			s.Pending++
		case StateFailed:
			s.Failed++
		case StateMissing:
			s.Missing++
		case StateChecksumMismatch:
			s.ChecksumMismatch++
		}
	}
	return s
}

func int32Ptr(v int32) *int32 { return &v }

// ExitCode implements the precedence rule from spec.md §4.8: Failed beats
// drift (Missing/ChecksumMismatch), which beats Pending (only checked when
// failOnPending is requested), which beats a clean report.
func (r StatusReport) ExitCode(failOnPending bool) int {
	switch {
	case r.Summary.Failed > 0:
		return 4
	case r.Summary.Missing > 0 || r.Summary.ChecksumMismatch > 0:
		return 3
	case failOnPending && r.Summary.Pending > 0:
		return ExitCodePendingMigrations
	default:
		return 0
	}
}
