package schemalane

import (
	"fmt"
	"os"
	"path/filepath"
)

// InitReport summarizes what InitMigrationProject wrote to disk.
type InitReport struct {
	Root        string
	Created     []string
	Overwritten []string
}

const starterMigration = `V1__init.sql`

const starterMigrationBody = "-- Schemalane starter migration.\n" +
	"-- Add your schema here; create additional files as V<version>__<description>.sql.\n"

// InitMigrationProject scaffolds path as a migrations directory, seeding
// it with one starter file so that `up` has something to discover on a
// brand-new project. The scaffold generator proper (code-form migration
// boilerplate, project templates) is an external collaborator this
// package does not implement; this covers only the directory the core
// itself requires to exist.
func InitMigrationProject(path string, force bool) (InitReport, error) {
	report := InitReport{Root: path}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return InitReport{}, configErrorf("creating migrations directory %q: %w", path, err)
	}

	target := filepath.Join(path, starterMigration)
	_, statErr := os.Stat(target)
	exists := statErr == nil

	if exists && !force {
		return report, nil
	}

	if err := os.WriteFile(target, []byte(starterMigrationBody), 0o644); err != nil {
		return InitReport{}, configErrorf("writing starter migration %q: %w", target, err)
	}

	if exists {
		report.Overwritten = append(report.Overwritten, target)
	} else {
		report.Created = append(report.Created, target)
	}

	return report, nil
}

// String renders a short human-readable summary of an InitReport, used by
// the CLI's init command.
func (report InitReport) String() string {
	return fmt.Sprintf(
		"initialized migrations directory %s (created %d file(s), overwrote %d file(s))",
		report.Root, len(report.Created), len(report.Overwritten),
	)
}
