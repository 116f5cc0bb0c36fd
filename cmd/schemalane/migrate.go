package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/schemalane/schemalane"
)

func runMigrate(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: schemalane migrate <init|up|status|fresh> [options]")
		return 1
	}

	verb, rest := args[0], args[1:]
	switch verb {
	case "init":
		return runInit(rest)
	case "up":
		return runUp(rest)
	case "status":
		return runStatus(rest)
	case "fresh":
		return runFresh(rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown migrate verb %q\n", verb)
		return 1
	}
}

// commonFlags registers the flags every verb but init shares. Only
// --database-url is bound through viper, so DATABASE_URL can supply it when
// the flag is not given; the other flags are read from the command line
// only.
func commonFlags(fs *pflag.FlagSet) (*viper.Viper, *string, *string, *string, *string) {
	databaseURL := fs.String("database-url", "", "PostgreSQL connection string (env DATABASE_URL)")
	schema := fs.String("schema", schemalane.DefaultSchema, "schema the engine operates in")
	dir := fs.String("dir", schemalane.DefaultMigrationsDir, "migrations directory")
	historyTable := fs.String("history-table", schemalane.DefaultHistoryTable, "history table name")

	v := viper.New()
	v.SetEnvPrefix("SCHEMALANE")
	v.AutomaticEnv()
	_ = v.BindPFlag("database-url", fs.Lookup("database-url"))
	_ = v.BindEnv("database-url", "DATABASE_URL")

	return v, databaseURL, schema, dir, historyTable
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func buildConfig(v *viper.Viper, schema, dir, historyTable, installedBy *string) schemalane.Config {
	return schemalane.Config{
		DatabaseURL:   v.GetString("database-url"),
		Schema:        *schema,
		MigrationsDir: *dir,
		HistoryTable:  *historyTable,
		InstalledBy:   *installedBy,
	}
}

func reportError(err error) int {
	fmt.Fprintln(os.Stderr, "error:", err)
	if se, ok := asSchemalaneError(err); ok {
		return se.ExitCode()
	}
	return 1
}

func asSchemalaneError(err error) (*schemalane.Error, bool) {
	se, ok := err.(*schemalane.Error)
	return se, ok
}

func runInit(args []string) int {
	fs := pflag.NewFlagSet("migrate init", pflag.ExitOnError)
	path := fs.String("path", schemalane.DefaultMigrationsDir, "migrations directory to scaffold")
	force := fs.Bool("force", false, "overwrite the starter migration if one already exists")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	report, err := schemalane.InitMigrationProject(*path, *force)
	if err != nil {
		return reportError(err)
	}

	fmt.Println(report)
	return 0
}

func runUp(args []string) int {
	fs := pflag.NewFlagSet("migrate up", pflag.ExitOnError)
	v, databaseURL, schema, dir, historyTable := commonFlags(fs)
	_ = databaseURL
	installedBy := fs.String("installed-by", "", "value recorded as installed_by (default: current_user)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	logger := newLogger()
	cfg := buildConfig(v, schema, dir, historyTable, installedBy)
	cfg.Logger = &logger

	db, err := schemalane.Connect(cfg.DatabaseURL)
	if err != nil {
		return reportError(err)
	}

	report, err := schemalane.Up(context.Background(), db, cfg, schemalane.NewExecutorRegistry())
	if err != nil {
		return reportError(err)
	}

	for _, m := range report.Applied {
		fmt.Printf("applied %-20s %-40s %dms\n", m.Version, m.Description, m.ExecutionTimeMS)
	}
	fmt.Printf("%d applied, %d already up to date\n", len(report.Applied), report.Skipped)
	return 0
}

func runFresh(args []string) int {
	fs := pflag.NewFlagSet("migrate fresh", pflag.ExitOnError)
	v, databaseURL, schema, dir, historyTable := commonFlags(fs)
	_ = databaseURL
	installedBy := fs.String("installed-by", "", "value recorded as installed_by (default: current_user)")
	yes := fs.Bool("yes", false, "confirm the destructive drop-and-reapply")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	logger := newLogger()
	cfg := buildConfig(v, schema, dir, historyTable, installedBy)
	cfg.Logger = &logger

	db, err := schemalane.Connect(cfg.DatabaseURL)
	if err != nil {
		return reportError(err)
	}

	report, err := schemalane.Fresh(context.Background(), db, cfg, schemalane.NewExecutorRegistry(), *yes)
	if err != nil {
		return reportError(err)
	}

	for _, m := range report.Applied {
		fmt.Printf("applied %-20s %-40s %dms\n", m.Version, m.Description, m.ExecutionTimeMS)
	}
	fmt.Printf("%d applied\n", len(report.Applied))
	return 0
}

func runStatus(args []string) int {
	fs := pflag.NewFlagSet("migrate status", pflag.ExitOnError)
	v, databaseURL, schema, dir, historyTable := commonFlags(fs)
	_ = databaseURL
	format := fs.String("format", "table", "output format: table|json")
	failOnPending := fs.Bool("fail-on-pending", false, "exit non-zero if any migration is pending")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	logger := newLogger()
	cfg := buildConfig(v, schema, dir, historyTable, new(string))
	cfg.Logger = &logger

	db, err := schemalane.Connect(cfg.DatabaseURL)
	if err != nil {
		return reportError(err)
	}

	report, err := schemalane.Status(context.Background(), db, cfg, schemalane.NewExecutorRegistry())
	if err != nil {
		return reportError(err)
	}

	switch *format {
	case "json":
		renderStatusJSON(report)
	default:
		renderStatusTable(report)
	}

	return report.ExitCode(*failOnPending)
}

func renderStatusTable(report schemalane.StatusReport) {
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tDESCRIPTION\tTYPE\tSTATE\tSCRIPT")
	for _, e := range report.Entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Version, e.Description, e.Type, e.State, e.Script)
	}
	w.Flush()
	fmt.Printf(
		"success=%d pending=%d failed=%d missing=%d checksum_mismatch=%d\n",
		report.Summary.Success, report.Summary.Pending, report.Summary.Failed,
		report.Summary.Missing, report.Summary.ChecksumMismatch,
	)
}

func renderStatusJSON(report schemalane.StatusReport) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
}
