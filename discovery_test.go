package schemalane

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMigration(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestDiscoverOrdersByVersionNotLexically(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "V10__tenth.sql", "select 1;")
	writeMigration(t, dir, "V2__second.sql", "select 1;")

	plan, err := Discover(Config{MigrationsDir: dir})
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, "V2__second.sql", plan[0].Script)
	assert.Equal(t, "V10__tenth.sql", plan[1].Script)
}

func TestDiscoverSkipsUnrecognizedFiles(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "V1__init.sql", "select 1;")
	writeMigration(t, dir, "README.md", "not a migration")

	plan, err := Discover(Config{MigrationsDir: dir})
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "V1__init.sql", plan[0].Script)
}

func TestDiscoverRejectsDuplicateVersion(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "V1__init.sql", "select 1;")
	writeMigration(t, dir, "V1__also_init.sql", "select 1;")

	_, err := Discover(Config{MigrationsDir: dir})
	assert.Error(t, err)
}

func TestDiscoverRejectsMalformedFilename(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "init.sql", "select 1;")

	_, err := Discover(Config{MigrationsDir: dir})
	assert.Error(t, err)
}

func TestDiscoverComputesChecksumFromPayload(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "V1__init.sql", "select 1;")

	plan, err := Discover(Config{MigrationsDir: dir})
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, checksum([]byte("select 1;")), plan[0].Checksum)
}
