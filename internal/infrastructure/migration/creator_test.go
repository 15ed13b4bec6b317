package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMigrationFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- test"), 0644))
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add invoices table", "add_invoices_table"},
		{"Add-Payment-Allocations", "add_payment_allocations"},
		{"ADD_UNITS_TABLE", "add_units_table"},
		{"add__units__table", "add_units_table"},
		{"Add Buildings 123", "add_buildings_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, sanitizeName(tt.input), "input %q", tt.input)
	}
}

func TestCreateMigration(t *testing.T) {
	tmpDir := t.TempDir()

	mf, err := CreateMigration(tmpDir, "add invoices table", "Invoices with period and status")
	require.NoError(t, err)
	require.NotNil(t, mf)

	// Version stamps as YYYYMMDDHHMMSS.
	assert.Len(t, mf.Version, 14)
	assert.True(t, strings.HasSuffix(mf.UpPath, ".up.sql"))
	assert.True(t, strings.HasSuffix(mf.DownPath, ".down.sql"))

	upBase := strings.TrimSuffix(filepath.Base(mf.UpPath), ".up.sql")
	downBase := strings.TrimSuffix(filepath.Base(mf.DownPath), ".down.sql")
	assert.Equal(t, upBase, downBase)

	upContent, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(upContent), "add invoices table")
	assert.Contains(t, string(upContent), "Invoices with period and status")
	assert.Contains(t, string(upContent), "Write your UP migration SQL here")

	downContent, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(downContent), "Rollback")
	assert.Contains(t, string(downContent), "Write your DOWN migration SQL here")

	t.Run("creates missing directories", func(t *testing.T) {
		nested := filepath.Join(t.TempDir(), "nested", "migrations")

		_, err := CreateMigration(nested, "seed", "seed data")
		require.NoError(t, err)

		info, err := os.Stat(nested)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestListMigrations(t *testing.T) {
	t.Run("lists each up/down pair once", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeMigrationFiles(t, tmpDir,
			"000001_init_schema.up.sql", "000001_init_schema.down.sql",
			"000002_add_units.up.sql", "000002_add_units.down.sql",
			"000003_add_invoices.up.sql", "000003_add_invoices.down.sql",
		)

		migrations, err := ListMigrations(tmpDir)
		require.NoError(t, err)
		assert.Len(t, migrations, 3)
		for _, name := range []string{"000001_init_schema", "000002_add_units", "000003_add_invoices"} {
			assert.Contains(t, migrations, name)
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		migrations, err := ListMigrations(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, migrations)
	})

	t.Run("missing directory is not an error", func(t *testing.T) {
		migrations, err := ListMigrations("/nonexistent/path/to/migrations")
		require.NoError(t, err)
		assert.Empty(t, migrations)
	})

	t.Run("skips files that are not migrations", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeMigrationFiles(t, tmpDir,
			"000001_init.up.sql", "000001_init.down.sql",
			"README.md", "config.yaml", ".gitkeep",
		)

		migrations, err := ListMigrations(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_init"}, migrations)
	})

	t.Run("skips directories", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeMigrationFiles(t, tmpDir, "000001_init.up.sql", "000001_init.down.sql")
		require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "subdir.up.sql"), 0755))

		migrations, err := ListMigrations(tmpDir)
		require.NoError(t, err)
		assert.Len(t, migrations, 1)
	})
}
