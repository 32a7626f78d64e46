package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/chronoshop/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add repair notes", "add_repair_notes"},
		{"Add-Repair-Notes", "add_repair_notes"},
		{"ADD_REPAIR_NOTES", "add_repair_notes"},
		{"add__repair__notes", "add_repair_notes"},
		{"Warranty 24 months", "warranty_24_months"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add repair notes", "Free-text notes on a ticket")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_repair_notes.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_repair_notes.down.sql"), first.DownPath)

	second, err := CreateMigration(dir, "index sold_at", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- add_repair_notes")
	assert.Contains(t, string(up), "Free-text notes on a ticket")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback for add_repair_notes")
}

func TestCreateMigration_ContinuesAfterExistingVersions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_seed.up.sql"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_seed.down.sql"), nil, 0o644))

	mf, err := CreateMigration(dir, "next", "")
	require.NoError(t, err)
	assert.Equal(t, uint(8), mf.Version)
}

func TestCreateMigration_RejectsUnusableName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	require.Error(t, err)
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(dir, "first", "")
	require.NoError(t, err)
	assert.FileExists(t, mf.UpPath)
	assert.FileExists(t, mf.DownPath)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_add_index.up.sql":     {},
		"000001_init.up.sql":          {},
		"000001_init.down.sql":        {},
		"README.md":                   {},
		"notaversion_thing.up.sql":    {},
		"000003_one_way.up.sql":       {},
		"nested/000009_skip.up.sql":   {},
		"000002_add_index.down.sql":   {},
	}

	entries, err := ListMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, Entry{Version: 1, Name: "init", HasDown: true}, entries[0])
	assert.Equal(t, Entry{Version: 2, Name: "add_index", HasDown: true}, entries[1])
	assert.Equal(t, Entry{Version: 3, Name: "one_way", HasDown: false}, entries[2])
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	entries, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "absent")))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEmbeddedSchema_EveryUpHasDown(t *testing.T) {
	entries, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	assert.Equal(t, uint(1), entries[0].Version)
	for _, e := range entries {
		assert.True(t, e.HasDown, "migration %d %s has no down file", e.Version, e.Name)
	}
}
