package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShippedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))

	entries, err := Embedded.ReadDir(EmbeddedDir)
	require.NoError(t, err)
	require.Len(t, entries, 4)
}

func TestOrdersMigrationGuardsSnapshots(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_orders.sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(data)

	for _, sub := range []string{
		"CONSTRAINT orders_stripe_session_id_key UNIQUE (stripe_session_id)",
		"FOREIGN KEY (menu_item_id) REFERENCES menu_items(id) ON DELETE SET NULL",
		"FOREIGN KEY (ingredient_id) REFERENCES ingredients(id) ON DELETE SET NULL",
		"DROP TABLE IF EXISTS orders",
	} {
		require.Contains(t, content, sub)
	}
}

func TestMenuMigrationKeepsRequiredFree(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_menu.sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	require.Contains(t, string(data), "CHECK (type <> 'required' OR add_price = 0)")
	require.Contains(t, string(data), "ON DELETE CASCADE")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 9, 1, 12, 30, 0, 0, time.UTC)

	path, err := CreateSQLMigration(dir, "Add Order Notes!", now)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "20250901123000_add_order_notes.sql"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "-- +goose Up"))
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "Add Order Notes!", now)
	require.Error(t, err, "duplicate file must be rejected")

	_, err = CreateSQLMigration(dir, "!!!", now)
	require.Error(t, err)
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, ValidateDir(dir))
}
