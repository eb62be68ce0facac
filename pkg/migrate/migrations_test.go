package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/yardops-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.NotEmpty(t, matches, "no migration matching %s", suffix)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestRackMigrationGuardsOccupancy(t *testing.T) {
	content := readMigration(t, "create_yard_hierarchy")
	for _, check := range []string{
		"CREATE TABLE IF NOT EXISTS racks",
		"CREATE TYPE allocation_mode AS ENUM ('SLOT', 'LINEAR')",
		"CONSTRAINT ck_racks_occupied_le_capacity CHECK (occupied <= capacity AND occupied_meters <= capacity_meters)",
		"FOREIGN KEY (area_id) REFERENCES areas(id) ON DELETE CASCADE",
	} {
		if !strings.Contains(content, check) {
			t.Fatalf("expected migration to contain %q", check)
		}
	}
}

func TestReservationMigrationIndexesActiveWindows(t *testing.T) {
	content := readMigration(t, "create_storage_requests_and_reservations")
	for _, check := range []string{
		"assigned_rack_ids uuid[] NOT NULL DEFAULT '{}'",
		"CONSTRAINT ck_rack_reservations_window CHECK (start_date <= end_date)",
		"WHERE status = 'ACTIVE'",
	} {
		if !strings.Contains(content, check) {
			t.Fatalf("expected migration to contain %q", check)
		}
	}
}

func TestShipmentMigrationCarriesNotificationStamp(t *testing.T) {
	content := readMigration(t, "create_shipments")
	for _, check := range []string{
		"latest_customer_notification_at timestamptz",
		"manifest_received boolean NOT NULL DEFAULT false",
		"calendar_sync_status calendar_sync_status NOT NULL DEFAULT 'PENDING'",
		"drop_off_at timestamptz",
	} {
		if !strings.Contains(content, check) {
			t.Fatalf("expected migration to contain %q", check)
		}
	}
}

func TestOutboxMigrationDedupesShipmentReceived(t *testing.T) {
	content := readMigration(t, "create_outbox")
	require.Contains(t, content, "ux_outbox_events_event_aggregate")
	require.Contains(t, content, "WHERE event_type = 'shipment_received'")
}

func TestSettlementFailureMigrationAddsColumn(t *testing.T) {
	content := readMigration(t, "add_shipment_settlement_failed_at")
	require.Contains(t, content, "ADD COLUMN IF NOT EXISTS settlement_failed_at timestamptz")
	require.Contains(t, content, "DROP COLUMN IF EXISTS settlement_failed_at")
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, migrate.ValidateDir(dir))
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Rack Notes!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_rack_notes.sql"), path)
	require.NoError(t, migrate.ValidateDir(dir))
}

func TestValidateDirRejectsDownBeforeUp(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Down\nDROP TABLE racks;\n-- +goose Up\nCREATE TABLE racks();\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260301090000_racks.sql"), []byte(body), 0o644))
	require.ErrorContains(t, migrate.ValidateDir(dir), "must precede")
}

func TestValidateDirRejectsDuplicateVersions(t *testing.T) {
	dir := t.TempDir()
	body := []byte("-- +goose Up\n-- +goose Down\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260301090000_a.sql"), body, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260301090000_b.sql"), body, 0o644))
	require.ErrorContains(t, migrate.ValidateDir(dir), "duplicate migration version")
}

func TestCreateSQLMigrationRejectsEmptyName(t *testing.T) {
	_, err := migrate.CreateSQLMigration(t.TempDir(), "  !!  ")
	require.Error(t, err)
}
