package kv

import (
	"database/sql"
	"fmt"
)

// Migration is one step of the SQLite schema. Steps are applied in slice
// order and each version is recorded in schema_migrations.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// MigrationStatus reports the current and available schema versions.
type MigrationStatus struct {
	CurrentVersion   int             `json:"current_version"`
	AvailableVersion int             `json:"available_version"`
	Pending          []MigrationInfo `json:"pending"`
}

// MigrationInfo describes a single migration.
type MigrationInfo struct {
	Version     int    `json:"version"`
	Description string `json:"description"`
}

// migrations must stay sorted by Version.
var migrations = []Migration{
	{
		Version:     1,
		Description: "key-value table",
		SQL: `
CREATE TABLE IF NOT EXISTS kv (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`,
	},
}

// appliedVersion returns the highest recorded schema version. A database
// without the bookkeeping table is at version 0.
func appliedVersion(db *sql.DB) (int, error) {
	var tables int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_migrations'").Scan(&tables); err != nil {
		return 0, err
	}
	if tables == 0 {
		return 0, nil
	}
	var version int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

func pendingAfter(version int) []Migration {
	var pending []Migration
	for _, m := range migrations {
		if m.Version > version {
			pending = append(pending, m)
		}
	}
	return pending
}

// runMigrations applies every step newer than the recorded version, one
// transaction per step.
func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at TEXT NOT NULL
)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}
	version, err := appliedVersion(db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for _, m := range pendingAfter(version) {
		if err := applyMigration(db, m); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(db *sql.DB, m Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.Version, err)
	}
	if _, err := tx.Exec(m.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))", m.Version); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %d: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.Version, err)
	}
	return nil
}

// MigrationPlan returns the schema status of the database at path. It
// neither writes to the database nor takes the writer lock.
func MigrationPlan(path string) (*MigrationStatus, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return migrationPlan(db)
}

func migrationPlan(db *sql.DB) (*MigrationStatus, error) {
	version, err := appliedVersion(db)
	if err != nil {
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	status := &MigrationStatus{CurrentVersion: version}
	if n := len(migrations); n > 0 {
		status.AvailableVersion = migrations[n-1].Version
	}
	for _, m := range pendingAfter(version) {
		status.Pending = append(status.Pending, MigrationInfo{Version: m.Version, Description: m.Description})
	}
	return status, nil
}
