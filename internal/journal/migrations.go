package journal

import (
	"fmt"
	"strings"

	"surveyor/internal/log"
)

// Migration is one schema step.
type Migration struct {
	ID          int
	Description string
	SQL         string
}

// migrations are applied in order; never edit one that has shipped.
var migrations = []Migration{
	{
		ID:          1,
		Description: "Sessions and committed batches",
		SQL: `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	started_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS batches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	zone TEXT NOT NULL,
	committed_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS batch_surveys (
	batch_id INTEGER NOT NULL REFERENCES batches(id),
	idx INTEGER NOT NULL,
	resource TEXT NOT NULL,
	dx INTEGER NOT NULL,
	dy INTEGER NOT NULL,
	PRIMARY KEY (batch_id, idx)
);`,
	},
	{
		ID:          2,
		Description: "Collections",
		SQL: `
CREATE TABLE IF NOT EXISTS collections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	zone TEXT NOT NULL,
	idx INTEGER NOT NULL,
	resource TEXT NOT NULL,
	dx INTEGER NOT NULL,
	dy INTEGER NOT NULL,
	collected_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_collections_resource ON collections(resource);`,
	},
}

// runMigrations applies every migration newer than the recorded version.
func (j *Journal) runMigrations() error {
	if _, err := j.db.Exec(`
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	current, err := j.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.ID <= current {
			continue
		}
		log.Debug("applying journal migration", "id", m.ID, "description", m.Description)
		if err := j.applyMigration(m); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.ID, err)
		}
	}
	return nil
}

// SchemaVersion returns the newest applied migration, 0 for a fresh file.
func (j *Journal) SchemaVersion() (int, error) {
	var version int
	err := j.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version;`).Scan(&version)
	return version, err
}

func (j *Journal) applyMigration(m Migration) error {
	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(m.SQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute migration statement: %w", err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?);`, m.ID); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}
