package storage

import (
	"database/sql"
	"fmt"
)

// schemaVersion is bumped whenever the runs table shape changes;
// migrate brings older databases forward.
const schemaVersion = 1

// runsDDL defines the one table this package owns. Summary columns are
// denormalized from the record so history listings never parse the
// full record JSON. Run identity and timestamps live only in these
// columns, never inside record_json.
const runsDDL = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		scope TEXT NOT NULL,
		roots_json TEXT NOT NULL,
		score REAL NOT NULL,
		grade TEXT NOT NULL,
		no_data INTEGER NOT NULL,
		orphan_ratio REAL NOT NULL,
		chain_completeness REAL NOT NULL,
		format_compliance REAL NOT NULL,
		total_occurrences INTEGER NOT NULL,
		orphaned INTEGER NOT NULL,
		malformed INTEGER NOT NULL,
		root_count INTEGER NOT NULL,
		spec_roots INTEGER NOT NULL,
		complete_roots INTEGER NOT NULL,
		record_json TEXT NOT NULL
	)
`

var runIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)",
	"CREATE INDEX IF NOT EXISTS idx_runs_grade ON runs(grade)",
}

// createSchema builds all tables for a fresh database.
func (db *DB) createSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)"); err != nil {
			return err
		}
		if _, err := tx.Exec(runsDDL); err != nil {
			return fmt.Errorf("failed to create runs table: %w", err)
		}
		for _, ddl := range runIndexes {
			if _, err := tx.Exec(ddl); err != nil {
				return fmt.Errorf("failed to create index: %w", err)
			}
		}
		if err := stampVersion(tx, schemaVersion); err != nil {
			return err
		}
		db.log.Info("History schema initialized", map[string]interface{}{
			"version": schemaVersion,
		})
		return nil
	})
}

// migrate brings an existing database up to the current schema.
func (db *DB) migrate() error {
	version, err := db.storedVersion()
	if err != nil {
		return err
	}
	if version == schemaVersion {
		db.log.Debug("History schema is current", map[string]interface{}{
			"version": version,
		})
		return nil
	}

	db.log.Info("Migrating history schema", map[string]interface{}{
		"from_version": version,
		"to_version":   schemaVersion,
	})

	// Migrations run sequentially here as the schema evolves.

	return nil
}

// storedVersion reads the stamped schema version. 0 means the stamp
// table is missing or empty.
func (db *DB) storedVersion() (int, error) {
	var name string
	err := db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&name)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

// stampVersion replaces the stored schema version.
func stampVersion(tx *sql.Tx, v int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", v)
	return err
}
