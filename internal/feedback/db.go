// Package feedback persists the generation history: one row per attempt in
// detection_results with its full parameter snapshot in
// generation_parameters, plus periodically rebuilt sweet-spot
// recommendations. History is append-only; windowing happens at query time.
package feedback

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Open initializes the SQLite feedback database at the given path.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := userVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS detection_results (
		  id             TEXT PRIMARY KEY,
		  material       TEXT NOT NULL,
		  component_type TEXT NOT NULL,
		  attempt_num    INTEGER NOT NULL,
		  success        INTEGER NOT NULL,
		  ai_score       REAL NOT NULL,
		  human_score    REAL NOT NULL,
		  readable       INTEGER NOT NULL,
		  created_at     INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_detection_component_time
		ON detection_results(component_type, created_at DESC);

		CREATE INDEX IF NOT EXISTS idx_detection_material
		ON detection_results(material, component_type);

		CREATE TABLE IF NOT EXISTS generation_parameters (
		  result_id         TEXT PRIMARY KEY REFERENCES detection_results(id),
		  temperature       REAL NOT NULL,
		  frequency_penalty REAL NOT NULL,
		  presence_penalty  REAL NOT NULL,
		  params_json       TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS sweet_spot_recommendations (
		  component_type TEXT PRIMARY KEY,
		  params_json    TEXT NOT NULL,
		  sample_size    INTEGER NOT NULL,
		  rebuilt_at     INTEGER NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

func userVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

func setUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
