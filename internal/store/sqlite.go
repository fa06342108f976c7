package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"jobwatch/internal/model"
)

// Ensure SQLiteStore implements model.SnapshotStore.
var _ model.SnapshotStore = (*SQLiteStore)(nil)

// SQLiteStore keeps one raw snapshot row per employer in a SQLite database.
// The employer name is the unique key; writes are last-write-wins upserts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the snapshots table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS snapshots (
		employer_name TEXT PRIMARY KEY,
		external_id   TEXT NOT NULL,
		raw_snapshot  TEXT NOT NULL DEFAULT '',
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshots table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// GetSnapshot returns the stored raw snapshot for an employer. found is false
// when no row exists.
func (s *SQLiteStore) GetSnapshot(name string) (string, bool, error) {
	var raw string
	err := s.db.QueryRow(
		"SELECT raw_snapshot FROM snapshots WHERE employer_name = ?", name,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading snapshot for %s: %w", name, err)
	}
	return raw, true, nil
}

// UpsertSnapshot inserts a new employer row or overwrites the existing one's
// snapshot and external id, bumping updated_at.
func (s *SQLiteStore) UpsertSnapshot(name, externalID, raw string) error {
	_, err := s.db.Exec(`INSERT INTO snapshots (employer_name, external_id, raw_snapshot)
		VALUES (?, ?, ?)
		ON CONFLICT(employer_name) DO UPDATE SET
			external_id = excluded.external_id,
			raw_snapshot = excluded.raw_snapshot,
			updated_at = CURRENT_TIMESTAMP`,
		name, externalID, raw)
	if err != nil {
		return fmt.Errorf("upserting snapshot for %s: %w", name, err)
	}
	return nil
}

// ListEmployers returns every employer with a snapshot row, ordered by name.
// The scheduler re-reads this list on the discovery interval, so adding a row
// is how a new employer enters the polling rotation.
func (s *SQLiteStore) ListEmployers() ([]model.Employer, error) {
	rows, err := s.db.Query(
		"SELECT employer_name, external_id FROM snapshots ORDER BY employer_name")
	if err != nil {
		return nil, fmt.Errorf("listing employers: %w", err)
	}
	defer rows.Close()

	var employers []model.Employer
	for rows.Next() {
		var e model.Employer
		if err := rows.Scan(&e.Name, &e.ExternalID); err != nil {
			return nil, fmt.Errorf("scanning employer row: %w", err)
		}
		employers = append(employers, e)
	}
	return employers, rows.Err()
}

// AddEmployer registers an employer with an empty snapshot, so the next poll
// treats every listed posting as new. Adding an existing employer only
// updates its external id.
func (s *SQLiteStore) AddEmployer(name, externalID string) error {
	_, err := s.db.Exec(`INSERT INTO snapshots (employer_name, external_id)
		VALUES (?, ?)
		ON CONFLICT(employer_name) DO UPDATE SET
			external_id = excluded.external_id,
			updated_at = CURRENT_TIMESTAMP`,
		name, externalID)
	if err != nil {
		return fmt.Errorf("adding employer %s: %w", name, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
