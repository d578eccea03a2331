package visited

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS visits (
	target           TEXT PRIMARY KEY,
	first_visited_at TEXT NOT NULL DEFAULT (datetime('now')),
	last_visited_at  TEXT NOT NULL DEFAULT (datetime('now')),
	visit_count      INTEGER NOT NULL DEFAULT 1
);
`

// Store is the on-disk visit history backing a Tracker.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the history database at path and ensures the
// schema is current. An outdated schema is dropped and recreated; the
// history is styling metadata, not user data worth migrating.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	var version int
	err = db.QueryRow(`SELECT version FROM schema_meta LIMIT 1`).Scan(&version)
	if err == nil && version != schemaVersion {
		if _, err := db.Exec(`DROP TABLE IF EXISTS visits; DROP TABLE IF EXISTS schema_meta;`); err != nil {
			db.Close()
			return nil, fmt.Errorf("reset outdated history schema: %w", err)
		}
		err = sql.ErrNoRows
	}
	if err != nil {
		if _, err := db.Exec(schemaV1); err != nil {
			db.Close()
			return nil, fmt.Errorf("create history schema: %w", err)
		}
		if _, err := db.Exec(`DELETE FROM schema_meta`); err != nil {
			db.Close()
			return nil, err
		}
		if _, err := db.Exec(`INSERT INTO schema_meta (version) VALUES (?)`, schemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &Store{db: db}, nil
}

// Record upserts a visit for target, bumping the counter and the
// last-visited timestamp on repeats.
func (s *Store) Record(target string) error {
	_, err := s.db.Exec(`
		INSERT INTO visits (target) VALUES (?)
		ON CONFLICT(target) DO UPDATE SET
			visit_count = visit_count + 1,
			last_visited_at = datetime('now')`, target)
	if err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

// Targets returns every recorded target.
func (s *Store) Targets() ([]string, error) {
	rows, err := s.db.Query(`SELECT target FROM visits ORDER BY last_visited_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("load visit history: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, rows.Err()
}

// VisitCount returns how many times target has been recorded, zero if never.
func (s *Store) VisitCount(target string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT visit_count FROM visits WHERE target = ?`, target).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count visits: %w", err)
	}
	return count, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
