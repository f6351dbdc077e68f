package storage

import (
	"database/sql"
	"fmt"
)

type execQuerier interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// getOrCreateTag resolves a normalized tag name to its row ID, creating the
// tag on first use. Tags are never deleted by this subsystem.
func getOrCreateTag(q execQuerier, name string) (int64, error) {
	if _, err := q.Exec(`INSERT OR IGNORE INTO tags (name) VALUES (?);`, name); err != nil {
		return 0, fmt.Errorf("insert tag %q: %w", name, err)
	}
	var id int64
	if err := q.QueryRow(`SELECT id FROM tags WHERE name = ?;`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("fetch tag %q: %w", name, err)
	}
	return id, nil
}

// GetOrCreateTag is the standalone variant used outside an import
// transaction.
func (s *Store) GetOrCreateTag(name string) (int64, error) {
	return getOrCreateTag(s.db, name)
}

// ListTags returns all tag names in alphabetical order.
func (s *Store) ListTags() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM tags ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0, 32)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
