package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ShayCichocki/ticketsmith/internal/tracker"
)

const (
	kindProjects   = "projects"
	kindIssueTypes = "issue_types"
)

// fresh reports whether a listing was fetched within maxAge.
// A zero maxAge means entries never expire.
func (db *DB) fresh(server, kind, scope string, maxAge time.Duration) (bool, error) {
	var fetched string
	err := db.conn.QueryRow(
		"SELECT fetched_at FROM listings WHERE server = ? AND kind = ? AND scope = ?",
		server, kind, scope,
	).Scan(&fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read listing: %w", err)
	}
	at, err := parseTime(fetched)
	if err != nil {
		return false, nil
	}
	return maxAge <= 0 || db.now().Sub(at) < maxAge, nil
}

func (db *DB) touch(tx *sql.Tx, server, kind, scope string) error {
	_, err := tx.Exec(`
		INSERT INTO listings (server, kind, scope, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(server, kind, scope) DO UPDATE SET fetched_at = excluded.fetched_at
	`, server, kind, scope, formatTime(db.now()))
	if err != nil {
		return fmt.Errorf("record listing: %w", err)
	}
	return nil
}

// Projects returns the cached project listing for server. ok is false when
// nothing is cached or the listing is older than maxAge.
func (db *DB) Projects(server string, maxAge time.Duration) ([]tracker.Project, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if ok, err := db.fresh(server, kindProjects, "", maxAge); !ok || err != nil {
		return nil, false, err
	}

	rows, err := db.conn.Query("SELECT key, name FROM projects WHERE server = ? ORDER BY position", server)
	if err != nil {
		return nil, false, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var out []tracker.Project
	for rows.Next() {
		var p tracker.Project
		if err := rows.Scan(&p.Key, &p.Name); err != nil {
			return nil, false, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate projects: %w", err)
	}
	return out, true, nil
}

// SaveProjects replaces the cached project listing for server.
func (db *DB) SaveProjects(server string, projects []tracker.Project) error {
	return db.transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM projects WHERE server = ?", server); err != nil {
			return fmt.Errorf("clear projects: %w", err)
		}
		for i, p := range projects {
			if _, err := tx.Exec(
				"INSERT INTO projects (server, key, name, position) VALUES (?, ?, ?, ?)",
				server, p.Key, p.Name, i,
			); err != nil {
				return fmt.Errorf("insert project %s: %w", p.Key, err)
			}
		}
		return db.touch(tx, server, kindProjects, "")
	})
}

// IssueTypes returns the cached issue types of a project.
func (db *DB) IssueTypes(server, projectKey string, maxAge time.Duration) ([]tracker.IssueType, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if ok, err := db.fresh(server, kindIssueTypes, projectKey, maxAge); !ok || err != nil {
		return nil, false, err
	}

	rows, err := db.conn.Query(
		"SELECT id, name, subtask FROM issue_types WHERE server = ? AND project_key = ? ORDER BY position",
		server, projectKey,
	)
	if err != nil {
		return nil, false, fmt.Errorf("query issue types: %w", err)
	}
	defer rows.Close()

	var out []tracker.IssueType
	for rows.Next() {
		var it tracker.IssueType
		if err := rows.Scan(&it.ID, &it.Name, &it.Subtask); err != nil {
			return nil, false, fmt.Errorf("scan issue type: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate issue types: %w", err)
	}
	return out, true, nil
}

// SaveIssueTypes replaces the cached issue types of a project.
func (db *DB) SaveIssueTypes(server, projectKey string, types []tracker.IssueType) error {
	return db.transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM issue_types WHERE server = ? AND project_key = ?", server, projectKey); err != nil {
			return fmt.Errorf("clear issue types: %w", err)
		}
		for i, it := range types {
			if _, err := tx.Exec(
				"INSERT INTO issue_types (server, project_key, id, name, subtask, position) VALUES (?, ?, ?, ?, ?, ?)",
				server, projectKey, it.ID, it.Name, it.Subtask, i,
			); err != nil {
				return fmt.Errorf("insert issue type %s: %w", it.Name, err)
			}
		}
		return db.touch(tx, server, kindIssueTypes, projectKey)
	})
}

// Invalidate drops everything cached for server.
func (db *DB) Invalidate(server string) error {
	return db.transaction(func(tx *sql.Tx) error {
		for _, table := range []string{"listings", "projects", "issue_types"} {
			if _, err := tx.Exec("DELETE FROM "+table+" WHERE server = ?", server); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
