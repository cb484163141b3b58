// Package sqlite persists projects as JSON scene documents in a local
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"cascade-engine/application/store"
	"cascade-engine/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	name       TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// ProjectInfo is a row in the project listing
type ProjectInfo struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProjectStore saves and loads complete scene documents
type ProjectStore struct {
	db   *sql.DB
	path string
}

// NewProjectStore opens the database at the given path, creating its
// directory and schema as needed.
func NewProjectStore(path string) (*ProjectStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &ProjectStore{db: db, path: path}, nil
}

// Close closes the database connection
func (s *ProjectStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *ProjectStore) Path() string {
	return s.path
}

// SaveProject upserts a named project document
func (s *ProjectStore) SaveProject(ctx context.Context, name string, data *store.SceneData) error {
	if name == "" {
		return errors.NewValidation("project name is required")
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return errors.NewInternal("encode project", err)
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (name, data, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, string(payload), now, now)
	if err != nil {
		return errors.NewInternal("save project", err)
	}
	return nil
}

// LoadProject reads a named project document
func (s *ProjectStore) LoadProject(ctx context.Context, name string) (*store.SceneData, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM projects WHERE name = ?`, name).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("project not found: " + name)
	}
	if err != nil {
		return nil, errors.NewInternal("load project", err)
	}
	var data store.SceneData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, errors.NewInternal("decode project "+name, err)
	}
	return &data, nil
}

// ListProjects returns all saved projects, most recently updated first
func (s *ProjectStore) ListProjects(ctx context.Context) ([]ProjectInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, created_at, updated_at FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, errors.NewInternal("list projects", err)
	}
	defer rows.Close()

	var out []ProjectInfo
	for rows.Next() {
		var info ProjectInfo
		if err := rows.Scan(&info.Name, &info.CreatedAt, &info.UpdatedAt); err != nil {
			return nil, errors.NewInternal("scan project row", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal("iterate project rows", err)
	}
	return out, nil
}

// DeleteProject removes a named project
func (s *ProjectStore) DeleteProject(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE name = ?`, name)
	if err != nil {
		return errors.NewInternal("delete project", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return errors.NewNotFound("project not found: " + name)
	}
	return nil
}
