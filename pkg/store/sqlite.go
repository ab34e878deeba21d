package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// database wraps the SQLite connection used for write-through persistence.
type database struct {
	conn *sql.DB
}

// Open creates a store backed by the SQLite database at path, creating the
// schema if needed and loading all persisted formulas into memory.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &database{conn: conn}
	if err := db.createTables(); err != nil {
		return nil, err
	}

	s := New()
	s.db = db
	if err := db.loadInto(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (d *database) createTables() error {
	query := `CREATE TABLE IF NOT EXISTS formulas (
		name TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		revision_id TEXT NOT NULL,
		create_time INTEGER NOT NULL,
		update_time INTEGER NOT NULL
	)`
	if _, err := d.conn.Exec(query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// loadInto reads every persisted formula into the store's in-memory map.
// Rows were validated when written, so they are trusted here.
func (d *database) loadInto(s *Store) error {
	rows, err := d.conn.Query(
		`SELECT name, source, description, revision_id, create_time, update_time FROM formulas`)
	if err != nil {
		return fmt.Errorf("failed to load formulas: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f Formula
		var created, updated int64
		if err := rows.Scan(&f.Name, &f.Source, &f.Description, &f.RevisionID, &created, &updated); err != nil {
			return fmt.Errorf("failed to scan formula row: %w", err)
		}
		f.CreateTime = time.Unix(created, 0)
		f.UpdateTime = time.Unix(updated, 0)
		s.formulas[f.Name] = &f
	}
	return rows.Err()
}

func (d *database) upsert(f *Formula) error {
	_, err := d.conn.Exec(
		`INSERT INTO formulas (name, source, description, revision_id, create_time, update_time)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   source = excluded.source,
		   description = excluded.description,
		   revision_id = excluded.revision_id,
		   update_time = excluded.update_time`,
		f.Name, f.Source, f.Description, f.RevisionID, f.CreateTime.Unix(), f.UpdateTime.Unix())
	if err != nil {
		return fmt.Errorf("failed to persist formula '%s': %w", f.Name, err)
	}
	return nil
}

func (d *database) delete(name string) error {
	if _, err := d.conn.Exec(`DELETE FROM formulas WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete formula '%s': %w", name, err)
	}
	return nil
}

func (d *database) close() error {
	return d.conn.Close()
}
