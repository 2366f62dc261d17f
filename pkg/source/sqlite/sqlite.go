// Package sqlite stores artboard items in a SQLite file through the pure-Go
// modernc.org/sqlite driver.
//
// Schema:
//
//	projects(id, title, description, image, gallery_json, author, avatar, tag, aspect_ratio)
//	tags(name)
//
// [Open] applies the schema; [Store.Seed] upserts items and their tags.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/artboard/pkg/item"
)

// Store is a Source backed by a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", path, err)
		}
	}

	s := &Store{db: db}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			gallery_json TEXT NOT NULL DEFAULT '[]',
			author TEXT NOT NULL DEFAULT '',
			avatar TEXT NOT NULL DEFAULT '',
			tag TEXT NOT NULL DEFAULT '',
			aspect_ratio REAL NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS projects_tag ON projects(tag);`,
		`CREATE TABLE IF NOT EXISTS tags (
			name TEXT PRIMARY KEY
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Seed upserts items and inserts their tags in one transaction. It returns
// the number of items written.
func (s *Store) Seed(ctx context.Context, items []item.Item) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	upsert, err := tx.PrepareContext(ctx, `INSERT INTO projects
		(id, title, description, image, gallery_json, author, avatar, tag, aspect_ratio)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			image = excluded.image,
			gallery_json = excluded.gallery_json,
			author = excluded.author,
			avatar = excluded.avatar,
			tag = excluded.tag,
			aspect_ratio = excluded.aspect_ratio`)
	if err != nil {
		return 0, err
	}
	defer upsert.Close()

	addTag, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO tags(name) VALUES (?)`)
	if err != nil {
		return 0, err
	}
	defer addTag.Close()

	n := 0
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return 0, err
		}
		gallery := it.GalleryRefs
		if gallery == nil {
			gallery = []string{}
		}
		galleryJSON, err := json.Marshal(gallery)
		if err != nil {
			return 0, err
		}
		if _, err := upsert.ExecContext(ctx, it.ID, it.Title, it.Description, it.ImageRef,
			string(galleryJSON), it.Author, it.Avatar, it.Tag, it.AspectRatio); err != nil {
			return 0, fmt.Errorf("seed item %d: %w", it.ID, err)
		}
		if it.Tag != "" {
			if _, err := addTag.ExecContext(ctx, it.Tag); err != nil {
				return 0, err
			}
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// FetchItems returns every project ordered by id.
func (s *Store) FetchItems(ctx context.Context) ([]item.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, description, image, gallery_json,
		author, avatar, tag, aspect_ratio FROM projects ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []item.Item{}
	for rows.Next() {
		var (
			it      item.Item
			gallery string
		)
		if err := rows.Scan(&it.ID, &it.Title, &it.Description, &it.ImageRef, &gallery,
			&it.Author, &it.Avatar, &it.Tag, &it.AspectRatio); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(gallery), &it.GalleryRefs); err != nil {
			return nil, fmt.Errorf("item %d gallery: %w", it.ID, err)
		}
		if len(it.GalleryRefs) == 0 {
			it.GalleryRefs = nil
		}
		if !(it.AspectRatio > 0) {
			it.AspectRatio = item.AspectFromID(it.ID)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// FetchTagNames returns the tag table, sorted.
func (s *Store) FetchTagNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM tags WHERE name <> '' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Count returns the number of stored projects.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
