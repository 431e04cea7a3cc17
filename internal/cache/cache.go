// Package cache persists the last confirmed snapshot of each collection to
// SQLite, so lists can paint before the first live snapshot arrives and CLI
// reads keep working offline. Confirmed state only: pending optimistic
// mutations are never written here.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/taskpad/taskpad/internal/config"
	"github.com/taskpad/taskpad/internal/remote"
	_ "modernc.org/sqlite"
)

// Cache wraps the SQLite snapshot database
type Cache struct {
	db *sql.DB
}

// DefaultPath returns the default cache path (~/.taskpad/cache.db)
func DefaultPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, "cache.db"), nil
}

// Open opens or creates the snapshot cache
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to cache: %w", err)
	}

	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run cache migrations: %w", err)
	}

	return c, nil
}

// OpenDefault opens the cache at the default path
func OpenDefault() (*Cache, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Close closes the underlying database
func (c *Cache) Close() error {
	return c.db.Close()
}

// PutSnapshot replaces the cached document set for a collection scope. The
// scope is the subscription identity (collection plus filter), so different
// users' project lists do not clobber each other.
func (c *Cache) PutSnapshot(ctx context.Context, scope string, docs []remote.Document) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE scope = ?`, scope); err != nil {
		return err
	}

	for i, doc := range docs {
		fields, err := json.Marshal(doc.Fields)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (scope, id, position, fields, timestamp)
			VALUES (?, ?, ?, ?, ?)`,
			scope, doc.ID, i, string(fields), doc.Timestamp.UnixNano(),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetSnapshot returns the cached document set for a scope in snapshot order.
// An unknown scope yields an empty set, not an error.
func (c *Cache) GetSnapshot(ctx context.Context, scope string) ([]remote.Document, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, fields, timestamp FROM documents
		WHERE scope = ? ORDER BY position ASC`, scope)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []remote.Document
	for rows.Next() {
		var (
			doc    remote.Document
			fields string
			nanos  int64
		)
		if err := rows.Scan(&doc.ID, &fields, &nanos); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(fields), &doc.Fields); err != nil {
			return nil, err
		}
		doc.Timestamp = time.Unix(0, nanos)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ProjectScope is the snapshot scope for a user's project list.
func ProjectScope(userID string) string {
	return remote.CollectionProjects + ":userId=" + userID
}

// TaskScope is the snapshot scope for a project's task list.
func TaskScope(projectID string) string {
	return remote.CollectionTasks + ":projectId=" + projectID
}
