// Package store persists settings and the recent-files list in SQLite.
package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/models"
)

// MaxRecentFiles caps the recent-files list.
const MaxRecentFiles = 10

const schemaSQL = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS recent_files (
	path TEXT PRIMARY KEY,
	seq  INTEGER NOT NULL
);
`

// Store is a settings database. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.NewStorageError("database path is empty", errors.ErrInvalidFilePath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.NewStorageError("failed to create database directory", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewStorageError("failed to open database", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, errors.NewStorageError("failed to initialize database", err)
	}

	logger.Debug("opened settings store", zap.String("path", path))
	return &Store{db: db, path: path, logger: logger}, nil
}

// DefaultPath returns the database location under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.NewStorageError("cannot locate user config directory", err)
	}
	return filepath.Join(dir, "shapeshift", "store.db"), nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetSetting returns the value stored under key, or Null if none is.
func (s *Store) GetSetting(ctx context.Context, key string) (models.Value, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&raw)
	if stderrors.Is(err, sql.ErrNoRows) {
		return models.NullValue(), nil
	}
	if err != nil {
		return models.Value{}, errors.NewStorageError(fmt.Sprintf("failed to read setting %q", key), err)
	}

	v, err := models.ParseJSON([]byte(raw))
	if err != nil {
		return models.Value{}, errors.NewStorageError(fmt.Sprintf("setting %q is corrupt", key), err)
	}
	return v, nil
}

// SetSetting stores v under key, replacing any previous value.
func (s *Store) SetSetting(ctx context.Context, key string, v models.Value) error {
	raw, err := v.MarshalJSON()
	if err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to encode setting %q", key), err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(raw))
	if err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to write setting %q", key), err)
	}
	s.logger.Debug("stored setting", zap.String("key", key))
	return nil
}

// AddRecentFile moves path to the front of the recent-files list, dropping
// entries beyond MaxRecentFiles.
func (s *Store) AddRecentFile(ctx context.Context, path string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var next int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM recent_files`).Scan(&next); err != nil {
		return errors.NewStorageError("failed to read recent files", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO recent_files (path, seq) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET seq = excluded.seq`,
		path, next); err != nil {
		return errors.NewStorageError("failed to record recent file", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recent_files WHERE path NOT IN (
			SELECT path FROM recent_files ORDER BY seq DESC LIMIT ?
		)`, MaxRecentFiles); err != nil {
		return errors.NewStorageError("failed to trim recent files", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("failed to commit recent files", err)
	}
	s.logger.Debug("recorded recent file", zap.String("path", path))
	return nil
}

// RecentFiles returns the recent-files list, most recent first.
func (s *Store) RecentFiles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM recent_files ORDER BY seq DESC LIMIT ?`, MaxRecentFiles)
	if err != nil {
		return nil, errors.NewStorageError("failed to read recent files", err)
	}
	defer rows.Close()

	files := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, errors.NewStorageError("failed to read recent files", err)
		}
		files = append(files, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to read recent files", err)
	}
	return files, nil
}
