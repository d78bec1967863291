package store

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	// Pure-Go SQLite driver for database/sql.
	_ "github.com/glebarez/sqlite"
)

const modulesSchema = `CREATE TABLE IF NOT EXISTS modules (
	name    TEXT PRIMARY KEY,
	source  BLOB NOT NULL,
	updated INTEGER NOT NULL
)`

// SQLStore keeps brotli-compressed module sources in a SQLite table.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path. ":memory:" gives a
// private in-memory store.
func OpenSQLite(path string) (*SQLStore, error) {
	if path == "" {
		path = "modules.sqlite3"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening module store %q: %w", path, err)
	}
	if path == ":memory:" {
		// Every connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else {
		_, _ = db.Exec("PRAGMA journal_mode=WAL")
	}
	if _, err := db.Exec(modulesSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating modules table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// LoadModule returns the source stored under name.
func (s *SQLStore) LoadModule(name string) (string, error) {
	key, err := ValidateName(name)
	if err != nil {
		return "", err
	}
	var data []byte
	err = s.db.QueryRow("SELECT source FROM modules WHERE name = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("module %s: %w", key, fs.ErrNotExist)
	}
	if err != nil {
		return "", fmt.Errorf("reading module %s: %w", key, err)
	}
	return decompress(data)
}

// Put stores source under name, replacing any previous version.
func (s *SQLStore) Put(name, source string) error {
	key, err := ValidateName(name)
	if err != nil {
		return err
	}
	data, err := compress(source)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO modules (name, source, updated) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET source = excluded.source, updated = excluded.updated`,
		key, data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("writing module %s: %w", key, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
