package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS records (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);`

type sqliteShelfStorage struct {
	logger *zap.Logger
	db     *sql.DB
	key    string
}

// GetSQLiteClient opens the database file and ensures the records table exists.
func GetSQLiteClient(config *Config) (*sql.DB, error) {
	if dir := filepath.Dir(config.SQLite.FilePath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create sqlite folder: %v", err)
		}
	}
	db, err := sql.Open("sqlite", config.SQLite.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	// a single writer avoids SQLITE_BUSY between the consumer and startup load.
	db.SetMaxOpenConns(1)
	if _, err = db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up records table: %v", err)
	}
	return db, nil
}

// NewSQLiteShelfStorage provides an instance of sqlite-based shelf storage.
func NewSQLiteShelfStorage(logger *zap.Logger, db *sql.DB, key string) ShelfStorage {
	return &sqliteShelfStorage{
		logger: logger,
		db:     db,
		key:    key,
	}
}

// Load reads the shelf record row.
func (ss *sqliteShelfStorage) Load(ctx context.Context) (Shelf, error) {
	var shelf Shelf
	var value []byte
	err := ss.db.QueryRowContext(ctx, `SELECT value FROM records WHERE key = ?`, ss.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return shelf, ErrShelfNotFound
	}
	if err != nil {
		return shelf, err
	}
	err = json.Unmarshal(value, &shelf)
	return shelf, err
}

// Save upserts the shelf record row.
func (ss *sqliteShelfStorage) Save(ctx context.Context, shelf Shelf) error {
	shelfBytes, err := json.Marshal(shelf)
	if err != nil {
		return err
	}
	_, err = ss.db.ExecContext(ctx,
		`INSERT INTO records (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		ss.key, shelfBytes,
	)
	return err
}

// Close closes the underlying database.
func (ss *sqliteShelfStorage) Close() error {
	return ss.db.Close()
}
