package kv

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// SQLStore is a Store backed by a single key-value table. The driver is
// either local sqlite3 or a remote libsql URL, selected by configuration.
type SQLStore struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

// NewSQLStore opens the database, verifies connectivity, and ensures the
// kv table exists.
func NewSQLStore(driverName, dataSourceName string, logger *logging.ChanneledLogger) (*SQLStore, error) {
	start := time.Now()
	logger.Store().Debug("Opening key-value store", "driverName", driverName)

	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		logger.Store().Error("Failed to open key-value store", "error", err.Error(), "driverName", driverName)
		return nil, fmt.Errorf("failed to open key-value store: %w", err)
	}

	if err = db.Ping(); err != nil {
		logger.Store().Error("Key-value store ping failed", "error", err.Error(), "driverName", driverName)
		return nil, fmt.Errorf("key-value store ping failed: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS kv_entries (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	logger.Store().Info("Key-value store ready", "driverName", driverName, "duration", time.Since(start))
	return &SQLStore{db: db, logger: logger}, nil
}

// Get retrieves a value by key.
func (s *SQLStore) Get(key string) (string, bool, error) {
	start := time.Now()

	var value string
	err := s.db.QueryRow(`SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		s.logger.LogStoreOperation("get", key, true, time.Since(start))
		return "", false, nil
	}
	if err != nil {
		s.logger.LogStoreOperation("get", key, false, time.Since(start))
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}

	s.logger.LogStoreOperation("get", key, true, time.Since(start))
	return value, true, nil
}

// Set stores a value under key, replacing any previous value.
func (s *SQLStore) Set(key, value string) error {
	start := time.Now()

	const query = `
		INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	_, err := s.db.Exec(query, key, value, time.Now().UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		s.logger.LogStoreOperation("set", key, false, time.Since(start))
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}

	s.logger.LogStoreOperation("set", key, true, time.Since(start))
	return nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
