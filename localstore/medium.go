// Copyright (c) 2025 StudyFair.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package localstore

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// Medium is the raw key-value surface the Store reads and writes through.
// Get never fails: a missing key and an unavailable medium look the same to
// the caller. Writes return errors so callers can decide whether to warn.
type Medium interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
	Keys(prefix string) ([]string, error)
}

// SQLiteMedium is a durable Medium backed by a single-file SQLite database.
type SQLiteMedium struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the key-value file at path.
func OpenSQLite(path string) (*SQLiteMedium, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	// Single-writer assumption; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS local_kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize local store: %w", err)
	}

	return &SQLiteMedium{db: db}, nil
}

func (m *SQLiteMedium) Get(key string) (string, bool) {
	var value string
	err := m.db.QueryRow("SELECT value FROM local_kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		slog.Warn("local store read failed", "key", key, "error", err)
		return "", false
	}
	return value, true
}

func (m *SQLiteMedium) Set(key, value string) error {
	_, err := m.db.Exec(`
		INSERT INTO local_kv (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write local store key %q: %w", key, err)
	}
	return nil
}

func (m *SQLiteMedium) Remove(key string) error {
	_, err := m.db.Exec("DELETE FROM local_kv WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to remove local store key %q: %w", key, err)
	}
	return nil
}

func (m *SQLiteMedium) Keys(prefix string) ([]string, error) {
	rows, err := m.db.Query(
		"SELECT key FROM local_kv WHERE key LIKE ? ESCAPE '\\'",
		likePattern(prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list local store keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (m *SQLiteMedium) Close() error {
	return m.db.Close()
}

func likePattern(prefix string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	return escaped + "%"
}

// MemoryMedium is an in-memory Medium for tests and non-durable contexts.
type MemoryMedium struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryMedium() *MemoryMedium {
	return &MemoryMedium{data: make(map[string]string)}
}

func (m *MemoryMedium) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryMedium) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryMedium) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryMedium) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Len reports the number of stored keys. Test helper.
func (m *MemoryMedium) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
