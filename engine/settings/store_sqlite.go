package settings

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/veil/common"
	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

const settingsSchema = `CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value REAL NOT NULL
)`

const upsertSetting = `INSERT INTO settings (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value`

// sqliteStore keeps a read cache of the settings table and a set of staged writes flushed by Commit.
type sqliteStore struct {
	mu      sync.Mutex
	db      *sql.DB
	path    string
	cache   map[string]float64
	pending map[string]float64
}

var _ Store = &sqliteStore{}

// NewSQLiteStore opens (or creates) a SQLite database at path and loads every stored setting.
// Use ":memory:" for a throwaway database.
//
// Parameters:
//   - path: the database file path
//
// Returns:
//   - Store: the opened store
//   - error: an error if the database could not be opened or read
func NewSQLiteStore(path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open settings db %q: %w", path, err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(settingsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create settings schema: %w", err)
	}

	s := &sqliteStore{
		db:      db,
		path:    path,
		cache:   map[string]float64{},
		pending: map[string]float64{},
	}
	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}

	common.Logger().WithFields(logrus.Fields{
		"path": path,
		"keys": len(s.cache),
	}).Debug("settings store opened")
	return s, nil
}

func (s *sqliteStore) load() error {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scan setting: %w", err)
		}
		s.cache[key] = value
	}
	return rows.Err()
}

func (s *sqliteStore) Get(key string, def float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.cache[key]; ok {
		return v
	}
	return def
}

func (s *sqliteStore) Put(key string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = value
	s.pending[key] = value
}

func (s *sqliteStore) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrStoreClosed
	}
	if len(s.pending) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin settings commit: %w", err)
	}
	stmt, err := tx.Prepare(upsertSetting)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare settings upsert: %w", err)
	}
	defer stmt.Close()

	for key, value := range s.pending {
		if _, err := stmt.Exec(key, value); err != nil {
			tx.Rollback()
			return fmt.Errorf("write setting %q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings: %w", err)
	}

	clear(s.pending)
	return nil
}

func (s *sqliteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
