// Package store persists named places and their opening-hour rules in SQLite
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/openhours/openhours/internal/hours"
)

var (
	ErrNotFound    = errors.New("place not found")
	ErrInvalidName = errors.New("invalid place name")
)

// Place is a named schedule
type Place struct {
	Name      string
	Timezone  string // IANA name; empty = engine default
	Rules     hours.RuleSet
	UpdatedAt time.Time
}

// Store manages the place registry
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	clock  clock.Clock
	logger *zap.Logger
}

// Open opens (or creates) the registry database at path.
// ":memory:" opens a private in-memory database. clk stamps updated_at and
// is the instant rules are checked at; nil means the wall clock.
func Open(path string, clk clock.Clock, logger *zap.Logger) (*Store, error) {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
		}
		dsn = path + "?_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// In-memory databases are per connection.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Store{db: db, clock: clk, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS places (
			name TEXT PRIMARY KEY,
			timezone TEXT NOT NULL DEFAULT '',
			rules TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	return err
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Put creates or replaces a place. Rules are validated by evaluating them
// once so a broken schedule never reaches the registry.
func (s *Store) Put(p *Place) error {
	if err := validateName(p.Name); err != nil {
		return err
	}
	now := s.clock.Now()
	if _, err := hours.New(hours.WithLookahead(1)).Evaluate(p.Rules, hours.Query{At: now, Timezone: p.Timezone}); err != nil {
		return fmt.Errorf("place %s: %w", p.Name, err)
	}

	data, err := json.Marshal(p.Rules)
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO places (name, timezone, rules, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			timezone = excluded.timezone,
			rules = excluded.rules,
			updated_at = excluded.updated_at`,
		p.Name, p.Timezone, string(data), now.Unix())
	if err != nil {
		return fmt.Errorf("failed to save place: %w", err)
	}
	p.UpdatedAt = time.Unix(now.Unix(), 0)

	s.logger.Debug("Saved place",
		zap.String("name", p.Name),
		zap.String("timezone", p.Timezone),
		zap.Int("rules", len(p.Rules)))
	return nil
}

// Get returns the named place
func (s *Store) Get(name string) (*Place, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		p         = &Place{Name: name}
		rules     string
		updatedAt int64
	)
	err := s.db.QueryRow("SELECT timezone, rules, updated_at FROM places WHERE name = ?", name).
		Scan(&p.Timezone, &rules, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(rules), &p.Rules); err != nil {
		return nil, fmt.Errorf("place %s: corrupt rules: %w", name, err)
	}
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return p, nil
}

// List returns all places ordered by name
func (s *Store) List() ([]*Place, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT name, timezone, rules, updated_at
		FROM places
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var places []*Place
	for rows.Next() {
		p := &Place{}
		var rules string
		var updatedAt int64
		if err := rows.Scan(&p.Name, &p.Timezone, &rules, &updatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(rules), &p.Rules); err != nil {
			s.logger.Warn("Skipping place with corrupt rules",
				zap.String("name", p.Name),
				zap.Error(err))
			continue
		}
		p.UpdatedAt = time.Unix(updatedAt, 0)
		places = append(places, p)
	}

	return places, rows.Err()
}

// Delete removes the named place
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM places WHERE name = ?", name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// validateName accepts names usable as a URL path segment.
func validateName(name string) error {
	if name == "" || len(name) > 128 {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.ContainsFunc(name, func(r rune) bool {
		return !(r == '-' || r == '_' || r == '.' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
