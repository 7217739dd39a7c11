package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tazhate/taqvim/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

type Storage struct {
	db *sql.DB
}

// New opens (and creates if needed) the database at dbPath.
// ":memory:" gives a throwaway database for tests.
func New(dbPath string) (*Storage, error) {
	dsn := ":memory:"
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = dbPath + "?_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// a single connection keeps ":memory:" from splitting into several databases
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS chats (
			chat_id INTEGER PRIMARY KEY,
			locale TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		// Shared location for traffic notes
		`ALTER TABLE chats ADD COLUMN lat REAL`,
		`ALTER TABLE chats ADD COLUMN lng REAL`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// Ignore "duplicate column" errors for ALTER TABLE
			if !strings.Contains(err.Error(), "duplicate column") {
				return fmt.Errorf("exec migration: %w", err)
			}
		}
	}
	return nil
}

// === Chats ===

func (s *Storage) SaveLocale(chatID int64, l domain.Locale) error {
	_, err := s.db.Exec(
		`INSERT INTO chats (chat_id, locale, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET locale = excluded.locale, updated_at = excluded.updated_at`,
		chatID, string(l), time.Now().UTC(),
	)
	return err
}

func (s *Storage) SaveLocation(chatID int64, loc domain.LatLng) error {
	_, err := s.db.Exec(
		`INSERT INTO chats (chat_id, lat, lng, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET lat = excluded.lat, lng = excluded.lng, updated_at = excluded.updated_at`,
		chatID, loc.Lat, loc.Lng, time.Now().UTC(),
	)
	return err
}

func (s *Storage) GetPreference(chatID int64) (*domain.ChatPreference, error) {
	p, err := scanPreference(s.db.QueryRow(
		`SELECT chat_id, locale, lat, lng, updated_at FROM chats WHERE chat_id = ?`, chatID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// ListPreferences returns every chat that ever changed a preference
func (s *Storage) ListPreferences() ([]*domain.ChatPreference, error) {
	rows, err := s.db.Query(`SELECT chat_id, locale, lat, lng, updated_at FROM chats ORDER BY chat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prefs []*domain.ChatPreference
	for rows.Next() {
		p, err := scanPreference(rows)
		if err != nil {
			return nil, err
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPreference(row scanner) (*domain.ChatPreference, error) {
	p := &domain.ChatPreference{}
	var locale string
	var lat, lng sql.NullFloat64
	if err := row.Scan(&p.ChatID, &locale, &lat, &lng, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Locale = domain.Locale(locale)
	if lat.Valid && lng.Valid {
		p.Location = &domain.LatLng{Lat: lat.Float64, Lng: lng.Float64}
	}
	return p, nil
}
