// Package store persists the client's durable session state. Exactly two
// logical keys exist: the opaque session token and the serialized user
// profile. They are written together on login, the profile is updated
// alone on profile edits, and both are cleared together on logout.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pointsnav/go-pointsnav/models"
)

const (
	keyToken = "token"
	keyUser  = "user"
)

// Store wraps the local SQLite database holding session state.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the session store at path and initializes the
// schema.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	s := &Store{conn: conn}

	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS session_state (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// SaveSession writes the token and user profile together in one
// transaction.
func (s *Store) SaveSession(token string, user *models.User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to serialize user: %w", err)
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, kv := range [][2]string{{keyToken, token}, {keyUser, string(userJSON)}} {
		if _, err := tx.Exec(`
			INSERT INTO session_state (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, kv[0], kv[1], now); err != nil {
			return fmt.Errorf("failed to save %s: %w", kv[0], err)
		}
	}

	return tx.Commit()
}

// SaveUser updates only the persisted user profile, leaving the token
// untouched.
func (s *Store) SaveUser(user *models.User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to serialize user: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.conn.Exec(`
		INSERT INTO session_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, keyUser, string(userJSON), now)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

// LoadSession reads the persisted token and user. A missing session yields
// an empty token, a nil user and no error.
func (s *Store) LoadSession() (string, *models.User, error) {
	token, ok, err := s.get(keyToken)
	if err != nil {
		return "", nil, err
	}
	if !ok || token == "" {
		return "", nil, nil
	}

	userJSON, ok, err := s.get(keyUser)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return token, nil, nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return "", nil, fmt.Errorf("failed to decode stored user: %w", err)
	}

	return token, &user, nil
}

// ClearSession removes the token and user together.
func (s *Store) ClearSession() error {
	_, err := s.conn.Exec(`DELETE FROM session_state WHERE key IN (?, ?)`, keyToken, keyUser)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *Store) get(key string) (string, bool, error) {
	var value string
	err := s.conn.QueryRow(`SELECT value FROM session_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}
