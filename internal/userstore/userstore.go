// Package userstore persists server accounts and issued auth tokens in
// sqlite, reconciling them against the config file's users list on every
// start so the config file remains the source of truth for who can log in.
package userstore

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/agersant/polaris/internal/config"
	dbutil "github.com/agersant/polaris/internal/db"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown user or a
// password that doesn't match the stored hash.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken is returned by Resolve for a token that doesn't exist.
var ErrInvalidToken = errors.New("invalid auth token")

// User is one server account.
type User struct {
	ID               int64
	Name             string
	IsAdmin          bool
	LastfmSessionKey string
}

// Store is a sqlite-backed UserStore.
type Store struct {
	db *sql.DB
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			is_admin INTEGER NOT NULL DEFAULT 0,
			hashed_password TEXT NOT NULL,
			lastfm_session_key TEXT
		);

		CREATE TABLE IF NOT EXISTS auth_tokens (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_auth_tokens_user ON auth_tokens(user_id);
	`)
	return err
}

// New opens a Store against db, creating its tables if absent.
func New(db *sql.DB) (*Store, error) {
	if err := initSchema(db); err != nil {
		return nil, fmt.Errorf("init userstore schema: %w", err)
	}
	return &Store{db: db}, nil
}

// SyncFromConfig upserts every account from the config file's users list,
// by name, so renaming or removing a user in the config file takes effect on
// the next restart without requiring a manual migration. Config.Load has
// already turned any initial_password into a hashed_password by the time
// this runs.
func (s *Store) SyncFromConfig(users []config.UserConfig) error {
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		for _, u := range users {
			if u.HashedPassword == "" {
				continue
			}
			if _, err := tx.Exec(`
				INSERT INTO users (name, is_admin, hashed_password)
				VALUES (?, ?, ?)
				ON CONFLICT(name) DO UPDATE SET is_admin = excluded.is_admin, hashed_password = excluded.hashed_password
			`, u.Name, u.IsAdmin(), u.HashedPassword); err != nil {
				return fmt.Errorf("sync user %q: %w", u.Name, err)
			}
		}
		return nil
	})
}

// Authenticate checks name/password against the stored hash and, on
// success, returns the account.
func (s *Store) Authenticate(name, password string) (*User, error) {
	var u User
	var hashedPassword string
	var isAdmin int
	var lastfmSessionKey sql.NullString

	err := s.db.QueryRow(`
		SELECT id, name, is_admin, hashed_password, lastfm_session_key FROM users WHERE name = ?
	`, name).Scan(&u.ID, &u.Name, &isAdmin, &hashedPassword, &lastfmSessionKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up user %q: %w", name, err)
	}

	if config.HashPassword(name, password) != hashedPassword {
		return nil, ErrInvalidCredentials
	}

	u.IsAdmin = isAdmin != 0
	u.LastfmSessionKey = dbutil.NullStringValue(lastfmSessionKey)
	return &u, nil
}

// IssueToken mints a new auth token for userID and stores it.
func (s *Store) IssueToken(userID int64, now int64) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	if _, err := s.db.Exec(`
		INSERT INTO auth_tokens (token, user_id, created_at) VALUES (?, ?, ?)
	`, token, userID, now); err != nil {
		return "", fmt.Errorf("store auth token: %w", err)
	}
	return token, nil
}

// Resolve looks up the user owning token.
func (s *Store) Resolve(token string) (*User, error) {
	var u User
	var isAdmin int
	var lastfmSessionKey sql.NullString

	err := s.db.QueryRow(`
		SELECT users.id, users.name, users.is_admin, users.lastfm_session_key
		FROM auth_tokens JOIN users ON users.id = auth_tokens.user_id
		WHERE auth_tokens.token = ?
	`, token).Scan(&u.ID, &u.Name, &isAdmin, &lastfmSessionKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("resolve auth token: %w", err)
	}

	u.IsAdmin = isAdmin != 0
	u.LastfmSessionKey = dbutil.NullStringValue(lastfmSessionKey)
	return &u, nil
}

// RevokeToken deletes a single issued token, e.g. on logout.
func (s *Store) RevokeToken(token string) error {
	_, err := s.db.Exec(`DELETE FROM auth_tokens WHERE token = ?`, token)
	return err
}

// SetLastfmSessionKey links or unlinks (empty key) a user's last.fm session.
func (s *Store) SetLastfmSessionKey(userID int64, sessionKey string) error {
	_, err := s.db.Exec(`UPDATE users SET lastfm_session_key = ? WHERE id = ?`, sql.NullString{String: sessionKey, Valid: sessionKey != ""}, userID)
	return err
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
