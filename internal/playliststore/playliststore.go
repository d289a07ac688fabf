// Package playliststore persists named, ordered lists of song virtual paths
// per owning user in sqlite. The core index never stores playlists; this is
// one of the narrow external collaborators spec.md references without
// specifying.
package playliststore

import (
	"database/sql"
	"errors"
	"fmt"

	dbutil "github.com/agersant/polaris/internal/db"
)

// ErrPlaylistNotFound is returned by Get/Delete for an unknown (or
// not-owned) playlist ID.
var ErrPlaylistNotFound = errors.New("playlist not found")

// Playlist is one saved ordered list of song virtual paths.
type Playlist struct {
	ID      int64
	OwnerID int64
	Name    string
	Songs   []string
}

// Store is a sqlite-backed PlaylistStore.
type Store struct {
	db *sql.DB
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS playlists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			UNIQUE(owner_id, name)
		);

		CREATE TABLE IF NOT EXISTS playlist_songs (
			playlist_id INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			virtual_path TEXT NOT NULL,
			PRIMARY KEY (playlist_id, position)
		);
	`)
	return err
}

// New opens a Store against db, creating its tables if absent.
func New(db *sql.DB) (*Store, error) {
	if err := initSchema(db); err != nil {
		return nil, fmt.Errorf("init playliststore schema: %w", err)
	}
	return &Store{db: db}, nil
}

// List returns every playlist owned by ownerID, without their song lists
// (matching the lightweight-header convention the collection queries use).
func (s *Store) List(ownerID int64) ([]Playlist, error) {
	rows, err := s.db.Query(`SELECT id, name FROM playlists WHERE owner_id = ? ORDER BY name COLLATE NOCASE`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	var out []Playlist
	for rows.Next() {
		var p Playlist
		p.OwnerID = ownerID
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create inserts a new playlist with its songs, in order, atomically.
func (s *Store) Create(ownerID int64, name string, songs []string) (*Playlist, error) {
	p := &Playlist{OwnerID: ownerID, Name: name, Songs: songs}
	err := dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		res, err := tx.Exec(`INSERT INTO playlists (owner_id, name) VALUES (?, ?)`, ownerID, name)
		if err != nil {
			return fmt.Errorf("insert playlist: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		p.ID = id
		return insertSongs(tx, id, songs)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func insertSongs(tx *sql.Tx, playlistID int64, songs []string) error {
	for i, vp := range songs {
		if _, err := tx.Exec(`
			INSERT INTO playlist_songs (playlist_id, position, virtual_path) VALUES (?, ?, ?)
		`, playlistID, i, vp); err != nil {
			return fmt.Errorf("insert playlist song: %w", err)
		}
	}
	return nil
}

// Get returns one playlist (owned by ownerID) with its song list in order.
func (s *Store) Get(ownerID, playlistID int64) (*Playlist, error) {
	var p Playlist
	p.ID, p.OwnerID = playlistID, ownerID
	err := s.db.QueryRow(`
		SELECT name FROM playlists WHERE id = ? AND owner_id = ?
	`, playlistID, ownerID).Scan(&p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlaylistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("look up playlist: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT virtual_path FROM playlist_songs WHERE playlist_id = ? ORDER BY position
	`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("list playlist songs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var vp string
		if err := rows.Scan(&vp); err != nil {
			return nil, fmt.Errorf("scan playlist song: %w", err)
		}
		p.Songs = append(p.Songs, vp)
	}
	return &p, rows.Err()
}

// SetSongs replaces a playlist's song list atomically.
func (s *Store) SetSongs(ownerID, playlistID int64, songs []string) error {
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM playlist_songs WHERE playlist_id = (SELECT id FROM playlists WHERE id = ? AND owner_id = ?)`, playlistID, ownerID)
		if err != nil {
			return fmt.Errorf("clear playlist songs: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			var exists int
			if err := tx.QueryRow(`SELECT 1 FROM playlists WHERE id = ? AND owner_id = ?`, playlistID, ownerID).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
				return ErrPlaylistNotFound
			}
		}
		return insertSongs(tx, playlistID, songs)
	})
}

// Delete removes a playlist (and its songs, via ON DELETE CASCADE) if owned
// by ownerID.
func (s *Store) Delete(ownerID, playlistID int64) error {
	res, err := s.db.Exec(`DELETE FROM playlists WHERE id = ? AND owner_id = ?`, playlistID, ownerID)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPlaylistNotFound
	}
	return nil
}
