package playliststore

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	raw, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	s, err := New(raw)
	require.NoError(t, err)
	return s
}

func TestCreateThenGetRoundTripsSongOrder(t *testing.T) {
	s := setupStore(t)
	songs := []string{"root/a.flac", "root/b.flac", "root/c.flac"}

	created, err := s.Create(1, "Favorites", songs)
	require.NoError(t, err)

	got, err := s.Get(1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Favorites", got.Name)
	assert.Equal(t, songs, got.Songs)
}

func TestListReturnsOnlyOwnersPlaylists(t *testing.T) {
	s := setupStore(t)
	_, err := s.Create(1, "Mine", nil)
	require.NoError(t, err)
	_, err = s.Create(2, "Theirs", nil)
	require.NoError(t, err)

	mine, err := s.List(1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Mine", mine[0].Name)
}

func TestGetRejectsWrongOwner(t *testing.T) {
	s := setupStore(t)
	created, err := s.Create(1, "Mine", []string{"root/a.flac"})
	require.NoError(t, err)

	_, err = s.Get(2, created.ID)
	assert.ErrorIs(t, err, ErrPlaylistNotFound)
}

func TestSetSongsReplacesOrder(t *testing.T) {
	s := setupStore(t)
	created, err := s.Create(1, "Mine", []string{"root/a.flac", "root/b.flac"})
	require.NoError(t, err)

	require.NoError(t, s.SetSongs(1, created.ID, []string{"root/c.flac"}))

	got, err := s.Get(1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"root/c.flac"}, got.Songs)
}

func TestSetSongsRejectsWrongOwner(t *testing.T) {
	s := setupStore(t)
	created, err := s.Create(1, "Mine", []string{"root/a.flac"})
	require.NoError(t, err)

	err = s.SetSongs(2, created.ID, []string{"root/b.flac"})
	assert.ErrorIs(t, err, ErrPlaylistNotFound)
}

func TestDeleteRemovesPlaylistAndSongs(t *testing.T) {
	s := setupStore(t)
	created, err := s.Create(1, "Mine", []string{"root/a.flac"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(1, created.ID))

	_, err = s.Get(1, created.ID)
	assert.ErrorIs(t, err, ErrPlaylistNotFound)
}

func TestDeleteRejectsWrongOwner(t *testing.T) {
	s := setupStore(t)
	created, err := s.Create(1, "Mine", []string{"root/a.flac"})
	require.NoError(t, err)

	err = s.Delete(2, created.ID)
	assert.ErrorIs(t, err, ErrPlaylistNotFound)
}

func TestCreateDuplicateNameForSameOwnerFails(t *testing.T) {
	s := setupStore(t)
	_, err := s.Create(1, "Mine", nil)
	require.NoError(t, err)

	_, err = s.Create(1, "Mine", nil)
	assert.Error(t, err)
}
