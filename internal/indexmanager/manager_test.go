package indexmanager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agersant/polaris/internal/apperror"
	"github.com/agersant/polaris/internal/index"
	"github.com/agersant/polaris/internal/metadata"
	"github.com/agersant/polaris/internal/scanner"
)

func strp(s string) *string { return &s }

func buildTestIndex(t *testing.T) *index.Index {
	t.Helper()
	b := index.NewBuilder(zerolog.Nop())
	b.AddDirectory(scanner.Directory{VirtualPath: "Khemmis", VirtualParent: ""})
	b.AddDirectory(scanner.Directory{VirtualPath: "Khemmis/Hunted", VirtualParent: "Khemmis"})
	b.AddSong(scanner.Song{
		SongMetadata: metadata.SongMetadata{
			Title:   strp("Beyond The Door"),
			Album:   strp("Hunted"),
			Artists: []string{"Khemmis"},
		},
		RealPath:      "/music/Khemmis/Hunted/01.flac",
		VirtualPath:   "Khemmis/Hunted/01.flac",
		VirtualParent: "Khemmis/Hunted",
		DateAdded:     1000,
	})
	return b.Build()
}

func TestNewManagerStartsWithQueryableEmptyIndex(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "collection.index"), zerolog.Nop())

	files, err := m.Browse("")
	require.NoError(t, err)
	assert.Empty(t, files)

	assert.Empty(t, m.GetArtists())
	assert.Empty(t, m.GetGenres())

	keys, err := m.Search("anything")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestReplaceIndexMakesNewDataVisible(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "collection.index"), zerolog.Nop())
	m.ReplaceIndex(buildTestIndex(t))

	files, err := m.Browse("Khemmis/Hunted")
	require.NoError(t, err)
	assert.Len(t, files, 1)

	artists := m.GetArtists()
	require.Len(t, artists, 1)
}

func TestGetSongsReportsNotFoundForUninternedPath(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "collection.index"), zerolog.Nop())
	m.ReplaceIndex(buildTestIndex(t))

	results := m.GetSongs([]string{"Khemmis/Hunted/01.flac", "does/not/exist.flac"})
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, apperror.ErrSongNotFound)
}

func TestGetArtistNotFound(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "collection.index"), zerolog.Nop())
	m.ReplaceIndex(buildTestIndex(t))

	_, err := m.GetArtist("Someone Else")
	assert.ErrorIs(t, err, apperror.ErrArtistNotFound)
}

func TestPersistThenRestoreRoundTrips(t *testing.T) {
	snapshotPath := filepath.Join(t.TempDir(), "collection.index")
	m := New(snapshotPath, zerolog.Nop())
	idx := buildTestIndex(t)
	m.ReplaceIndex(idx)

	require.NoError(t, m.PersistIndex(idx))

	restored := New(snapshotPath, zerolog.Nop())
	restored.TryRestoreIndex()

	artists := restored.GetArtists()
	require.Len(t, artists, 1)
}

func TestTryRestoreIndexToleratesMissingFile(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "does-not-exist.index"), zerolog.Nop())
	m.TryRestoreIndex()
	assert.Empty(t, m.GetArtists())
}

func TestTryRestoreIndexToleratesCorruptFile(t *testing.T) {
	snapshotPath := filepath.Join(t.TempDir(), "collection.index")
	require.NoError(t, os.WriteFile(snapshotPath, []byte("not a snapshot"), 0o600))

	m := New(snapshotPath, zerolog.Nop())
	m.TryRestoreIndex()
	assert.Empty(t, m.GetArtists())
}
