// Package indexmanager guards the current collection Index behind a
// reader-writer lock and owns its on-disk snapshot, so HTTP handlers and
// the scan orchestrator never touch an Index directly.
package indexmanager

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agersant/polaris/internal/apperror"
	"github.com/agersant/polaris/internal/browser"
	"github.com/agersant/polaris/internal/collection"
	"github.com/agersant/polaris/internal/dictionary"
	"github.com/agersant/polaris/internal/index"
)

// emptyIndex builds a fully-initialized zero-song Index (rather than a bare
// struct literal) so Browse/Flatten/Search have real, non-nil internal
// state to operate on before the first scan completes.
func emptyIndex(logger zerolog.Logger) *index.Index {
	return index.NewBuilder(logger).Build()
}

// Manager owns the current Index behind a sync.RWMutex. Queries take the
// read lock only for the duration of the lookup itself; ReplaceIndex takes
// the write lock only for the pointer swap, never while building the
// replacement, matching spec.md §4.8's "acquire briefly, release promptly"
// discipline.
type Manager struct {
	mu           sync.RWMutex
	current      *index.Index
	snapshotPath string
	logger       zerolog.Logger
}

// New returns a Manager with an empty Index, guarding the snapshot file at
// snapshotPath.
func New(snapshotPath string, logger zerolog.Logger) *Manager {
	return &Manager{
		current:      emptyIndex(logger),
		snapshotPath: snapshotPath,
		logger:       logger,
	}
}

// ReplaceIndex atomically swaps in a newly built Index. Readers in flight
// continue to see the old Index; new readers see the new one.
func (m *Manager) ReplaceIndex(idx *index.Index) {
	m.mu.Lock()
	m.current = idx
	m.mu.Unlock()
}

// snapshot copies the current pointer under the read lock, so the CPU-bound query
// work below runs against a consistent Index with the lock already
// released, per spec.md §4.8 step 2.
func (m *Manager) snapshot() *index.Index {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// PersistIndex serializes idx and writes it to the configured snapshot
// path via a temp-file-then-rename, so a crash mid-write never corrupts the
// previous snapshot. Failure is logged and the previous file left intact,
// per spec.md §7's persistence policy.
func (m *Manager) PersistIndex(idx *index.Index) error {
	data, err := index.Encode(idx)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to serialize index")
		return apperror.Wrap(apperror.KindPersistence, apperror.ErrIndexSerialization.Msg, err)
	}

	dir := filepath.Dir(m.snapshotPath)
	tmp, err := os.CreateTemp(dir, ".collection-index-*.tmp")
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to create temp snapshot file")
		return apperror.Wrap(apperror.KindIO, "failed to create temp snapshot file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup; Rename below removes it on success

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		m.logger.Error().Err(err).Msg("failed to write temp snapshot file")
		return apperror.Wrap(apperror.KindIO, "failed to write temp snapshot file", err)
	}
	if err := tmp.Close(); err != nil {
		m.logger.Error().Err(err).Msg("failed to close temp snapshot file")
		return apperror.Wrap(apperror.KindIO, "failed to close temp snapshot file", err)
	}

	if err := os.Rename(tmpPath, m.snapshotPath); err != nil {
		m.logger.Error().Err(err).Msg("failed to install snapshot")
		return apperror.Wrap(apperror.KindIO, "failed to install snapshot", err)
	}
	return nil
}

// TryRestoreIndex loads the snapshot at startup. A missing file, a bad
// magic, or a version mismatch all degrade to an empty index rather than a
// fatal error, per spec.md §4.8.
func (m *Manager) TryRestoreIndex() {
	data, err := os.ReadFile(m.snapshotPath)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn().Err(err).Msg("failed to read index snapshot, starting with empty index")
		}
		return
	}

	idx, err := index.Decode(data)
	if err != nil {
		m.logger.Warn().Err(err).Msg("failed to restore index snapshot, starting with empty index")
		return
	}

	m.ReplaceIndex(idx)
	m.logger.Info().Int("songs", len(idx.Collection.Songs)).Msg("restored index from snapshot")
}

// Browse lists the immediate children of vp.
func (m *Manager) Browse(vp string) ([]browser.File, error) {
	return m.snapshot().Browser.Browse(vp)
}

// Flatten lists every song virtual path under vp.
func (m *Manager) Flatten(vp string) ([]string, error) {
	return m.snapshot().Browser.Flatten(vp)
}

// GetGenres lists every non-empty genre.
func (m *Manager) GetGenres() []collection.GenreHeader {
	return m.snapshot().Collection.GetGenres()
}

// GetGenre returns one genre by name.
func (m *Manager) GetGenre(name string) (*collection.Genre, error) {
	idx := m.snapshot()
	h, ok := idx.Dict.GetCanon(name)
	if !ok {
		return nil, apperror.ErrGenreNotFound
	}
	return idx.Collection.GetGenre(h)
}

// GetArtists lists every listable artist.
func (m *Manager) GetArtists() []collection.ArtistHeader {
	return m.snapshot().Collection.GetArtists()
}

// GetArtist returns one artist by name. Its album sets are unordered maps;
// collection.SortAlbumKeysByYearThenName orders them by (year, name).
func (m *Manager) GetArtist(name string) (*collection.Artist, error) {
	idx := m.snapshot()
	h, ok := idx.Dict.GetCanon(name)
	if !ok {
		return nil, apperror.ErrArtistNotFound
	}
	a, err := idx.Collection.GetArtist(h)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetAlbums lists every album key.
func (m *Manager) GetAlbums() []collection.AlbumHeader {
	return m.snapshot().Collection.GetAlbums()
}

// GetAlbum returns one album and its songs, sorted by (disc, track).
func (m *Manager) GetAlbum(key collection.AlbumKey) (*collection.Album, []collection.SongKey, error) {
	return m.snapshot().Collection.GetAlbum(key)
}

// GetRandomAlbums paginates a shuffle of every album key, deterministic
// when seed is non-nil.
func (m *Manager) GetRandomAlbums(seed *int64, offset, count int) []collection.AlbumKey {
	return m.snapshot().Collection.GetRandomAlbums(seed, offset, count)
}

// GetRecentAlbums paginates the precomputed recent-albums order.
func (m *Manager) GetRecentAlbums(offset, count int) []collection.AlbumKey {
	return m.snapshot().Collection.GetRecentAlbums(offset, count)
}

// GetSongs returns one result per requested virtual path, preserving order.
// A path never interned by the current index (so it cannot possibly be a
// song) is reported not-found without touching the Songs map.
func (m *Manager) GetSongs(virtualPaths []string) []collection.SongResult {
	idx := m.snapshot()
	out := make([]collection.SongResult, len(virtualPaths))
	var lookups []collection.SongKey
	var lookupIndexes []int
	for i, vp := range virtualPaths {
		h, ok := idx.Dict.Get(vp)
		if !ok {
			out[i] = collection.SongResult{Err: apperror.ErrSongNotFound}
			continue
		}
		lookups = append(lookups, collection.SongKey{VirtualPath: h})
		lookupIndexes = append(lookupIndexes, i)
	}
	results := idx.Collection.GetSongs(lookups)
	for j, i := range lookupIndexes {
		out[i] = results[j]
	}
	return out
}

// GetSongsByKey returns one result per requested song key, preserving
// order. Callers that already hold keys (search results, an album's song
// list) use this instead of GetSongs to avoid round-tripping through
// resolved virtual path strings.
func (m *Manager) GetSongsByKey(keys []collection.SongKey) []collection.SongResult {
	idx := m.snapshot()
	return idx.Collection.GetSongs(keys)
}

// SortAlbumKeysByYearThenName orders keys the way an artist's album sets
// are presented, exposed so httpapi can order the key sets on
// collection.Artist before rendering them.
func (m *Manager) SortAlbumKeysByYearThenName(keys []collection.AlbumKey) {
	m.snapshot().Collection.SortAlbumKeysByYearThenName(keys)
}

// Search runs a full-text query against the current index.
func (m *Manager) Search(query string) ([]collection.SongKey, error) {
	idx := m.snapshot()
	return idx.Search.Find(query, idx.Collection)
}

// Dict exposes the current index's dictionary for callers (HTTP handlers)
// that need to resolve handles into strings for a response.
func (m *Manager) Dict() *dictionary.Dictionary {
	return m.snapshot().Dict
}
