package collection

import (
	"math/rand/v2"
	"sort"
	"strconv"

	"github.com/agersant/polaris/internal/apperror"
	"github.com/agersant/polaris/internal/dictionary"
)

// sortByRecency orders album keys by descending DateAdded, falling back to
// the dictionary's collation order on name as a tie-break (the original
// leaves the tie-break implementation-defined). Albums equal on both, such
// as same-named albums by different artists added at the same time, have no
// defined relative order.
func sortByRecency(keys []AlbumKey, albums map[AlbumKey]*Album, dict *dictionary.Dictionary) {
	sort.Slice(keys, func(i, j int) bool {
		ai, aj := albums[keys[i]], albums[keys[j]]
		if ai.DateAdded != aj.DateAdded {
			return ai.DateAdded > aj.DateAdded
		}
		return dict.Cmp(albumSortName(ai), albumSortName(aj)) < 0
	})
}

func albumSortName(a *Album) dictionary.Handle {
	if a.HasName {
		return a.Name
	}
	return 0
}

// ArtistHeader is the lightweight summary returned by GetArtists.
type ArtistHeader struct {
	Name dictionary.Handle
}

// GetArtists returns every artist with at least one performer album or at
// least two featured-on albums (spec.md §3 invariant 7), sorted by the
// dictionary's collation order.
func (c *Collection) GetArtists() []ArtistHeader {
	var out []ArtistHeader
	for name, a := range c.Artists {
		if len(a.Albums) > 0 || len(a.FeaturedOn) > 1 {
			out = append(out, ArtistHeader{Name: name})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return c.Dict.Cmp(out[i].Name, out[j].Name) < 0
	})
	return out
}

// GetArtist returns the full artist record, or ErrArtistNotFound. Its album
// sets are unordered maps; SortAlbumKeysByYearThenName orders their keys by
// (year, name).
func (c *Collection) GetArtist(name dictionary.Handle) (*Artist, error) {
	a, ok := c.Artists[name]
	if !ok {
		return nil, apperror.ErrArtistNotFound
	}
	return a, nil
}

// SortAlbumKeysByYearThenName orders album keys as an artist's Albums and
// FeaturedOn sets are presented: by year, then by collated name.
func (c *Collection) SortAlbumKeysByYearThenName(keys []AlbumKey) {
	sort.Slice(keys, func(i, j int) bool {
		ai, aj := c.Albums[keys[i]], c.Albums[keys[j]]
		yi, yj := yearOrMin(ai), yearOrMin(aj)
		if yi != yj {
			return yi < yj
		}
		return c.Dict.Cmp(albumSortName(ai), albumSortName(aj)) < 0
	})
}

func yearOrMin(a *Album) int32 {
	if a.Year != nil {
		return *a.Year
	}
	return -1 << 31
}

// GetAlbum returns the album for key with its songs sorted by
// (disc.unwrap_or(-1), track.unwrap_or(-1)).
func (c *Collection) GetAlbum(key AlbumKey) (*Album, []SongKey, error) {
	a, ok := c.Albums[key]
	if !ok {
		return nil, nil, apperror.ErrAlbumNotFound
	}
	songs := make([]SongKey, 0, len(a.Songs))
	for k := range a.Songs {
		songs = append(songs, k)
	}
	sort.Slice(songs, func(i, j int) bool {
		si, sj := c.Songs[songs[i]], c.Songs[songs[j]]
		di, dj := discOrMinusOne(si), discOrMinusOne(sj)
		if di != dj {
			return di < dj
		}
		return trackOrMinusOne(si) < trackOrMinusOne(sj)
	})
	return a, songs, nil
}

func discOrMinusOne(s *Song) int64 {
	if s.DiscNumber != nil {
		return int64(*s.DiscNumber)
	}
	return -1
}

func trackOrMinusOne(s *Song) int64 {
	if s.TrackNumber != nil {
		return int64(*s.TrackNumber)
	}
	return -1
}

// AlbumHeader is the lightweight summary returned by GetAlbums.
type AlbumHeader struct {
	Key AlbumKey
}

// GetAlbums returns every album key, unordered (clients paginate the
// random/recent views for ordering; the plain listing has no defined
// order per spec.md).
func (c *Collection) GetAlbums() []AlbumHeader {
	out := make([]AlbumHeader, 0, len(c.Albums))
	for k := range c.Albums {
		out = append(out, AlbumHeader{Key: k})
	}
	return out
}

// GetRandomAlbums returns a deterministic shuffle of every album key when
// seed is non-nil (two calls with the same seed yield identical output),
// else a fresh-random shuffle, paginated by offset/count.
func (c *Collection) GetRandomAlbums(seed *int64, offset, count int) []AlbumKey {
	keys := make([]AlbumKey, 0, len(c.Albums))
	for k := range c.Albums {
		keys = append(keys, k)
	}
	// Stable key ordering before shuffling so the same seed always
	// produces the same permutation regardless of map iteration order.
	sort.Slice(keys, func(i, j int) bool { return albumKeySortString(keys[i]) < albumKeySortString(keys[j]) })

	var r *rand.Rand
	if seed != nil {
		r = rand.New(rand.NewPCG(uint64(*seed), uint64(*seed)>>32))
	} else {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	r.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	return paginate(keys, offset, count)
}

// GetRecentAlbums paginates the precomputed RecentAlbums list.
func (c *Collection) GetRecentAlbums(offset, count int) []AlbumKey {
	return paginate(c.RecentAlbums, offset, count)
}

func albumKeySortString(k AlbumKey) string {
	return k.ArtistsKey + "|" + strconv.FormatUint(uint64(k.Name), 10) + "|" + strconv.FormatBool(k.HasName)
}

func paginate(keys []AlbumKey, offset, count int) []AlbumKey {
	if offset >= len(keys) {
		return nil
	}
	end := offset + count
	if end > len(keys) {
		end = len(keys)
	}
	return keys[offset:end]
}

// GetSongs returns one result per requested key, preserving order.
func (c *Collection) GetSongs(keys []SongKey) []SongResult {
	out := make([]SongResult, len(keys))
	for i, k := range keys {
		if s, ok := c.Songs[k]; ok {
			out[i] = SongResult{Song: s}
		} else {
			out[i] = SongResult{Err: apperror.ErrSongNotFound}
		}
	}
	return out
}

// SongResult pairs a possibly-absent Song with its lookup error, so
// GetSongs can report one result per input path.
type SongResult struct {
	Song *Song
	Err  error
}

// GenreHeader is the lightweight summary returned by GetGenres.
type GenreHeader struct {
	Name       dictionary.Handle
	SongCount  int
}

// GetGenres returns every genre with at least one song.
func (c *Collection) GetGenres() []GenreHeader {
	out := make([]GenreHeader, 0, len(c.Genres))
	for name, g := range c.Genres {
		out = append(out, GenreHeader{Name: name, SongCount: len(g.Songs)})
	}
	sort.Slice(out, func(i, j int) bool { return c.Dict.Cmp(out[i].Name, out[j].Name) < 0 })
	return out
}

// GetGenre returns the full genre record, or ErrGenreNotFound.
func (c *Collection) GetGenre(name dictionary.Handle) (*Genre, error) {
	g, ok := c.Genres[name]
	if !ok {
		return nil, apperror.ErrGenreNotFound
	}
	return g, nil
}
