package httpapi

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/agersant/polaris/internal/apperror"
	"github.com/agersant/polaris/internal/collection"
)

func (s *Server) handleAlbums(w http.ResponseWriter, r *http.Request) {
	headers := s.manager.GetAlbums()
	keys := make([]collection.AlbumKey, len(headers))
	for i, h := range headers {
		keys[i] = h.Key
	}
	writeJSON(w, http.StatusOK, s.albumDTOsFromKeys(keys))
}

func (s *Server) handleRandomAlbums(w http.ResponseWriter, r *http.Request) {
	seed, offset, count, err := parsePagination(r, true)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	keys := s.manager.GetRandomAlbums(seed, offset, count)
	writeJSON(w, http.StatusOK, s.albumDTOsFromKeys(keys))
}

func (s *Server) handleRecentAlbums(w http.ResponseWriter, r *http.Request) {
	_, offset, count, err := parsePagination(r, false)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	keys := s.manager.GetRecentAlbums(offset, count)
	writeJSON(w, http.StatusOK, s.albumDTOsFromKeys(keys))
}

func (s *Server) handleAlbum(w http.ResponseWriter, r *http.Request) {
	artists := splitUnitSeparator(chi.URLParam(r, "artists"))
	name := chi.URLParam(r, "name")

	dict := s.manager.Dict()
	key, ok := resolveAlbumKey(dict, artists, name)
	if !ok {
		writeError(w, apperror.ErrAlbumNotFound)
		return
	}

	album, songKeys, err := s.manager.GetAlbum(key)
	if err != nil {
		writeError(w, err)
		return
	}

	results := s.manager.GetSongsByKey(songKeys)
	songs := make([]songDTOValue, 0, len(results))
	for _, res := range results {
		if res.Song != nil {
			songs = append(songs, *songDTO(dict, res.Song))
		}
	}

	dto := albumDTO(dict, album)
	dto.Songs = songs
	writeJSON(w, http.StatusOK, dto)
}

// albumDTOsFromKeys resolves each key back to its Album to build the listing
// DTOs, preserving the caller's ordering (random/recent pagination has
// already fixed the order; a missing key, e.g. torn down mid-request by a
// concurrent rescan, is silently skipped rather than failing the page).
func (s *Server) albumDTOsFromKeys(keys []collection.AlbumKey) []albumDTOValue {
	dict := s.manager.Dict()
	out := make([]albumDTOValue, 0, len(keys))
	for _, k := range keys {
		album, _, err := s.manager.GetAlbum(k)
		if err != nil {
			continue
		}
		out = append(out, albumDTO(dict, album))
	}
	return out
}

func (s *Server) handleArtists(w http.ResponseWriter, r *http.Request) {
	headers := s.manager.GetArtists()
	dict := s.manager.Dict()
	out := make([]artistHeaderDTO, len(headers))
	for i, h := range headers {
		out[i] = artistHeaderDTO{Name: dict.Resolve(h.Name)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleArtist(w http.ResponseWriter, r *http.Request) {
	artist, err := s.manager.GetArtist(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.artistDTO(artist))
}

func (s *Server) artistDTO(artist *collection.Artist) artistDTOValue {
	dict := s.manager.Dict()
	return artistDTOValue{
		Name:        dict.Resolve(artist.Name),
		Albums:      s.sortedAlbumDTOs(artist.Albums),
		FeaturedOn:  s.sortedAlbumDTOs(artist.FeaturedOn),
		Composed:    s.sortedAlbumDTOs(artist.Composed),
		WroteLyrics: s.sortedAlbumDTOs(artist.WroteLyrics),
	}
}

func (s *Server) sortedAlbumDTOs(set map[collection.AlbumKey]struct{}) []albumDTOValue {
	keys := albumKeysOf(set)
	s.manager.SortAlbumKeysByYearThenName(keys)
	return s.albumDTOsFromKeys(keys)
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	headers := s.manager.GetGenres()
	dict := s.manager.Dict()
	out := make([]genreHeaderDTO, len(headers))
	for i, h := range headers {
		out[i] = genreHeaderDTO{Name: dict.Resolve(h.Name), SongCount: h.SongCount}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGenre(w http.ResponseWriter, r *http.Request) {
	genre, err := s.manager.GetGenre(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.genreDTO(genre))
}

func (s *Server) genreDTO(genre *collection.Genre) genreDTOValue {
	dict := s.manager.Dict()
	results := s.manager.GetSongsByKey(songKeysOf(genre.Songs))
	songs := make([]songDTOValue, 0, len(results))
	for _, res := range results {
		if res.Song != nil {
			songs = append(songs, *songDTO(dict, res.Song))
		}
	}
	return genreDTOValue{Name: dict.Resolve(genre.Name), Songs: songs}
}

func splitUnitSeparator(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\x1f")
}

func parsePagination(r *http.Request, allowSeed bool) (seed *int64, offset, count int, err error) {
	q := r.URL.Query()

	offset, err = intQueryParam(q, "offset", 0)
	if err != nil {
		return nil, 0, 0, err
	}
	if offset < 0 {
		offset = 0
	}

	count, err = intQueryParam(q, "count", 50)
	if err != nil {
		return nil, 0, 0, err
	}
	if count < 0 {
		count = 0
	}

	if allowSeed {
		if raw := q.Get("seed"); raw != "" {
			v, perr := strconv.ParseInt(raw, 10, 64)
			if perr != nil {
				return nil, 0, 0, errInvalidSeed
			}
			seed = &v
		}
	}

	return seed, offset, count, nil
}

var errInvalidSeed = apperror.New(apperror.KindQuery, "invalid seed query parameter")

func intQueryParam(q url.Values, key string, def int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
