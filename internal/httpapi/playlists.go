package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/agersant/polaris/internal/playliststore"
)

type playlistDTOValue struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Songs []string `json:"songs"`
}

func playlistDTO(p playliststore.Playlist) playlistDTOValue {
	return playlistDTOValue{ID: p.ID, Name: p.Name, Songs: p.Songs}
}

// handleListPlaylists returns the caller's own playlists, without their song
// lists, matching the lightweight-header convention used elsewhere.
func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	playlists, err := s.playlists.List(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]playlistDTOValue, len(playlists))
	for i, p := range playlists {
		out[i] = playlistDTO(p)
	}
	writeJSON(w, http.StatusOK, out)
}

type createPlaylistRequest struct {
	Name  string   `json:"name"`
	Songs []string `json:"songs"`
}

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeErrorMsg(w, http.StatusBadRequest, "playlist name is required")
		return
	}

	user := userFromContext(r.Context())
	p, err := s.playlists.Create(user.ID, req.Name, req.Songs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, playlistDTO(*p))
}

func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := playlistIDParam(r)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid playlist id")
		return
	}

	user := userFromContext(r.Context())
	p, err := s.playlists.Get(user.ID, id)
	if err != nil {
		writePlaylistError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlistDTO(*p))
}

type setPlaylistSongsRequest struct {
	Songs []string `json:"songs"`
}

func (s *Server) handleSetPlaylistSongs(w http.ResponseWriter, r *http.Request) {
	id, err := playlistIDParam(r)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid playlist id")
		return
	}

	var req setPlaylistSongsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := userFromContext(r.Context())
	if err := s.playlists.SetSongs(user.ID, id, req.Songs); err != nil {
		writePlaylistError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := playlistIDParam(r)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid playlist id")
		return
	}

	user := userFromContext(r.Context())
	if err := s.playlists.Delete(user.ID, id); err != nil {
		writePlaylistError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func playlistIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func writePlaylistError(w http.ResponseWriter, err error) {
	if errors.Is(err, playliststore.ErrPlaylistNotFound) {
		writeErrorMsg(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, err)
}
