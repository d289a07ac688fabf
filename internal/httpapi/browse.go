package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	files, err := s.manager.Browse(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fileDTOs(files))
}

func (s *Server) handleFlatten(w http.ResponseWriter, r *http.Request) {
	paths, err := s.manager.Flatten(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paths)
}

type songsRequest struct {
	Paths []string `json:"paths"`
}

func (s *Server) handleSongs(w http.ResponseWriter, r *http.Request) {
	var req songsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dict := s.manager.Dict()
	results := s.manager.GetSongs(req.Paths)
	out := make([]songResultDTO, len(results))
	for i, res := range results {
		if res.Err != nil {
			out[i] = songResultDTO{Error: res.Err.Error()}
			continue
		}
		out[i] = songResultDTO{Song: songDTO(dict, res.Song)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	keys, err := s.manager.Search(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, err)
		return
	}

	dict := s.manager.Dict()
	results := s.manager.GetSongsByKey(keys)
	out := make([]songDTOValue, 0, len(results))
	for _, res := range results {
		if res.Song != nil {
			out = append(out, *songDTO(dict, res.Song))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTriggerIndex(w http.ResponseWriter, r *http.Request) {
	s.orchestrator.TriggerScan()
	w.WriteHeader(http.StatusAccepted)
}
