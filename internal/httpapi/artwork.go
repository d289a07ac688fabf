package httpapi

import (
	"net/http"
	"strconv"

	"github.com/agersant/polaris/internal/apperror"
)

const defaultArtworkDimension = 300

func (s *Server) handleArtwork(w http.ResponseWriter, r *http.Request) {
	vp := r.URL.Query().Get("path")
	if vp == "" {
		writeErrorMsg(w, http.StatusBadRequest, "missing path query parameter")
		return
	}

	dimension := defaultArtworkDimension
	if raw := r.URL.Query().Get("size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeErrorMsg(w, http.StatusBadRequest, "invalid size query parameter")
			return
		}
		dimension = v
	}

	realPath, err := s.vfs.VirtualToReal(vp)
	if err != nil {
		writeError(w, err)
		return
	}

	thumbPath, err := s.thumbnails.GetThumbnail(r.Context(), realPath, dimension)
	if err != nil {
		writeError(w, apperror.Wrap(apperror.KindDecode, "could not generate thumbnail", err))
		return
	}

	http.ServeFile(w, r, thumbPath)
}
