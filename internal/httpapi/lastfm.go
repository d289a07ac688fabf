package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agersant/polaris/internal/apperror"
)

type lastfmLinkRequest struct {
	Token string `json:"token"`
}

// handleLastfmLink drives the teacher's token-then-session linking flow over
// HTTP in two steps: a request with no token starts it and hands back a
// token plus the URL to authorize it on; a request carrying that
// (now-authorized) token finishes it and stores the resulting session key.
func (s *Server) handleLastfmLink(w http.ResponseWriter, r *http.Request) {
	if s.lastfmClient == nil {
		writeErrorMsg(w, http.StatusNotFound, "last.fm linking is disabled")
		return
	}

	var req lastfmLinkRequest
	_ = json.NewDecoder(r.Body).Decode(&req) // an empty body is a valid "start linking" request

	if req.Token == "" {
		token, err := s.lastfmClient.GetToken()
		if err != nil {
			writeError(w, apperror.Wrap(apperror.KindIO, "could not request last.fm token", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"token":    token,
			"auth_url": s.lastfmClient.GetAuthURL(token),
		})
		return
	}

	user := userFromContext(r.Context())
	username, sessionKey, err := s.lastfmClient.GetSession(req.Token)
	if err != nil {
		writeError(w, apperror.Wrap(apperror.KindIO, "could not exchange last.fm token", err))
		return
	}
	if err := s.users.SetLastfmSessionKey(user.ID, sessionKey); err != nil {
		writeError(w, apperror.Wrap(apperror.KindPersistence, "could not store last.fm session", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"lastfm_username": username})
}

// handleLastfmNowPlaying and handleLastfmScrobble submit a play to Last.fm
// on behalf of the caller's own linked account; a caller with no linked
// session (an empty LastfmSessionKey) is reported not-found rather than
// submitted against an empty session key.
func (s *Server) handleLastfmNowPlaying(w http.ResponseWriter, r *http.Request) {
	if s.lastfm == nil {
		writeErrorMsg(w, http.StatusNotFound, "last.fm linking is disabled")
		return
	}
	user := userFromContext(r.Context())
	if user.LastfmSessionKey == "" {
		writeErrorMsg(w, http.StatusNotFound, "last.fm account is not linked")
		return
	}
	vp := chi.URLParam(r, "*")
	if err := s.lastfm.ReportNowPlaying(user.LastfmSessionKey, vp); err != nil {
		writeError(w, apperror.Wrap(apperror.KindIO, "could not report now playing", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLastfmScrobble(w http.ResponseWriter, r *http.Request) {
	if s.lastfm == nil {
		writeErrorMsg(w, http.StatusNotFound, "last.fm linking is disabled")
		return
	}
	user := userFromContext(r.Context())
	if user.LastfmSessionKey == "" {
		writeErrorMsg(w, http.StatusNotFound, "last.fm account is not linked")
		return
	}
	vp := chi.URLParam(r, "*")
	if err := s.lastfm.Scrobble(user.LastfmSessionKey, vp, time.Now()); err != nil {
		writeError(w, apperror.Wrap(apperror.KindIO, "could not scrobble", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLastfmUnlink(w http.ResponseWriter, r *http.Request) {
	if s.lastfmClient == nil {
		writeErrorMsg(w, http.StatusNotFound, "last.fm linking is disabled")
		return
	}

	user := userFromContext(r.Context())
	if err := s.users.SetLastfmSessionKey(user.ID, ""); err != nil {
		writeError(w, apperror.Wrap(apperror.KindPersistence, "could not clear last.fm session", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
