package httpapi

import (
	"encoding/json"
	"net/http"
	"time"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string `json:"token"`
	IsAdmin bool   `json:"is_admin"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.users.Authenticate(req.Username, req.Password)
	if err != nil {
		writeErrorMsg(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.users.IssueToken(user.ID, time.Now().Unix())
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, "could not issue auth token")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, IsAdmin: user.IsAdmin})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		_ = s.users.RevokeToken(token)
	}
	w.WriteHeader(http.StatusNoContent)
}
