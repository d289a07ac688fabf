package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/agersant/polaris/internal/apperror"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps err's apperror.Kind to a status code, following spec.md
// §7's error taxonomy: not-found is 404, a malformed mapping or decode is
// 422, I/O and persistence failures are 500, and a bad search query is 400.
func writeError(w http.ResponseWriter, err error) {
	writeErrorMsg(w, statusForError(err), err.Error())
}

func statusForError(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindMapping, apperror.KindDecode:
		return http.StatusUnprocessableEntity
	case apperror.KindQuery:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
