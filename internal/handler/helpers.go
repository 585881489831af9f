package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/classecho/classecho/internal/attendance"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// bind decodes the JSON body into dst and validates it. On failure it
// writes a 400 response and returns false.
func bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return "invalid field " + f.Field() + ": failed " + f.Tag()
	}
	return "invalid request"
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

func parseFormID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.FormValue(name), 10, 64)
}

// writeServiceError maps attendance service errors onto HTTP statuses:
// unknown ids are 404, unusable tokens 404/410, duplicate marks 409.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, attendance.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, attendance.ErrInvalidToken):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, attendance.ErrExpired):
		writeError(w, http.StatusGone, err.Error())
	case errors.Is(err, attendance.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
