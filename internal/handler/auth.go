package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/classecho/classecho/internal/auth"
	"github.com/classecho/classecho/internal/store"
)

type AuthHandler struct {
	users     *store.UserStore
	jwtSecret []byte
	logger    *slog.Logger
}

func NewAuthHandler(users *store.UserStore, jwtSecret []byte, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: jwtSecret, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and returns a signed bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !bind(w, r, &req) {
		return
	}

	user, err := h.users.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.IssueToken(h.jwtSecret, user, time.Now())
	if err != nil {
		h.logger.Error("issue token", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"role":  user.Role,
		"user":  user,
	})
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"required,oneof=admin teacher student"`
	TeacherID *int64 `json:"teacher_id"`
	StudentID *int64 `json:"student_id"`
}

// Register creates a user account. Admin only; teacher/student accounts
// must reference their registry row.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !bind(w, r, &req) {
		return
	}

	switch req.Role {
	case "teacher":
		if req.TeacherID == nil {
			writeError(w, http.StatusBadRequest, "teacher_id is required for teacher accounts")
			return
		}
	case "student":
		if req.StudentID == nil {
			writeError(w, http.StatusBadRequest, "student_id is required for student accounts")
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := h.users.Create(strings.ToLower(strings.TrimSpace(req.Email)), string(hash), req.Role, req.TeacherID, req.StudentID)
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusConflict, "could not create user")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}
