package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/classecho/classecho/internal/model"
	"github.com/classecho/classecho/internal/store"
)

type TeacherHandler struct {
	teachers *store.TeacherStore
	courses  *store.CourseStore
	logger   *slog.Logger
}

func NewTeacherHandler(teachers *store.TeacherStore, courses *store.CourseStore, logger *slog.Logger) *TeacherHandler {
	return &TeacherHandler{teachers: teachers, courses: courses, logger: logger}
}

type teacherRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department"`
}

func (h *TeacherHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req teacherRequest
	if !bind(w, r, &req) {
		return
	}

	teacher, err := h.teachers.Create(req.Name, strings.ToLower(req.Email), req.Department)
	if err != nil {
		h.logger.Error("create teacher", "error", err)
		writeError(w, http.StatusConflict, "could not create teacher")
		return
	}
	writeJSON(w, http.StatusCreated, teacher)
}

func (h *TeacherHandler) List(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.teachers.List()
	if err != nil {
		h.logger.Error("list teachers", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if teachers == nil {
		teachers = []model.Teacher{}
	}
	writeJSON(w, http.StatusOK, teachers)
}

func (h *TeacherHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid teacher id")
		return
	}
	teacher, err := h.teachers.GetByID(id)
	if err != nil {
		h.logger.Error("get teacher", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if teacher == nil {
		writeError(w, http.StatusNotFound, "teacher not found")
		return
	}
	writeJSON(w, http.StatusOK, teacher)
}

// Courses lists the courses taught by one teacher.
func (h *TeacherHandler) Courses(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid teacher id")
		return
	}
	courses, err := h.courses.ListByTeacher(id)
	if err != nil {
		h.logger.Error("list teacher courses", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if courses == nil {
		courses = []model.Course{}
	}
	writeJSON(w, http.StatusOK, courses)
}

func (h *TeacherHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid teacher id")
		return
	}

	var req teacherRequest
	if !bind(w, r, &req) {
		return
	}

	existing, err := h.teachers.GetByID(id)
	if err != nil {
		h.logger.Error("get teacher", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "teacher not found")
		return
	}

	teacher, err := h.teachers.Update(id, req.Name, strings.ToLower(req.Email), req.Department)
	if err != nil {
		h.logger.Error("update teacher", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, teacher)
}

func (h *TeacherHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid teacher id")
		return
	}
	if err := h.teachers.Delete(id); err != nil {
		h.logger.Error("delete teacher", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
