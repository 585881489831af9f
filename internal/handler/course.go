package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/classecho/classecho/internal/model"
	"github.com/classecho/classecho/internal/store"
)

type CourseHandler struct {
	courses  *store.CourseStore
	teachers *store.TeacherStore
	logger   *slog.Logger
}

func NewCourseHandler(courses *store.CourseStore, teachers *store.TeacherStore, logger *slog.Logger) *CourseHandler {
	return &CourseHandler{courses: courses, teachers: teachers, logger: logger}
}

type courseRequest struct {
	Code        string `json:"code" validate:"required,max=20"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Credits     int    `json:"credits" validate:"gte=0"`
	Semester    int    `json:"semester" validate:"gte=1"`
	TeacherID   *int64 `json:"teacher_id"`
}

func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if !bind(w, r, &req) {
		return
	}
	req.Code = strings.TrimSpace(req.Code)

	if req.TeacherID != nil {
		ok, err := h.teachers.Exists(*req.TeacherID)
		if err != nil {
			h.logger.Error("check teacher", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			writeError(w, http.StatusBadRequest, "teacher not found")
			return
		}
	}

	course, err := h.courses.Create(req.Code, req.Name, req.Description, req.Credits, req.Semester, req.TeacherID)
	if err != nil {
		h.logger.Error("create course", "error", err)
		writeError(w, http.StatusConflict, "could not create course")
		return
	}
	writeJSON(w, http.StatusCreated, course)
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.List()
	if err != nil {
		h.logger.Error("list courses", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if courses == nil {
		courses = []model.Course{}
	}
	writeJSON(w, http.StatusOK, courses)
}

func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}
	course, err := h.courses.GetByID(id)
	if err != nil {
		h.logger.Error("get course", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}

	var req courseRequest
	if !bind(w, r, &req) {
		return
	}

	existing, err := h.courses.GetByID(id)
	if err != nil {
		h.logger.Error("get course", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	course, err := h.courses.Update(id, strings.TrimSpace(req.Code), req.Name, req.Description, req.Credits, req.Semester, req.TeacherID)
	if err != nil {
		h.logger.Error("update course", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}
	if err := h.courses.Delete(id); err != nil {
		h.logger.Error("delete course", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
