package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/classecho/classecho/internal/model"
	"github.com/classecho/classecho/internal/store"
)

type EnrollmentHandler struct {
	enrollments *store.EnrollmentStore
	students    *store.StudentStore
	courses     *store.CourseStore
	logger      *slog.Logger
}

func NewEnrollmentHandler(enrollments *store.EnrollmentStore, students *store.StudentStore, courses *store.CourseStore, logger *slog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, students: students, courses: courses, logger: logger}
}

type enrollmentRequest struct {
	StudentID int64  `json:"student_id" validate:"required"`
	CourseID  int64  `json:"course_id" validate:"required"`
	Section   string `json:"section" validate:"max=50"`
}

func (h *EnrollmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req enrollmentRequest
	if !bind(w, r, &req) {
		return
	}

	ok, err := h.students.Exists(req.StudentID)
	if err != nil {
		h.logger.Error("check student", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "student not found")
		return
	}
	ok, err = h.courses.Exists(req.CourseID)
	if err != nil {
		h.logger.Error("check course", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "course not found")
		return
	}

	enrollment, err := h.enrollments.Create(req.StudentID, req.CourseID, req.Section)
	if errors.Is(err, store.ErrDuplicateEntry) {
		writeError(w, http.StatusConflict, "student already enrolled")
		return
	}
	if err != nil {
		h.logger.Error("create enrollment", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, enrollment)
}

// ListByCourse lists the enrollments (roster) of one course.
func (h *EnrollmentHandler) ListByCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := parseIDParam(r, "courseId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}
	enrollments, err := h.enrollments.ListByCourse(courseID)
	if err != nil {
		h.logger.Error("list course enrollments", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if enrollments == nil {
		enrollments = []model.Enrollment{}
	}
	writeJSON(w, http.StatusOK, enrollments)
}

func (h *EnrollmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid enrollment id")
		return
	}
	if err := h.enrollments.Delete(id); err != nil {
		h.logger.Error("delete enrollment", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
