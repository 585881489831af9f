package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/classecho/classecho/internal/model"
	"github.com/classecho/classecho/internal/store"
)

type StudentHandler struct {
	students    *store.StudentStore
	enrollments *store.EnrollmentStore
	logger      *slog.Logger
}

func NewStudentHandler(students *store.StudentStore, enrollments *store.EnrollmentStore, logger *slog.Logger) *StudentHandler {
	return &StudentHandler{students: students, enrollments: enrollments, logger: logger}
}

type studentRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	RollNumber string `json:"roll_number" validate:"required,max=30"`
	Semester   int    `json:"semester" validate:"gte=1"`
}

func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if !bind(w, r, &req) {
		return
	}

	student, err := h.students.Create(req.Name, strings.ToLower(req.Email), strings.TrimSpace(req.RollNumber), req.Semester)
	if err != nil {
		h.logger.Error("create student", "error", err)
		writeError(w, http.StatusConflict, "could not create student")
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.List()
	if err != nil {
		h.logger.Error("list students", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if students == nil {
		students = []model.Student{}
	}
	writeJSON(w, http.StatusOK, students)
}

func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student id")
		return
	}
	student, err := h.students.GetByID(id)
	if err != nil {
		h.logger.Error("get student", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if student == nil {
		writeError(w, http.StatusNotFound, "student not found")
		return
	}
	writeJSON(w, http.StatusOK, student)
}

// Enrollments lists one student's course enrollments.
func (h *StudentHandler) Enrollments(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student id")
		return
	}
	enrollments, err := h.enrollments.ListByStudent(id)
	if err != nil {
		h.logger.Error("list student enrollments", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if enrollments == nil {
		enrollments = []model.Enrollment{}
	}
	writeJSON(w, http.StatusOK, enrollments)
}

func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	var req studentRequest
	if !bind(w, r, &req) {
		return
	}

	existing, err := h.students.GetByID(id)
	if err != nil {
		h.logger.Error("get student", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "student not found")
		return
	}

	student, err := h.students.Update(id, req.Name, strings.ToLower(req.Email), strings.TrimSpace(req.RollNumber), req.Semester)
	if err != nil {
		h.logger.Error("update student", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student id")
		return
	}
	if err := h.students.Delete(id); err != nil {
		h.logger.Error("delete student", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
