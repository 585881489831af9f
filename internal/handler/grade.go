package handler

import (
	"log/slog"
	"net/http"

	"github.com/classecho/classecho/internal/model"
	"github.com/classecho/classecho/internal/store"
)

type GradeHandler struct {
	grades      *store.GradeStore
	enrollments *store.EnrollmentStore
	logger      *slog.Logger
}

func NewGradeHandler(grades *store.GradeStore, enrollments *store.EnrollmentStore, logger *slog.Logger) *GradeHandler {
	return &GradeHandler{grades: grades, enrollments: enrollments, logger: logger}
}

type gradeRequest struct {
	StudentID int64   `json:"student_id" validate:"required"`
	CourseID  int64   `json:"course_id" validate:"required"`
	Title     string  `json:"title" validate:"required,max=200"`
	Score     float64 `json:"score" validate:"min=0"`
	MaxScore  float64 `json:"max_score" validate:"required,gt=0"`
	Weight    float64 `json:"weight" validate:"min=0,max=1"`
}

type gradeUpdateRequest struct {
	Title    string  `json:"title" validate:"required,max=200"`
	Score    float64 `json:"score" validate:"min=0"`
	MaxScore float64 `json:"max_score" validate:"required,gt=0"`
	Weight   float64 `json:"weight" validate:"min=0,max=1"`
}

func (h *GradeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if !bind(w, r, &req) {
		return
	}

	enrolled, err := h.enrollments.IsEnrolled(req.StudentID, req.CourseID)
	if err != nil {
		h.logger.Error("check enrollment", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !enrolled {
		writeError(w, http.StatusNotFound, "student not enrolled in course")
		return
	}

	grade, err := h.grades.Create(req.StudentID, req.CourseID, req.Title, req.Score, req.MaxScore, req.Weight)
	if err != nil {
		h.logger.Error("create grade", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, grade)
}

func (h *GradeHandler) ListByStudentCourse(w http.ResponseWriter, r *http.Request) {
	studentID, err := parseIDParam(r, "studentId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student id")
		return
	}
	courseID, err := parseIDParam(r, "courseId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}
	grades, err := h.grades.ListByStudentCourse(studentID, courseID)
	if err != nil {
		h.logger.Error("list grades", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if grades == nil {
		grades = []model.Grade{}
	}
	writeJSON(w, http.StatusOK, grades)
}

func (h *GradeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid grade id")
		return
	}
	var req gradeUpdateRequest
	if !bind(w, r, &req) {
		return
	}

	existing, err := h.grades.GetByID(id)
	if err != nil {
		h.logger.Error("get grade", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "grade not found")
		return
	}

	grade, err := h.grades.Update(id, req.Title, req.Score, req.MaxScore, req.Weight)
	if err != nil {
		h.logger.Error("update grade", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, grade)
}

func (h *GradeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid grade id")
		return
	}
	if err := h.grades.Delete(id); err != nil {
		h.logger.Error("delete grade", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
