package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/classecho/classecho/internal/attendance"
	"github.com/classecho/classecho/internal/auth"
	"github.com/classecho/classecho/internal/model"
	"github.com/classecho/classecho/internal/websocket"
)

// AttendanceHandler exposes the QR attendance session and ledger
// endpoints. Mutations are mirrored onto the live feed hub.
type AttendanceHandler struct {
	svc    *attendance.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewAttendanceHandler(svc *attendance.Service, hub *websocket.Hub, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{svc: svc, hub: hub, logger: logger}
}

func (h *AttendanceHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type generateQRRequest struct {
	CourseID int64  `json:"course_id" validate:"required"`
	Section  string `json:"section" validate:"max=50"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
}

// GenerateQR opens a QR session for one of the caller's class meetings.
func (h *AttendanceHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	teacherID := auth.TeacherID(r.Context())
	if teacherID == 0 {
		writeError(w, http.StatusForbidden, "no teacher account linked")
		return
	}

	var req generateQRRequest
	if !bind(w, r, &req) {
		return
	}

	sess, err := h.svc.Issue(req.CourseID, teacherID, req.Section, req.Date)
	if err != nil {
		h.logger.Error("issue session", "course_id", req.CourseID, "error", err)
		writeServiceError(w, err)
		return
	}

	h.broadcast(websocket.Message{
		Event:    websocket.EventSessionIssued,
		CourseID: sess.CourseID,
		Date:     sess.Date,
		Section:  sess.Section,
	})

	writeJSON(w, http.StatusCreated, sess)
}

// ValidateQR reports whether a token is currently redeemable.
func (h *AttendanceHandler) ValidateQR(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	valid, err := h.svc.Validate(token)
	if err != nil {
		h.logger.Error("validate token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

type markQRRequest struct {
	Token string `json:"token" validate:"required"`
}

// MarkQR redeems a QR token for the calling student.
func (h *AttendanceHandler) MarkQR(w http.ResponseWriter, r *http.Request) {
	studentID := auth.StudentID(r.Context())
	if studentID == 0 {
		writeError(w, http.StatusForbidden, "no student account linked")
		return
	}

	var req markQRRequest
	if !bind(w, r, &req) {
		return
	}

	entry, err := h.svc.Redeem(studentID, req.Token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.broadcast(websocket.Message{
		Event:     websocket.EventMarked,
		CourseID:  entry.CourseID,
		StudentID: entry.StudentID,
		Date:      entry.Date,
		Section:   entry.Section,
		Status:    entry.Status,
	})

	writeJSON(w, http.StatusCreated, entry)
}

type manualMarkRequest struct {
	StudentID int64  `json:"student_id" validate:"required"`
	CourseID  int64  `json:"course_id" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Section   string `json:"section" validate:"max=50"`
	Status    string `json:"status" validate:"required,oneof=PRESENT ABSENT PENDING"`
}

// MarkManual records or overwrites an entry without a QR token.
func (h *AttendanceHandler) MarkManual(w http.ResponseWriter, r *http.Request) {
	var req manualMarkRequest
	if !bind(w, r, &req) {
		return
	}

	entry, err := h.svc.ManualMark(req.StudentID, req.CourseID, req.Date, req.Section, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.broadcast(websocket.Message{
		Event:     websocket.EventMarked,
		CourseID:  entry.CourseID,
		StudentID: entry.StudentID,
		Date:      entry.Date,
		Section:   entry.Section,
		Status:    entry.Status,
	})

	writeJSON(w, http.StatusOK, entry)
}

// CloseSession retires a QR session before its expiry.
func (h *AttendanceHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	if err := h.svc.Close(id); err != nil {
		writeServiceError(w, err)
		return
	}

	h.broadcast(websocket.Message{Event: websocket.EventSessionClosed})
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// ActiveSession returns the active session for a class meeting, or 404.
func (h *AttendanceHandler) ActiveSession(w http.ResponseWriter, r *http.Request) {
	courseID, err := parseIDParam(r, "courseId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	section := r.URL.Query().Get("section")

	sess, err := h.svc.GetActive(courseID, date, section)
	if err != nil {
		h.logger.Error("get active session", "course_id", courseID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// MySessions lists the calling teacher's sessions.
func (h *AttendanceHandler) MySessions(w http.ResponseWriter, r *http.Request) {
	teacherID := auth.TeacherID(r.Context())
	if teacherID == 0 {
		writeError(w, http.StatusForbidden, "no teacher account linked")
		return
	}

	sessions, err := h.svc.TeacherSessions(teacherID)
	if err != nil {
		h.logger.Error("list teacher sessions", "teacher_id", teacherID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

// MyAttendance lists the calling student's ledger entries.
func (h *AttendanceHandler) MyAttendance(w http.ResponseWriter, r *http.Request) {
	studentID := auth.StudentID(r.Context())
	if studentID == 0 {
		writeError(w, http.StatusForbidden, "no student account linked")
		return
	}
	h.writeStudentEntries(w, studentID)
}

// StudentAttendance lists a student's ledger entries.
func (h *AttendanceHandler) StudentAttendance(w http.ResponseWriter, r *http.Request) {
	studentID, err := parseIDParam(r, "studentId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student id")
		return
	}
	h.writeStudentEntries(w, studentID)
}

func (h *AttendanceHandler) writeStudentEntries(w http.ResponseWriter, studentID int64) {
	entries, err := h.svc.StudentEntries(studentID)
	if err != nil {
		h.logger.Error("list student attendance", "student_id", studentID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if entries == nil {
		entries = []model.Attendance{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// StudentCourseAttendance lists a student's entries for one course.
func (h *AttendanceHandler) StudentCourseAttendance(w http.ResponseWriter, r *http.Request) {
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

	entries, err := h.svc.StudentCourseEntries(studentID, courseID)
	if err != nil {
		h.logger.Error("list student course attendance", "student_id", studentID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if entries == nil {
		entries = []model.Attendance{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// CourseAttendance lists all entries for one class meeting.
func (h *AttendanceHandler) CourseAttendance(w http.ResponseWriter, r *http.Request) {
	courseID, err := parseIDParam(r, "courseId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	section := r.URL.Query().Get("section")

	entries, err := h.svc.MeetingEntries(courseID, date, section)
	if err != nil {
		h.logger.Error("list meeting attendance", "course_id", courseID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if entries == nil {
		entries = []model.Attendance{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// MyStats returns the calling student's overall rollup.
func (h *AttendanceHandler) MyStats(w http.ResponseWriter, r *http.Request) {
	studentID := auth.StudentID(r.Context())
	if studentID == 0 {
		writeError(w, http.StatusForbidden, "no student account linked")
		return
	}
	h.writeStudentStats(w, studentID, nil)
}

// StudentStats returns a student's overall rollup.
func (h *AttendanceHandler) StudentStats(w http.ResponseWriter, r *http.Request) {
	studentID, err := parseIDParam(r, "studentId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student id")
		return
	}
	h.writeStudentStats(w, studentID, nil)
}

// StudentCourseStats returns a student's rollup for one course.
func (h *AttendanceHandler) StudentCourseStats(w http.ResponseWriter, r *http.Request) {
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
	h.writeStudentStats(w, studentID, &courseID)
}

func (h *AttendanceHandler) writeStudentStats(w http.ResponseWriter, studentID int64, courseID *int64) {
	stats, err := h.svc.StudentStats(studentID, courseID)
	if err != nil {
		h.logger.Error("student stats", "student_id", studentID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// MyCourseWiseStats returns the calling student's per-course breakdown.
func (h *AttendanceHandler) MyCourseWiseStats(w http.ResponseWriter, r *http.Request) {
	studentID := auth.StudentID(r.Context())
	if studentID == 0 {
		writeError(w, http.StatusForbidden, "no student account linked")
		return
	}

	stats, err := h.svc.CourseWiseStats(studentID)
	if err != nil {
		h.logger.Error("course-wise stats", "student_id", studentID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if stats == nil {
		stats = []attendance.CourseStats{}
	}
	writeJSON(w, http.StatusOK, stats)
}

// SessionStats returns the rollup for one class meeting.
func (h *AttendanceHandler) SessionStats(w http.ResponseWriter, r *http.Request) {
	courseID, err := parseIDParam(r, "courseId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	section := r.URL.Query().Get("section")

	stats, err := h.svc.MeetingStats(courseID, date, section)
	if err != nil {
		h.logger.Error("meeting stats", "course_id", courseID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
