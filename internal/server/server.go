package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/classecho/classecho/internal/attendance"
	"github.com/classecho/classecho/internal/backup"
	"github.com/classecho/classecho/internal/handler"
	"github.com/classecho/classecho/internal/middleware"
	"github.com/classecho/classecho/internal/model"
	"github.com/classecho/classecho/internal/storage"
	"github.com/classecho/classecho/internal/store"
	ws "github.com/classecho/classecho/internal/websocket"
)

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	attendanceH *handler.AttendanceHandler
	authH       *handler.AuthHandler
	courseH     *handler.CourseHandler
	teacherH    *handler.TeacherHandler
	studentH    *handler.StudentHandler
	enrollmentH *handler.EnrollmentHandler
	gradeH      *handler.GradeHandler
	materialH   *handler.MaterialHandler
	backupH     *handler.BackupHandler

	attendanceSvc *attendance.Service
	sweeper       *attendance.Sweeper
	backupManager *backup.Manager
	rateLimiter   *middleware.RateLimiter
	jwtSecret     []byte
	logger        *slog.Logger
}

func New(db *sql.DB, jwtSecret []byte, backupCfg backup.Config, storageCfg storage.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	teacherStore := store.NewTeacherStore(db)
	studentStore := store.NewStudentStore(db)
	courseStore := store.NewCourseStore(db)
	enrollmentStore := store.NewEnrollmentStore(db)
	gradeStore := store.NewGradeStore(db)
	userStore := store.NewUserStore(db)
	leaseStore := store.NewLeaseStore(db)
	attendanceStore := store.NewAttendanceStore(db)

	attendanceSvc := attendance.NewService(leaseStore, attendanceStore, courseStore, teacherStore, studentStore)

	// Expired leases that the sweeper retires get announced on the live feed.
	sweeper := attendance.NewSweeper(leaseStore, func(sess model.Session) {
		hub.Broadcast(ws.Message{
			Event:    ws.EventSessionExpired,
			CourseID: sess.CourseID,
			Date:     sess.Date,
			Section:  sess.Section,
		})
	}, logger.With("component", "sweeper"))

	backupStore := store.NewBackupStore(db)
	backupMgr := backup.NewManager(backupCfg, db, backupStore, logger.With("component", "backup"))

	materialStore := store.NewMaterialStore(db)
	fileStore := storage.New(storageCfg)

	return &Server{
		db:            db,
		hub:           hub,
		attendanceH:   handler.NewAttendanceHandler(attendanceSvc, hub, logger.With("component", "attendance")),
		authH:         handler.NewAuthHandler(userStore, jwtSecret, logger.With("component", "auth")),
		courseH:       handler.NewCourseHandler(courseStore, teacherStore, logger.With("component", "course")),
		teacherH:      handler.NewTeacherHandler(teacherStore, courseStore, logger.With("component", "teacher")),
		studentH:      handler.NewStudentHandler(studentStore, enrollmentStore, logger.With("component", "student")),
		enrollmentH:   handler.NewEnrollmentHandler(enrollmentStore, studentStore, courseStore, logger.With("component", "enrollment")),
		gradeH:        handler.NewGradeHandler(gradeStore, enrollmentStore, logger.With("component", "grade")),
		materialH:     handler.NewMaterialHandler(materialStore, courseStore, fileStore, logger.With("component", "material")),
		backupH:       handler.NewBackupHandler(backupMgr, backupStore, logger.With("component", "backup_handler")),
		attendanceSvc: attendanceSvc,
		sweeper:       sweeper,
		backupManager: backupMgr,
		rateLimiter:   middleware.NewRateLimiter(),
		jwtSecret:     jwtSecret,
		logger:        logger,
	}
}

// Sweeper returns the expiry sweeper so the main process can run it.
func (s *Server) Sweeper() *attendance.Sweeper {
	return s.sweeper
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("GET /ws", ws.Handler(s.hub, s.logger.With("component", "websocket")))

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.jwtSecret)
	outerMux.Handle("/api/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	teacherOnly := middleware.RequireRole(model.RoleTeacher, model.RoleAdmin)
	studentOnly := middleware.RequireRole(model.RoleStudent)
	staffOnly := middleware.RequireRole(model.RoleTeacher, model.RoleAdmin)

	handle := func(pattern string, mw func(http.Handler) http.Handler, h http.HandlerFunc) {
		mux.Handle(pattern, mw(h))
	}

	// Account management (admin only)
	mux.Handle("POST /api/auth/register", middleware.RequireAdmin(http.HandlerFunc(s.authH.Register)))

	// QR session lifecycle
	handle("POST /api/attendance/qr/generate", teacherOnly, s.attendanceH.GenerateQR)
	mux.HandleFunc("GET /api/attendance/qr/validate/{token}", s.attendanceH.ValidateQR)
	handle("POST /api/attendance/qr/mark", studentOnly, s.rateLimitedHandler(s.attendanceH.MarkQR))
	handle("POST /api/attendance/mark", teacherOnly, s.attendanceH.MarkManual)
	handle("POST /api/attendance/session/{id}/close", teacherOnly, s.attendanceH.CloseSession)
	mux.HandleFunc("GET /api/attendance/course/{courseId}/active-session", s.attendanceH.ActiveSession)
	handle("GET /api/attendance/teacher/me/sessions", teacherOnly, s.attendanceH.MySessions)

	// Attendance listings
	handle("GET /api/attendance/student/me", studentOnly, s.attendanceH.MyAttendance)
	handle("GET /api/attendance/student/{studentId}", staffOnly, s.attendanceH.StudentAttendance)
	handle("GET /api/attendance/student/{studentId}/course/{courseId}", staffOnly, s.attendanceH.StudentCourseAttendance)
	handle("GET /api/attendance/course/{courseId}", staffOnly, s.attendanceH.CourseAttendance)

	// Attendance stats
	handle("GET /api/attendance/student/me/stats", studentOnly, s.attendanceH.MyStats)
	handle("GET /api/attendance/student/me/courses", studentOnly, s.attendanceH.MyCourseWiseStats)
	handle("GET /api/attendance/student/{studentId}/stats", staffOnly, s.attendanceH.StudentStats)
	handle("GET /api/attendance/student/{studentId}/course/{courseId}/stats", staffOnly, s.attendanceH.StudentCourseStats)
	handle("GET /api/attendance/course/{courseId}/session/stats", staffOnly, s.attendanceH.SessionStats)

	// Teacher registry
	handle("POST /api/teachers", middleware.RequireAdmin, s.teacherH.Create)
	mux.HandleFunc("GET /api/teachers", s.teacherH.List)
	mux.HandleFunc("GET /api/teachers/{id}", s.teacherH.Get)
	mux.HandleFunc("GET /api/teachers/{id}/courses", s.teacherH.Courses)
	handle("PUT /api/teachers/{id}", middleware.RequireAdmin, s.teacherH.Update)
	handle("DELETE /api/teachers/{id}", middleware.RequireAdmin, s.teacherH.Delete)

	// Student registry
	handle("POST /api/students", middleware.RequireAdmin, s.studentH.Create)
	mux.HandleFunc("GET /api/students", s.studentH.List)
	mux.HandleFunc("GET /api/students/{id}", s.studentH.Get)
	mux.HandleFunc("GET /api/students/{id}/enrollments", s.studentH.Enrollments)
	handle("PUT /api/students/{id}", middleware.RequireAdmin, s.studentH.Update)
	handle("DELETE /api/students/{id}", middleware.RequireAdmin, s.studentH.Delete)

	// Course registry
	handle("POST /api/courses", middleware.RequireAdmin, s.courseH.Create)
	mux.HandleFunc("GET /api/courses", s.courseH.List)
	mux.HandleFunc("GET /api/courses/{id}", s.courseH.Get)
	handle("PUT /api/courses/{id}", middleware.RequireAdmin, s.courseH.Update)
	handle("DELETE /api/courses/{id}", middleware.RequireAdmin, s.courseH.Delete)

	// Enrollments
	handle("POST /api/enrollments", staffOnly, s.enrollmentH.Create)
	mux.HandleFunc("GET /api/courses/{courseId}/enrollments", s.enrollmentH.ListByCourse)
	handle("DELETE /api/enrollments/{id}", staffOnly, s.enrollmentH.Delete)

	// Grades
	handle("POST /api/grades", teacherOnly, s.gradeH.Create)
	mux.HandleFunc("GET /api/students/{studentId}/courses/{courseId}/grades", s.gradeH.ListByStudentCourse)
	handle("PUT /api/grades/{id}", teacherOnly, s.gradeH.Update)
	handle("DELETE /api/grades/{id}", teacherOnly, s.gradeH.Delete)

	// Course materials
	handle("POST /api/materials/upload", teacherOnly, s.materialH.Upload)
	handle("GET /api/materials", staffOnly, s.materialH.List)
	mux.HandleFunc("GET /api/materials/{id}", s.materialH.Get)
	mux.HandleFunc("GET /api/materials/{id}/download", s.materialH.Download)
	handle("PUT /api/materials/{id}", teacherOnly, s.materialH.Update)
	handle("DELETE /api/materials/{id}", teacherOnly, s.materialH.Delete)
	mux.HandleFunc("GET /api/courses/{courseId}/materials", s.materialH.ListByCourse)
	mux.HandleFunc("GET /api/courses/{courseId}/materials/count", s.materialH.Count)

	// Backup administration
	handle("GET /api/admin/backup/status", middleware.RequireAdmin, s.backupH.Status)
	handle("GET /api/admin/backup", middleware.RequireAdmin, s.backupH.List)
	handle("POST /api/admin/backup/run", middleware.RequireAdmin, s.backupH.Run)
	handle("POST /api/admin/backup/{id}/restore", middleware.RequireAdmin, s.backupH.Restore)
}
