package attendance

import (
	"errors"
	"fmt"
	"time"

	"github.com/classecho/classecho/internal/model"
	"github.com/classecho/classecho/internal/store"
)

// CourseRegistry is the course-lookup capability the service consumes.
type CourseRegistry interface {
	Exists(id int64) (bool, error)
	GetByID(id int64) (*model.Course, error)
}

// TeacherRegistry is the teacher-lookup capability the service consumes.
type TeacherRegistry interface {
	Exists(id int64) (bool, error)
}

// StudentRegistry is the student-lookup capability the service consumes.
type StudentRegistry interface {
	Exists(id int64) (bool, error)
}

// Service implements attendance-session leasing and QR redemption over
// the lease and ledger stores. All expiry decisions compare wall-clock
// time from the injected clock, not just the stored active flag.
type Service struct {
	leases   *store.LeaseStore
	ledger   *store.AttendanceStore
	courses  CourseRegistry
	teachers TeacherRegistry
	students StudentRegistry
	now      func() time.Time
}

func NewService(leases *store.LeaseStore, ledger *store.AttendanceStore, courses CourseRegistry, teachers TeacherRegistry, students StudentRegistry) *Service {
	return &Service{
		leases:   leases,
		ledger:   ledger,
		courses:  courses,
		teachers: teachers,
		students: students,
		now:      time.Now,
	}
}

// SetClock overrides the service's time source. Tests use it to move
// sessions past their expiry without sleeping.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Issue opens a QR attendance session for the class meeting, superseding
// any session already active for it. The returned session carries the
// opaque token to encode in the QR image.
func (s *Service) Issue(courseID, teacherID int64, section, date string) (*model.Session, error) {
	ok, err := s.courses.Exists(courseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("course %d: %w", courseID, ErrNotFound)
	}
	ok, err = s.teachers.Exists(teacherID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("teacher %d: %w", teacherID, ErrNotFound)
	}

	return s.leases.Issue(courseID, teacherID, section, date, s.now())
}

// Validate reports whether the token belongs to an active, unexpired
// session. A session observed past its expiry is retired on the spot.
func (s *Service) Validate(token string) (bool, error) {
	sess, err := s.leases.GetByToken(token)
	if err != nil {
		return false, err
	}
	if sess == nil || !sess.IsActive {
		return false, nil
	}
	if sess.Expired(s.now()) {
		if err := s.leases.Deactivate(sess.ID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// Redeem consumes a QR token for a student: exactly one PRESENT entry
// per student per class meeting, even under concurrent submissions. The
// duplicate check and insert are one atomic storage write; a losing
// racer gets ErrDuplicate, never a second row.
func (s *Service) Redeem(studentID int64, token string) (*model.Attendance, error) {
	ok, err := s.students.Exists(studentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("student %d: %w", studentID, ErrNotFound)
	}

	sess, err := s.leases.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if sess == nil || !sess.IsActive {
		return nil, ErrInvalidToken
	}
	if sess.Expired(s.now()) {
		if err := s.leases.Deactivate(sess.ID); err != nil {
			return nil, err
		}
		return nil, ErrExpired
	}

	entry, err := s.ledger.CreateFromToken(studentID, sess.CourseID, sess.Date, sess.Section, token, s.now())
	if errors.Is(err, store.ErrDuplicateEntry) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ManualMark records or overwrites an attendance entry without a token.
// A manual mark after a QR redemption updates the existing row in place.
func (s *Service) ManualMark(studentID, courseID int64, date, section, status string) (*model.Attendance, error) {
	ok, err := s.students.Exists(studentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("student %d: %w", studentID, ErrNotFound)
	}
	ok, err = s.courses.Exists(courseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("course %d: %w", courseID, ErrNotFound)
	}

	return s.ledger.Upsert(studentID, courseID, date, section, status, s.now())
}

// Close retires a session by id. Closing an already-retired session is
// a no-op; an unknown id is ErrNotFound.
func (s *Service) Close(sessionID int64) error {
	sess, err := s.leases.GetByID(sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session %d: %w", sessionID, ErrNotFound)
	}
	return s.leases.Deactivate(sess.ID)
}

// GetActive returns the active, unexpired session for a class meeting,
// or nil if there is none.
func (s *Service) GetActive(courseID int64, date, section string) (*model.Session, error) {
	return s.leases.GetActive(courseID, date, section, s.now())
}

// TeacherSessions lists a teacher's sessions, active first.
func (s *Service) TeacherSessions(teacherID int64) ([]model.Session, error) {
	return s.leases.ListByTeacher(teacherID)
}

// StudentEntries lists all of a student's ledger entries.
func (s *Service) StudentEntries(studentID int64) ([]model.Attendance, error) {
	return s.ledger.ListByStudent(studentID)
}

// StudentCourseEntries lists a student's ledger entries for one course.
func (s *Service) StudentCourseEntries(studentID, courseID int64) ([]model.Attendance, error) {
	return s.ledger.ListByStudentCourse(studentID, courseID)
}

// MeetingEntries lists all ledger entries for one class meeting.
func (s *Service) MeetingEntries(courseID int64, date, section string) ([]model.Attendance, error) {
	return s.ledger.ListByCourseDate(courseID, date, section)
}
