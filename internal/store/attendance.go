package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/classecho/classecho/internal/model"
)

// ErrDuplicateEntry is returned when an attendance entry already exists
// for a (student, course, date, section) key and the write would have
// created a second one.
var ErrDuplicateEntry = errors.New("attendance already marked")

// AttendanceStore manages the attendance ledger: one row per student per
// class meeting, enforced by a unique index.
type AttendanceStore struct {
	db *sql.DB
}

func NewAttendanceStore(db *sql.DB) *AttendanceStore {
	return &AttendanceStore{db: db}
}

func scanAttendance(scanner interface{ Scan(...any) error }) (*model.Attendance, error) {
	var a model.Attendance
	var token sql.NullString
	err := scanner.Scan(
		&a.ID, &a.StudentID, &a.CourseID, &a.Date, &a.Section,
		&a.Status, &a.MarkedBy, &token, &a.MarkedAt,
	)
	if err != nil {
		return nil, err
	}
	if token.Valid {
		a.Token = &token.String
	}
	return &a, nil
}

const attendanceCols = `id, student_id, course_id, date, section, status, marked_by, token, marked_at`

// CreateFromToken records a QR redemption as a single conditional
// insert. If an entry already exists for the key the insert affects
// zero rows and ErrDuplicateEntry is returned; of two concurrent
// redemptions exactly one inserts and the other observes the conflict.
func (s *AttendanceStore) CreateFromToken(studentID, courseID int64, date, section, token string, now time.Time) (*model.Attendance, error) {
	result, err := s.db.Exec(
		`INSERT INTO attendance (student_id, course_id, date, section, status, marked_by, token, marked_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (student_id, course_id, date, section) DO NOTHING`,
		studentID, courseID, date, section, model.StatusPresent, model.MarkedQR, token, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert attendance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrDuplicateEntry
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+attendanceCols+` FROM attendance WHERE id = ?`, id)
	return scanAttendance(row)
}

// Upsert writes a manual attendance mark. An existing entry for the key
// is overwritten in place (status, marked_by, marked_at; any QR token is
// cleared); there is never a second row for the same key.
func (s *AttendanceStore) Upsert(studentID, courseID int64, date, section, status string, now time.Time) (*model.Attendance, error) {
	_, err := s.db.Exec(
		`INSERT INTO attendance (student_id, course_id, date, section, status, marked_by, token, marked_at)
		 VALUES (?, ?, ?, ?, ?, ?, NULL, ?)
		 ON CONFLICT (student_id, course_id, date, section) DO UPDATE SET
		   status = excluded.status,
		   marked_by = excluded.marked_by,
		   token = NULL,
		   marked_at = excluded.marked_at`,
		studentID, courseID, date, section, status, model.MarkedManual, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return s.Get(studentID, courseID, date, section)
}

// Get returns the entry for the key, or nil if none exists.
func (s *AttendanceStore) Get(studentID, courseID int64, date, section string) (*model.Attendance, error) {
	row := s.db.QueryRow(
		`SELECT `+attendanceCols+` FROM attendance
		 WHERE student_id = ? AND course_id = ? AND date = ? AND section = ?`,
		studentID, courseID, date, section,
	)
	a, err := scanAttendance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return a, nil
}

func (s *AttendanceStore) listQuery(query string, args ...any) ([]model.Attendance, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var entries []model.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		entries = append(entries, *a)
	}
	return entries, rows.Err()
}

// ListByStudent returns all of a student's entries, newest date first.
func (s *AttendanceStore) ListByStudent(studentID int64) ([]model.Attendance, error) {
	return s.listQuery(
		`SELECT `+attendanceCols+` FROM attendance WHERE student_id = ? ORDER BY date DESC, id DESC`,
		studentID,
	)
}

// ListByStudentCourse returns a student's entries for one course, newest date first.
func (s *AttendanceStore) ListByStudentCourse(studentID, courseID int64) ([]model.Attendance, error) {
	return s.listQuery(
		`SELECT `+attendanceCols+` FROM attendance
		 WHERE student_id = ? AND course_id = ? ORDER BY date DESC, id DESC`,
		studentID, courseID,
	)
}

// ListByCourseDate returns all entries for one class meeting.
func (s *AttendanceStore) ListByCourseDate(courseID int64, date, section string) ([]model.Attendance, error) {
	return s.listQuery(
		`SELECT `+attendanceCols+` FROM attendance
		 WHERE course_id = ? AND date = ? AND section = ? ORDER BY student_id`,
		courseID, date, section,
	)
}

// Counts returns (total, present) entry counts for a student, optionally
// scoped to one course when courseID is non-nil.
func (s *AttendanceStore) Counts(studentID int64, courseID *int64) (total, present int64, err error) {
	query := `SELECT COUNT(*), COALESCE(SUM(status = ?), 0) FROM attendance WHERE student_id = ?`
	args := []any{model.StatusPresent, studentID}
	if courseID != nil {
		query += ` AND course_id = ?`
		args = append(args, *courseID)
	}
	if err := s.db.QueryRow(query, args...).Scan(&total, &present); err != nil {
		return 0, 0, fmt.Errorf("count attendance: %w", err)
	}
	return total, present, nil
}

// CountsByCourseDate returns (total, present) entry counts for one class meeting.
func (s *AttendanceStore) CountsByCourseDate(courseID int64, date, section string) (total, present int64, err error) {
	err = s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(status = ?), 0) FROM attendance
		 WHERE course_id = ? AND date = ? AND section = ?`,
		model.StatusPresent, courseID, date, section,
	).Scan(&total, &present)
	if err != nil {
		return 0, 0, fmt.Errorf("count attendance by meeting: %w", err)
	}
	return total, present, nil
}
