package store

import (
	"database/sql"
	"fmt"

	"github.com/classecho/classecho/internal/model"
)

type EnrollmentStore struct {
	db *sql.DB
}

func NewEnrollmentStore(db *sql.DB) *EnrollmentStore {
	return &EnrollmentStore{db: db}
}

func scanEnrollment(scanner interface{ Scan(...any) error }) (*model.Enrollment, error) {
	var e model.Enrollment
	err := scanner.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.Section, &e.EnrolledAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const enrollmentCols = `id, student_id, course_id, section, enrolled_at`

// Create enrolls a student in a course. A student can be enrolled in a
// course only once; a repeat insert returns ErrDuplicateEntry.
func (s *EnrollmentStore) Create(studentID, courseID int64, section string) (*model.Enrollment, error) {
	result, err := s.db.Exec(
		`INSERT INTO enrollments (student_id, course_id, section) VALUES (?, ?, ?)
		 ON CONFLICT (student_id, course_id) DO NOTHING`,
		studentID, courseID, section,
	)
	if err != nil {
		return nil, fmt.Errorf("insert enrollment: %w", err)
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
	row := s.db.QueryRow(`SELECT `+enrollmentCols+` FROM enrollments WHERE id = ?`, id)
	return scanEnrollment(row)
}

func (s *EnrollmentStore) ListByStudent(studentID int64) ([]model.Enrollment, error) {
	return s.list(`SELECT `+enrollmentCols+` FROM enrollments WHERE student_id = ? ORDER BY enrolled_at`, studentID)
}

func (s *EnrollmentStore) ListByCourse(courseID int64) ([]model.Enrollment, error) {
	return s.list(`SELECT `+enrollmentCols+` FROM enrollments WHERE course_id = ? ORDER BY enrolled_at`, courseID)
}

func (s *EnrollmentStore) list(query string, args ...any) ([]model.Enrollment, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []model.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		enrollments = append(enrollments, *e)
	}
	return enrollments, rows.Err()
}

func (s *EnrollmentStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM enrollments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}

// IsEnrolled reports whether the student is enrolled in the course.
func (s *EnrollmentStore) IsEnrolled(studentID, courseID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM enrollments WHERE student_id = ? AND course_id = ?`,
		studentID, courseID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return n > 0, nil
}
