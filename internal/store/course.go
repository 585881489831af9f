package store

import (
	"database/sql"
	"fmt"

	"github.com/classecho/classecho/internal/model"
)

type CourseStore struct {
	db *sql.DB
}

func NewCourseStore(db *sql.DB) *CourseStore {
	return &CourseStore{db: db}
}

func scanCourse(scanner interface{ Scan(...any) error }) (*model.Course, error) {
	var c model.Course
	var teacherID sql.NullInt64
	err := scanner.Scan(
		&c.ID, &c.Code, &c.Name, &c.Description, &c.Credits,
		&c.Semester, &teacherID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if teacherID.Valid {
		c.TeacherID = &teacherID.Int64
	}
	return &c, nil
}

const courseCols = `id, code, name, description, credits, semester, teacher_id, created_at, updated_at`

func (s *CourseStore) Create(code, name, description string, credits, semester int, teacherID *int64) (*model.Course, error) {
	var tID sql.NullInt64
	if teacherID != nil {
		tID = sql.NullInt64{Int64: *teacherID, Valid: true}
	}
	result, err := s.db.Exec(
		`INSERT INTO courses (code, name, description, credits, semester, teacher_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		code, name, description, credits, semester, tID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert course: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *CourseStore) GetByID(id int64) (*model.Course, error) {
	row := s.db.QueryRow(`SELECT `+courseCols+` FROM courses WHERE id = ?`, id)
	c, err := scanCourse(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}

// Exists reports whether a course row with the given id exists.
func (s *CourseStore) Exists(id int64) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM courses WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("course exists: %w", err)
	}
	return n > 0, nil
}

func (s *CourseStore) List() ([]model.Course, error) {
	rows, err := s.db.Query(`SELECT ` + courseCols + ` FROM courses ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, *c)
	}
	return courses, rows.Err()
}

// ListByTeacher returns the courses taught by one teacher.
func (s *CourseStore) ListByTeacher(teacherID int64) ([]model.Course, error) {
	rows, err := s.db.Query(`SELECT `+courseCols+` FROM courses WHERE teacher_id = ? ORDER BY code`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list courses by teacher: %w", err)
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, *c)
	}
	return courses, rows.Err()
}

func (s *CourseStore) Update(id int64, code, name, description string, credits, semester int, teacherID *int64) (*model.Course, error) {
	var tID sql.NullInt64
	if teacherID != nil {
		tID = sql.NullInt64{Int64: *teacherID, Valid: true}
	}
	_, err := s.db.Exec(
		`UPDATE courses SET code = ?, name = ?, description = ?, credits = ?, semester = ?,
		   teacher_id = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		code, name, description, credits, semester, tID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}
	return s.GetByID(id)
}

func (s *CourseStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}
