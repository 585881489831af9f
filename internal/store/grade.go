package store

import (
	"database/sql"
	"fmt"

	"github.com/classecho/classecho/internal/model"
)

type GradeStore struct {
	db *sql.DB
}

func NewGradeStore(db *sql.DB) *GradeStore {
	return &GradeStore{db: db}
}

func scanGrade(scanner interface{ Scan(...any) error }) (*model.Grade, error) {
	var g model.Grade
	err := scanner.Scan(
		&g.ID, &g.StudentID, &g.CourseID, &g.Title,
		&g.Score, &g.MaxScore, &g.Weight, &g.GradedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

const gradeCols = `id, student_id, course_id, title, score, max_score, weight, graded_at`

func (s *GradeStore) Create(studentID, courseID int64, title string, score, maxScore, weight float64) (*model.Grade, error) {
	result, err := s.db.Exec(
		`INSERT INTO grades (student_id, course_id, title, score, max_score, weight)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		studentID, courseID, title, score, maxScore, weight,
	)
	if err != nil {
		return nil, fmt.Errorf("insert grade: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *GradeStore) GetByID(id int64) (*model.Grade, error) {
	row := s.db.QueryRow(`SELECT `+gradeCols+` FROM grades WHERE id = ?`, id)
	g, err := scanGrade(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get grade: %w", err)
	}
	return g, nil
}

func (s *GradeStore) ListByStudentCourse(studentID, courseID int64) ([]model.Grade, error) {
	rows, err := s.db.Query(
		`SELECT `+gradeCols+` FROM grades
		 WHERE student_id = ? AND course_id = ? ORDER BY graded_at`,
		studentID, courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	defer rows.Close()

	var grades []model.Grade
	for rows.Next() {
		g, err := scanGrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grade: %w", err)
		}
		grades = append(grades, *g)
	}
	return grades, rows.Err()
}

func (s *GradeStore) Update(id int64, title string, score, maxScore, weight float64) (*model.Grade, error) {
	_, err := s.db.Exec(
		`UPDATE grades SET title = ?, score = ?, max_score = ?, weight = ? WHERE id = ?`,
		title, score, maxScore, weight, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update grade: %w", err)
	}
	return s.GetByID(id)
}

func (s *GradeStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM grades WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	return nil
}
