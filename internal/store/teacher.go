package store

import (
	"database/sql"
	"fmt"

	"github.com/classecho/classecho/internal/model"
)

type TeacherStore struct {
	db *sql.DB
}

func NewTeacherStore(db *sql.DB) *TeacherStore {
	return &TeacherStore{db: db}
}

func scanTeacher(scanner interface{ Scan(...any) error }) (*model.Teacher, error) {
	var t model.Teacher
	err := scanner.Scan(&t.ID, &t.Name, &t.Email, &t.Department, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const teacherCols = `id, name, email, department, created_at`

func (s *TeacherStore) Create(name, email, department string) (*model.Teacher, error) {
	result, err := s.db.Exec(
		`INSERT INTO teachers (name, email, department) VALUES (?, ?, ?)`,
		name, email, department,
	)
	if err != nil {
		return nil, fmt.Errorf("insert teacher: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TeacherStore) GetByID(id int64) (*model.Teacher, error) {
	row := s.db.QueryRow(`SELECT `+teacherCols+` FROM teachers WHERE id = ?`, id)
	t, err := scanTeacher(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	return t, nil
}

// Exists reports whether a teacher row with the given id exists.
func (s *TeacherStore) Exists(id int64) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM teachers WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("teacher exists: %w", err)
	}
	return n > 0, nil
}

func (s *TeacherStore) List() ([]model.Teacher, error) {
	rows, err := s.db.Query(`SELECT ` + teacherCols + ` FROM teachers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	defer rows.Close()

	var teachers []model.Teacher
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, fmt.Errorf("scan teacher: %w", err)
		}
		teachers = append(teachers, *t)
	}
	return teachers, rows.Err()
}

func (s *TeacherStore) Update(id int64, name, email, department string) (*model.Teacher, error) {
	_, err := s.db.Exec(
		`UPDATE teachers SET name = ?, email = ?, department = ? WHERE id = ?`,
		name, email, department, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update teacher: %w", err)
	}
	return s.GetByID(id)
}

func (s *TeacherStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM teachers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	return nil
}
