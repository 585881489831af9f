package store

import (
	"database/sql"
	"fmt"

	"github.com/classecho/classecho/internal/model"
)

type StudentStore struct {
	db *sql.DB
}

func NewStudentStore(db *sql.DB) *StudentStore {
	return &StudentStore{db: db}
}

func scanStudent(scanner interface{ Scan(...any) error }) (*model.Student, error) {
	var st model.Student
	err := scanner.Scan(&st.ID, &st.Name, &st.Email, &st.RollNumber, &st.Semester, &st.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

const studentCols = `id, name, email, roll_number, semester, created_at`

func (s *StudentStore) Create(name, email, rollNumber string, semester int) (*model.Student, error) {
	result, err := s.db.Exec(
		`INSERT INTO students (name, email, roll_number, semester) VALUES (?, ?, ?, ?)`,
		name, email, rollNumber, semester,
	)
	if err != nil {
		return nil, fmt.Errorf("insert student: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *StudentStore) GetByID(id int64) (*model.Student, error) {
	row := s.db.QueryRow(`SELECT `+studentCols+` FROM students WHERE id = ?`, id)
	st, err := scanStudent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return st, nil
}

// Exists reports whether a student row with the given id exists.
func (s *StudentStore) Exists(id int64) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM students WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("student exists: %w", err)
	}
	return n > 0, nil
}

func (s *StudentStore) List() ([]model.Student, error) {
	rows, err := s.db.Query(`SELECT ` + studentCols + ` FROM students ORDER BY roll_number`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, *st)
	}
	return students, rows.Err()
}

func (s *StudentStore) Update(id int64, name, email, rollNumber string, semester int) (*model.Student, error) {
	_, err := s.db.Exec(
		`UPDATE students SET name = ?, email = ?, roll_number = ?, semester = ? WHERE id = ?`,
		name, email, rollNumber, semester, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}
	return s.GetByID(id)
}

func (s *StudentStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM students WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}
