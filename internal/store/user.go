package store

import (
	"database/sql"
	"fmt"

	"github.com/classecho/classecho/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var teacherID, studentID sql.NullInt64
	err := scanner.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &teacherID, &studentID, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if teacherID.Valid {
		u.TeacherID = &teacherID.Int64
	}
	if studentID.Valid {
		u.StudentID = &studentID.Int64
	}
	return &u, nil
}

const userCols = `id, email, password_hash, role, teacher_id, student_id, created_at`

func (s *UserStore) Create(email, passwordHash, role string, teacherID, studentID *int64) (*model.User, error) {
	var tID, stID sql.NullInt64
	if teacherID != nil {
		tID = sql.NullInt64{Int64: *teacherID, Valid: true}
	}
	if studentID != nil {
		stID = sql.NullInt64{Int64: *studentID, Valid: true}
	}
	result, err := s.db.Exec(
		`INSERT INTO users (email, password_hash, role, teacher_id, student_id) VALUES (?, ?, ?, ?, ?)`,
		email, passwordHash, role, tID, stID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}
