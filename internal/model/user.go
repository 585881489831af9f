package model

import "time"

// User roles. Teachers and students are linked to their registry rows
// through TeacherID/StudentID; admins have neither.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	TeacherID    *int64    `json:"teacher_id,omitempty"`
	StudentID    *int64    `json:"student_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
