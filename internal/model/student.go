package model

import "time"

type Student struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	RollNumber string    `json:"roll_number"`
	Semester   int       `json:"semester"`
	CreatedAt  time.Time `json:"created_at"`
}
