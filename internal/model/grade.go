package model

import "time"

type Grade struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	CourseID  int64     `json:"course_id"`
	Title     string    `json:"title"`
	Score     float64   `json:"score"`
	MaxScore  float64   `json:"max_score"`
	Weight    float64   `json:"weight"`
	GradedAt  time.Time `json:"graded_at"`
}
