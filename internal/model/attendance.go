package model

import "time"

// Attendance statuses.
const (
	StatusPresent = "PRESENT"
	StatusAbsent  = "ABSENT"
	StatusPending = "PENDING"
)

// How an attendance entry was produced.
const (
	MarkedManual = "MANUAL"
	MarkedQR     = "QR"
	MarkedAuto   = "AUTO"
)

// Session is a time-bounded QR attendance session for one class meeting
// (course + date + section). At most one session per meeting is active
// at a time; issuing a new one supersedes the old.
type Session struct {
	ID        int64     `json:"id"`
	CourseID  int64     `json:"course_id"`
	TeacherID int64     `json:"teacher_id"`
	Token     string    `json:"token"`
	Section   string    `json:"section"`
	Date      string    `json:"date"` // YYYY-MM-DD
	ExpiresAt time.Time `json:"expires_at"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session's expiry has passed.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Attendance is one ledger entry: a single student's presence record for
// one class meeting. The (student, course, date, section) key is unique.
type Attendance struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	CourseID  int64     `json:"course_id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Section   string    `json:"section"`
	Status    string    `json:"status"`
	MarkedBy  string    `json:"marked_by"`
	Token     *string   `json:"token,omitempty"`
	MarkedAt  time.Time `json:"marked_at"`
}
