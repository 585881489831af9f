package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/classecho/classecho/internal/model"
)

// SessionTTL is how long a QR attendance session stays redeemable.
const SessionTTL = 5 * time.Minute

// LeaseStore manages attendance_sessions rows: time-bounded QR sessions
// with at most one active row per (course, date, section).
type LeaseStore struct {
	db *sql.DB
}

func NewLeaseStore(db *sql.DB) *LeaseStore {
	return &LeaseStore{db: db}
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	var active int
	err := scanner.Scan(
		&s.ID, &s.CourseID, &s.TeacherID, &s.Token, &s.Section,
		&s.Date, &s.ExpiresAt, &active, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.IsActive = active != 0
	return &s, nil
}

const sessionCols = `id, course_id, teacher_id, token, section, date, expires_at, is_active, created_at`

// Issue creates a new active session for the class meeting, superseding
// any existing active session for the same (course, date, section).
// Deactivate-then-insert runs in one transaction so concurrent issues
// cannot leave two active rows; the partial unique index on active
// sessions backs the same invariant at the schema level.
func (s *LeaseStore) Issue(courseID, teacherID int64, section, date string, now time.Time) (*model.Session, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE attendance_sessions SET is_active = 0
		 WHERE course_id = ? AND date = ? AND section = ? AND is_active = 1`,
		courseID, date, section,
	)
	if err != nil {
		return nil, fmt.Errorf("supersede active sessions: %w", err)
	}

	token := uuid.NewString()
	expiresAt := now.UTC().Add(SessionTTL)

	result, err := tx.Exec(
		`INSERT INTO attendance_sessions (course_id, teacher_id, token, section, date, expires_at, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, 1)`,
		courseID, teacherID, token, section, date, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM attendance_sessions WHERE id = ?`, id)
	return scanSession(row)
}

// GetByID returns the session with the given id, or nil if not found.
func (s *LeaseStore) GetByID(id int64) (*model.Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM attendance_sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by id: %w", err)
	}
	return sess, nil
}

// GetByToken returns the session carrying the token, active or not,
// or nil if the token is unknown.
func (s *LeaseStore) GetByToken(token string) (*model.Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM attendance_sessions WHERE token = ?`, token)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	return sess, nil
}

// GetActive returns the active, unexpired session for the class meeting,
// or nil if there is none. An active row that is past its expiry is
// flipped inactive on the way out, so callers never observe a stale
// active session even if the sweeper is behind.
func (s *LeaseStore) GetActive(courseID int64, date, section string, now time.Time) (*model.Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM attendance_sessions
		 WHERE course_id = ? AND date = ? AND section = ? AND is_active = 1`,
		courseID, date, section,
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active session: %w", err)
	}

	if sess.Expired(now) {
		if err := s.Deactivate(sess.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return sess, nil
}

// Deactivate retires a session. It is the single retirement primitive:
// explicit close, on-demand expiry and the background sweep all go
// through it. Idempotent; deactivating an inactive session is a no-op.
func (s *LeaseStore) Deactivate(id int64) error {
	_, err := s.db.Exec(`UPDATE attendance_sessions SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	return nil
}

// ListExpiredActive returns sessions that are still flagged active but
// past their expiry as of now.
func (s *LeaseStore) ListExpiredActive(now time.Time) ([]model.Session, error) {
	rows, err := s.db.Query(
		`SELECT `+sessionCols+` FROM attendance_sessions
		 WHERE is_active = 1 AND expires_at <= ? ORDER BY id`,
		now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list expired sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// ListByTeacher returns a teacher's sessions, most recent first.
func (s *LeaseStore) ListByTeacher(teacherID int64) ([]model.Session, error) {
	rows, err := s.db.Query(
		`SELECT `+sessionCols+` FROM attendance_sessions
		 WHERE teacher_id = ? ORDER BY is_active DESC, created_at DESC`,
		teacherID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions by teacher: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}
