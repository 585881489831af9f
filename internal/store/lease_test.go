package store

import (
	"testing"
	"time"

	"github.com/classecho/classecho/internal/database"
)

// seedMeeting opens a fresh db and returns the attendance stores plus a
// seeded teacher, student and course to hang sessions off.
func seedMeeting(t *testing.T) (*LeaseStore, *AttendanceStore, teacherCourseStudent) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// An in-memory database exists per connection; a single pool
	// connection keeps every query on the same database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	teacher, err := NewTeacherStore(db).Create("Ada Lovelace", "ada@school.test", "CS")
	if err != nil {
		t.Fatalf("create teacher: %v", err)
	}
	student, err := NewStudentStore(db).Create("Grace Hopper", "grace@school.test", "CS-001", 3)
	if err != nil {
		t.Fatalf("create student: %v", err)
	}
	course, err := NewCourseStore(db).Create("CS101", "Intro", "", 4, 3, &teacher.ID)
	if err != nil {
		t.Fatalf("create course: %v", err)
	}

	return NewLeaseStore(db), NewAttendanceStore(db), teacherCourseStudent{
		TeacherID: teacher.ID,
		StudentID: student.ID,
		CourseID:  course.ID,
	}
}

type teacherCourseStudent struct {
	TeacherID int64
	StudentID int64
	CourseID  int64
}

func TestIssueSession(t *testing.T) {
	leases, _, ids := seedMeeting(t)
	now := time.Now()

	sess, err := leases.Issue(ids.CourseID, ids.TeacherID, "A", "2026-02-10", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !sess.IsActive {
		t.Error("new session should be active")
	}
	if sess.Token == "" {
		t.Error("new session should carry a token")
	}
	wantExpiry := now.UTC().Add(SessionTTL)
	if diff := sess.ExpiresAt.Sub(wantExpiry); diff < -time.Second || diff > time.Second {
		t.Errorf("expires_at = %v, want ~%v", sess.ExpiresAt, wantExpiry)
	}
}

func TestIssueSupersedesActiveSession(t *testing.T) {
	leases, _, ids := seedMeeting(t)
	now := time.Now()

	first, err := leases.Issue(ids.CourseID, ids.TeacherID, "A", "2026-02-10", now)
	if err != nil {
		t.Fatalf("issue first: %v", err)
	}
	second, err := leases.Issue(ids.CourseID, ids.TeacherID, "A", "2026-02-10", now)
	if err != nil {
		t.Fatalf("issue second: %v", err)
	}

	got, err := leases.GetByID(first.ID)
	if err != nil {
		t.Fatalf("get first: %v", err)
	}
	if got.IsActive {
		t.Error("first session should be superseded")
	}

	active, err := leases.GetActive(ids.CourseID, "2026-02-10", "A", now)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active == nil || active.ID != second.ID {
		t.Errorf("active session = %+v, want id %d", active, second.ID)
	}
}

func TestIssueDifferentMeetingsIndependent(t *testing.T) {
	leases, _, ids := seedMeeting(t)
	now := time.Now()

	a, err := leases.Issue(ids.CourseID, ids.TeacherID, "A", "2026-02-10", now)
	if err != nil {
		t.Fatalf("issue section A: %v", err)
	}
	b, err := leases.Issue(ids.CourseID, ids.TeacherID, "B", "2026-02-10", now)
	if err != nil {
		t.Fatalf("issue section B: %v", err)
	}

	gotA, _ := leases.GetByID(a.ID)
	gotB, _ := leases.GetByID(b.ID)
	if !gotA.IsActive || !gotB.IsActive {
		t.Error("sessions for different sections should both stay active")
	}
}

func TestGetByToken(t *testing.T) {
	leases, _, ids := seedMeeting(t)
	now := time.Now()

	sess, err := leases.Issue(ids.CourseID, ids.TeacherID, "", "2026-02-10", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := leases.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil || got.ID != sess.ID {
		t.Errorf("got %+v, want session %d", got, sess.ID)
	}

	missing, err := leases.GetByToken("no-such-token")
	if err != nil {
		t.Fatalf("get missing token: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown token, got %+v", missing)
	}
}

func TestGetActiveRetiresExpired(t *testing.T) {
	leases, _, ids := seedMeeting(t)
	now := time.Now()

	sess, err := leases.Issue(ids.CourseID, ids.TeacherID, "", "2026-02-10", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Within the TTL the session is visible.
	active, err := leases.GetActive(ids.CourseID, "2026-02-10", "", now)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active == nil {
		t.Fatal("expected active session within TTL")
	}

	// Past the TTL GetActive retires the row on the way out.
	later := now.Add(SessionTTL + time.Minute)
	active, err = leases.GetActive(ids.CourseID, "2026-02-10", "", later)
	if err != nil {
		t.Fatalf("get active after expiry: %v", err)
	}
	if active != nil {
		t.Errorf("expected no active session after expiry, got %+v", active)
	}

	got, err := leases.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.IsActive {
		t.Error("expired session should have been deactivated")
	}
}

func TestDeactivateIdempotent(t *testing.T) {
	leases, _, ids := seedMeeting(t)

	sess, err := leases.Issue(ids.CourseID, ids.TeacherID, "", "2026-02-10", time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := leases.Deactivate(sess.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := leases.Deactivate(sess.ID); err != nil {
		t.Fatalf("second deactivate: %v", err)
	}

	got, _ := leases.GetByID(sess.ID)
	if got.IsActive {
		t.Error("session should stay inactive")
	}
}

func TestListExpiredActive(t *testing.T) {
	leases, _, ids := seedMeeting(t)
	now := time.Now()

	expired, err := leases.Issue(ids.CourseID, ids.TeacherID, "A", "2026-02-10", now.Add(-10*time.Minute))
	if err != nil {
		t.Fatalf("issue expired: %v", err)
	}
	fresh, err := leases.Issue(ids.CourseID, ids.TeacherID, "B", "2026-02-10", now)
	if err != nil {
		t.Fatalf("issue fresh: %v", err)
	}

	list, err := leases.ListExpiredActive(now)
	if err != nil {
		t.Fatalf("list expired: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 expired session, got %d", len(list))
	}
	if list[0].ID != expired.ID {
		t.Errorf("expired session id = %d, want %d", list[0].ID, expired.ID)
	}
	_ = fresh
}

func TestListByTeacherActiveFirst(t *testing.T) {
	leases, _, ids := seedMeeting(t)
	now := time.Now()

	old, err := leases.Issue(ids.CourseID, ids.TeacherID, "A", "2026-02-09", now)
	if err != nil {
		t.Fatalf("issue old: %v", err)
	}
	if err := leases.Deactivate(old.ID); err != nil {
		t.Fatalf("deactivate old: %v", err)
	}
	current, err := leases.Issue(ids.CourseID, ids.TeacherID, "A", "2026-02-10", now)
	if err != nil {
		t.Fatalf("issue current: %v", err)
	}

	list, err := leases.ListByTeacher(ids.TeacherID)
	if err != nil {
		t.Fatalf("list by teacher: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
	if list[0].ID != current.ID {
		t.Errorf("first session = %d, want active session %d", list[0].ID, current.ID)
	}
}
