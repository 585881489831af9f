package attendance

import (
	"errors"
	"testing"
	"time"

	"github.com/classecho/classecho/internal/database"
	"github.com/classecho/classecho/internal/model"
	"github.com/classecho/classecho/internal/store"
)

type fixture struct {
	svc       *Service
	leases    *store.LeaseStore
	ledger    *store.AttendanceStore
	teacherID int64
	studentID int64
	courseID  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	teachers := store.NewTeacherStore(db)
	students := store.NewStudentStore(db)
	courses := store.NewCourseStore(db)
	leases := store.NewLeaseStore(db)
	ledger := store.NewAttendanceStore(db)

	teacher, err := teachers.Create("Ada Lovelace", "ada@school.test", "CS")
	if err != nil {
		t.Fatalf("create teacher: %v", err)
	}
	student, err := students.Create("Grace Hopper", "grace@school.test", "CS-001", 3)
	if err != nil {
		t.Fatalf("create student: %v", err)
	}
	course, err := courses.Create("CS101", "Intro to Computing", "", 4, 3, &teacher.ID)
	if err != nil {
		t.Fatalf("create course: %v", err)
	}

	return &fixture{
		svc:       NewService(leases, ledger, courses, teachers, students),
		leases:    leases,
		ledger:    ledger,
		teacherID: teacher.ID,
		studentID: student.ID,
		courseID:  course.ID,
	}
}

func (f *fixture) addCourse(t *testing.T, code, name string) int64 {
	t.Helper()
	db := f.svc.courses.(*store.CourseStore)
	course, err := db.Create(code, name, "", 3, 3, &f.teacherID)
	if err != nil {
		t.Fatalf("create course %s: %v", code, err)
	}
	return course.ID
}

func TestIssueUnknownCourse(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Issue(999, f.teacherID, "", "2026-02-10")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestIssueUnknownTeacher(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Issue(f.courseID, 999, "", "2026-02-10")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestIssueSupersedes(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Issue(f.courseID, f.teacherID, "", "2026-02-10")
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	second, err := f.svc.Issue(f.courseID, f.teacherID, "", "2026-02-10")
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}

	// The first token no longer validates; the second does.
	ok, err := f.svc.Validate(first.Token)
	if err != nil {
		t.Fatalf("validate first: %v", err)
	}
	if ok {
		t.Error("superseded token should not validate")
	}
	ok, err = f.svc.Validate(second.Token)
	if err != nil {
		t.Fatalf("validate second: %v", err)
	}
	if !ok {
		t.Error("current token should validate")
	}
}

func TestValidateUnknownToken(t *testing.T) {
	f := newFixture(t)

	ok, err := f.svc.Validate("no-such-token")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ok {
		t.Error("unknown token should not validate")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	f := newFixture(t)

	sess, err := f.svc.Issue(f.courseID, f.teacherID, "", "2026-02-10")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Move the clock one minute past the TTL.
	f.svc.SetClock(func() time.Time {
		return time.Now().Add(store.SessionTTL + time.Minute)
	})

	ok, err := f.svc.Validate(sess.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ok {
		t.Error("expired token should not validate")
	}

	// Validation past expiry retires the session.
	got, err := f.leases.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.IsActive {
		t.Error("expired session should have been retired")
	}
}

func TestRedeem(t *testing.T) {
	f := newFixture(t)

	sess, err := f.svc.Issue(f.courseID, f.teacherID, "A", "2026-02-10")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	entry, err := f.svc.Redeem(f.studentID, sess.Token)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if entry.Status != model.StatusPresent {
		t.Errorf("status = %q, want %q", entry.Status, model.StatusPresent)
	}
	if entry.MarkedBy != model.MarkedQR {
		t.Errorf("marked_by = %q, want %q", entry.MarkedBy, model.MarkedQR)
	}
	if entry.CourseID != f.courseID || entry.Date != "2026-02-10" || entry.Section != "A" {
		t.Errorf("entry keyed to %+v, want course/date/section from the session", entry)
	}
}

func TestRedeemTwiceDuplicate(t *testing.T) {
	f := newFixture(t)

	sess, err := f.svc.Issue(f.courseID, f.teacherID, "", "2026-02-10")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := f.svc.Redeem(f.studentID, sess.Token); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	_, err = f.svc.Redeem(f.studentID, sess.Token)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("second redeem error = %v, want ErrDuplicate", err)
	}
}

func TestRedeemExpiredToken(t *testing.T) {
	f := newFixture(t)

	sess, err := f.svc.Issue(f.courseID, f.teacherID, "", "2026-02-10")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	f.svc.SetClock(func() time.Time {
		return time.Now().Add(store.SessionTTL + time.Minute)
	})

	_, err = f.svc.Redeem(f.studentID, sess.Token)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("redeem error = %v, want ErrExpired", err)
	}
}

func TestRedeemClosedSession(t *testing.T) {
	f := newFixture(t)

	sess, err := f.svc.Issue(f.courseID, f.teacherID, "", "2026-02-10")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := f.svc.Close(sess.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err = f.svc.Redeem(f.studentID, sess.Token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("redeem error = %v, want ErrInvalidToken", err)
	}
}

func TestRedeemUnknownStudent(t *testing.T) {
	f := newFixture(t)

	sess, err := f.svc.Issue(f.courseID, f.teacherID, "", "2026-02-10")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = f.svc.Redeem(999, sess.Token)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("redeem error = %v, want ErrNotFound", err)
	}
}

func TestManualMarkOverwritesRedemption(t *testing.T) {
	f := newFixture(t)

	sess, err := f.svc.Issue(f.courseID, f.teacherID, "", "2026-02-10")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := f.svc.Redeem(f.studentID, sess.Token); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	entry, err := f.svc.ManualMark(f.studentID, f.courseID, "2026-02-10", "", model.StatusAbsent)
	if err != nil {
		t.Fatalf("manual mark: %v", err)
	}
	if entry.Status != model.StatusAbsent {
		t.Errorf("status = %q, want %q", entry.Status, model.StatusAbsent)
	}
	if entry.MarkedBy != model.MarkedManual {
		t.Errorf("marked_by = %q, want %q", entry.MarkedBy, model.MarkedManual)
	}

	entries, err := f.svc.StudentEntries(f.studentID)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("manual mark should overwrite in place, got %d rows", len(entries))
	}
}

func TestCloseUnknownSession(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Close(999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("close error = %v, want ErrNotFound", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	f := newFixture(t)

	sess, err := f.svc.Issue(f.courseID, f.teacherID, "", "2026-02-10")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := f.svc.Close(sess.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := f.svc.Close(sess.ID); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestStudentStatsZeroEntries(t *testing.T) {
	f := newFixture(t)

	stats, err := f.svc.StudentStats(f.studentID, nil)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalClasses != 0 || stats.PresentClasses != 0 || stats.Percentage != 0 {
		t.Errorf("stats = %+v, want all zero", stats)
	}
}

func TestStudentStatsPercentage(t *testing.T) {
	f := newFixture(t)

	marks := []struct {
		date   string
		status string
	}{
		{"2026-02-09", model.StatusPresent},
		{"2026-02-10", model.StatusPresent},
		{"2026-02-11", model.StatusAbsent},
		{"2026-02-12", model.StatusPresent},
	}
	for _, m := range marks {
		if _, err := f.svc.ManualMark(f.studentID, f.courseID, m.date, "", m.status); err != nil {
			t.Fatalf("mark %s: %v", m.date, err)
		}
	}

	stats, err := f.svc.StudentStats(f.studentID, &f.courseID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalClasses != 4 || stats.PresentClasses != 3 {
		t.Errorf("counts = (%d, %d), want (4, 3)", stats.TotalClasses, stats.PresentClasses)
	}
	if stats.Percentage != 75 {
		t.Errorf("percentage = %v, want 75", stats.Percentage)
	}
}

func TestMeetingStats(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.ManualMark(f.studentID, f.courseID, "2026-02-10", "A", model.StatusPresent); err != nil {
		t.Fatalf("mark: %v", err)
	}

	stats, err := f.svc.MeetingStats(f.courseID, "2026-02-10", "A")
	if err != nil {
		t.Fatalf("meeting stats: %v", err)
	}
	if stats.TotalClasses != 1 || stats.PresentClasses != 1 || stats.Percentage != 100 {
		t.Errorf("stats = %+v, want 1/1/100", stats)
	}
}

func TestCourseWiseStats(t *testing.T) {
	f := newFixture(t)
	secondCourse := f.addCourse(t, "CS202", "Data Structures")

	// Twelve meetings in the first course to exercise the recent cap.
	for day := 1; day <= 12; day++ {
		date := time.Date(2026, 2, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		status := model.StatusPresent
		if day%4 == 0 {
			status = model.StatusAbsent
		}
		if _, err := f.svc.ManualMark(f.studentID, f.courseID, date, "", status); err != nil {
			t.Fatalf("mark %s: %v", date, err)
		}
	}
	if _, err := f.svc.ManualMark(f.studentID, secondCourse, "2026-02-10", "", model.StatusPresent); err != nil {
		t.Fatalf("mark second course: %v", err)
	}

	breakdown, err := f.svc.CourseWiseStats(f.studentID)
	if err != nil {
		t.Fatalf("course-wise stats: %v", err)
	}
	if len(breakdown) != 2 {
		t.Fatalf("got %d courses, want 2", len(breakdown))
	}

	var first *CourseStats
	for i := range breakdown {
		if breakdown[i].CourseID == f.courseID {
			first = &breakdown[i]
		}
	}
	if first == nil {
		t.Fatal("first course missing from breakdown")
	}
	if first.CourseCode != "CS101" {
		t.Errorf("course code = %q, want CS101", first.CourseCode)
	}
	if first.TotalClasses != 12 || first.PresentClasses != 9 {
		t.Errorf("counts = (%d, %d), want (12, 9)", first.TotalClasses, first.PresentClasses)
	}
	if len(first.Recent) != 10 {
		t.Fatalf("recent entries = %d, want 10", len(first.Recent))
	}
	// Newest first: Feb 12 down to Feb 3.
	if first.Recent[0].Date != "2026-02-12" {
		t.Errorf("recent[0].Date = %q, want 2026-02-12", first.Recent[0].Date)
	}
	if first.Recent[9].Date != "2026-02-03" {
		t.Errorf("recent[9].Date = %q, want 2026-02-03", first.Recent[9].Date)
	}
}
