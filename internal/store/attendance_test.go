package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/classecho/classecho/internal/model"
)

func TestCreateFromToken(t *testing.T) {
	leases, ledger, ids := seedMeeting(t)
	now := time.Now()

	sess, err := leases.Issue(ids.CourseID, ids.TeacherID, "A", "2026-02-10", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	entry, err := ledger.CreateFromToken(ids.StudentID, ids.CourseID, "2026-02-10", "A", sess.Token, now)
	if err != nil {
		t.Fatalf("create from token: %v", err)
	}
	if entry.Status != model.StatusPresent {
		t.Errorf("status = %q, want %q", entry.Status, model.StatusPresent)
	}
	if entry.MarkedBy != model.MarkedQR {
		t.Errorf("marked_by = %q, want %q", entry.MarkedBy, model.MarkedQR)
	}
	if entry.Token == nil || *entry.Token != sess.Token {
		t.Error("entry should record the redeemed token")
	}
}

func TestCreateFromTokenDuplicate(t *testing.T) {
	_, ledger, ids := seedMeeting(t)
	now := time.Now()

	if _, err := ledger.CreateFromToken(ids.StudentID, ids.CourseID, "2026-02-10", "", "tok-1", now); err != nil {
		t.Fatalf("first redemption: %v", err)
	}

	_, err := ledger.CreateFromToken(ids.StudentID, ids.CourseID, "2026-02-10", "", "tok-1", now)
	if !errors.Is(err, ErrDuplicateEntry) {
		t.Errorf("second redemption error = %v, want ErrDuplicateEntry", err)
	}
}

func TestConcurrentRedemptionSingleEntry(t *testing.T) {
	_, ledger, ids := seedMeeting(t)
	now := time.Now()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = ledger.CreateFromToken(ids.StudentID, ids.CourseID, "2026-02-10", "", "tok-race", now)
		}()
	}
	wg.Wait()

	var dups int
	for _, err := range errs {
		switch {
		case err == nil:
		case errors.Is(err, ErrDuplicateEntry):
			dups++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if dups != 1 {
		t.Errorf("got %d duplicate errors, want exactly 1", dups)
	}

	entries, err := ledger.ListByStudent(ids.StudentID)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one entry, got %d", len(entries))
	}
}

func TestUpsertOverwritesInPlace(t *testing.T) {
	_, ledger, ids := seedMeeting(t)
	now := time.Now()

	// QR entry first
	if _, err := ledger.CreateFromToken(ids.StudentID, ids.CourseID, "2026-02-10", "", "tok-1", now); err != nil {
		t.Fatalf("create from token: %v", err)
	}

	// Manual overwrite flips the status and clears the token
	entry, err := ledger.Upsert(ids.StudentID, ids.CourseID, "2026-02-10", "", model.StatusAbsent, now)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if entry.Status != model.StatusAbsent {
		t.Errorf("status = %q, want %q", entry.Status, model.StatusAbsent)
	}
	if entry.MarkedBy != model.MarkedManual {
		t.Errorf("marked_by = %q, want %q", entry.MarkedBy, model.MarkedManual)
	}
	if entry.Token != nil {
		t.Error("manual overwrite should clear the token")
	}

	entries, err := ledger.ListByStudent(ids.StudentID)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("upsert should not create a second row, got %d", len(entries))
	}
}

func TestCounts(t *testing.T) {
	_, ledger, ids := seedMeeting(t)
	now := time.Now()

	days := []struct {
		date   string
		status string
	}{
		{"2026-02-09", model.StatusPresent},
		{"2026-02-10", model.StatusAbsent},
		{"2026-02-11", model.StatusPresent},
	}
	for _, d := range days {
		if _, err := ledger.Upsert(ids.StudentID, ids.CourseID, d.date, "", d.status, now); err != nil {
			t.Fatalf("upsert %s: %v", d.date, err)
		}
	}

	total, present, err := ledger.Counts(ids.StudentID, nil)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if total != 3 || present != 2 {
		t.Errorf("counts = (%d, %d), want (3, 2)", total, present)
	}

	total, present, err = ledger.Counts(ids.StudentID, &ids.CourseID)
	if err != nil {
		t.Fatalf("counts with course: %v", err)
	}
	if total != 3 || present != 2 {
		t.Errorf("course counts = (%d, %d), want (3, 2)", total, present)
	}
}

func TestCountsEmpty(t *testing.T) {
	_, ledger, ids := seedMeeting(t)

	total, present, err := ledger.Counts(ids.StudentID, nil)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if total != 0 || present != 0 {
		t.Errorf("counts = (%d, %d), want (0, 0)", total, present)
	}
}

func TestListByStudentNewestFirst(t *testing.T) {
	_, ledger, ids := seedMeeting(t)
	now := time.Now()

	for _, date := range []string{"2026-02-09", "2026-02-11", "2026-02-10"} {
		if _, err := ledger.Upsert(ids.StudentID, ids.CourseID, date, "", model.StatusPresent, now); err != nil {
			t.Fatalf("upsert %s: %v", date, err)
		}
	}

	entries, err := ledger.ListByStudent(ids.StudentID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"2026-02-11", "2026-02-10", "2026-02-09"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, date := range want {
		if entries[i].Date != date {
			t.Errorf("entries[%d].Date = %q, want %q", i, entries[i].Date, date)
		}
	}
}

func TestCountsByCourseDate(t *testing.T) {
	_, ledger, ids := seedMeeting(t)
	now := time.Now()

	if _, err := ledger.Upsert(ids.StudentID, ids.CourseID, "2026-02-10", "A", model.StatusPresent, now); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	total, present, err := ledger.CountsByCourseDate(ids.CourseID, "2026-02-10", "A")
	if err != nil {
		t.Fatalf("counts by course date: %v", err)
	}
	if total != 1 || present != 1 {
		t.Errorf("counts = (%d, %d), want (1, 1)", total, present)
	}

	// Other sections do not leak in
	total, _, err = ledger.CountsByCourseDate(ids.CourseID, "2026-02-10", "B")
	if err != nil {
		t.Fatalf("counts other section: %v", err)
	}
	if total != 0 {
		t.Errorf("other section total = %d, want 0", total)
	}
}
