package attendance

import (
	"log/slog"
	"testing"
	"time"

	"github.com/classecho/classecho/internal/model"
)

func TestSweepRetiresOnlyExpired(t *testing.T) {
	f := newFixture(t)

	// One session already past its TTL, one still fresh.
	expired, err := f.leases.Issue(f.courseID, f.teacherID, "A", "2026-02-10", time.Now().Add(-10*time.Minute))
	if err != nil {
		t.Fatalf("issue expired: %v", err)
	}
	fresh, err := f.leases.Issue(f.courseID, f.teacherID, "B", "2026-02-10", time.Now())
	if err != nil {
		t.Fatalf("issue fresh: %v", err)
	}

	var retired []int64
	sweeper := NewSweeper(f.leases, func(sess model.Session) {
		retired = append(retired, sess.ID)
	}, slog.Default())

	sweeper.Tick()

	if len(retired) != 1 || retired[0] != expired.ID {
		t.Errorf("retired = %v, want [%d]", retired, expired.ID)
	}

	gotExpired, err := f.leases.GetByID(expired.ID)
	if err != nil {
		t.Fatalf("get expired: %v", err)
	}
	if gotExpired.IsActive {
		t.Error("expired session should be inactive after sweep")
	}
	gotFresh, err := f.leases.GetByID(fresh.ID)
	if err != nil {
		t.Fatalf("get fresh: %v", err)
	}
	if !gotFresh.IsActive {
		t.Error("fresh session should stay active after sweep")
	}
}

func TestSweepNoExpired(t *testing.T) {
	f := newFixture(t)

	if _, err := f.leases.Issue(f.courseID, f.teacherID, "", "2026-02-10", time.Now()); err != nil {
		t.Fatalf("issue: %v", err)
	}

	called := false
	sweeper := NewSweeper(f.leases, func(model.Session) { called = true }, slog.Default())
	sweeper.Tick()

	if called {
		t.Error("sweep should not retire unexpired sessions")
	}
}

func TestSweeperStartStop(t *testing.T) {
	f := newFixture(t)

	sweeper := NewSweeper(f.leases, nil, slog.Default())
	ctx := t.Context()
	sweeper.Start(ctx)
	sweeper.Stop()

	// Double stop should not panic.
	sweeper.Stop()
}
