package attendance

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/classecho/classecho/internal/model"
	"github.com/classecho/classecho/internal/store"
)

// SweepInterval is how often the sweeper retires expired sessions.
const SweepInterval = 60 * time.Second

// Sweeper periodically retires sessions whose expiry has passed. It
// shares the store's Deactivate primitive with the on-demand expiry
// checks, so a session is safely retired by whichever path sees it
// first, and never surfaces errors to request handlers.
type Sweeper struct {
	mu       sync.RWMutex
	leases   *store.LeaseStore
	interval time.Duration
	now      func() time.Time
	onExpire func(model.Session)
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSweeper creates a sweeper. onExpire, if non-nil, is called for each
// session the sweeper retires (used to feed the live event hub).
func NewSweeper(leases *store.LeaseStore, onExpire func(model.Session), logger *slog.Logger) *Sweeper {
	return &Sweeper{
		leases:   leases,
		interval: SweepInterval,
		now:      time.Now,
		onExpire: onExpire,
		logger:   logger,
	}
}

// Start begins the sweep loop.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick()
			}
		}
	}()
}

// Stop gracefully stops the sweeper.
func (s *Sweeper) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Tick retires every active session past its expiry. A failure on one
// session is logged and skipped; the rest of the batch still runs, and
// anything missed is picked up on the next tick.
func (s *Sweeper) Tick() {
	expired, err := s.leases.ListExpiredActive(s.now())
	if err != nil {
		s.logger.Error("sweep: list expired sessions", "error", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	retired := 0
	for _, sess := range expired {
		if err := s.leases.Deactivate(sess.ID); err != nil {
			s.logger.Error("sweep: deactivate session", "session_id", sess.ID, "error", err)
			continue
		}
		retired++
		if s.onExpire != nil {
			s.onExpire(sess)
		}
	}
	s.logger.Info("sweep: retired expired sessions", "count", retired)
}
