package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/devasign/devasign/internal/api/store"
)

// HousekeepingService purges expired refresh tokens on a ticker. Expired
// tokens are already rejected by Rotate; this only reclaims rows.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Now      Clock

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHousekeepingService defaults a non-positive interval to one hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &HousekeepingService{Store: st, Logger: logger, Interval: interval}
}

// Start runs the purge loop in the background. A second Start is a no-op.
func (s *HousekeepingService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.Run(ctx)
	}()
}

// Stop cancels the loop and waits for a purge in flight. Safe to call
// without Start.
func (s *HousekeepingService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run purges once immediately and then every Interval until ctx ends.
func (s *HousekeepingService) Run(ctx context.Context) {
	s.Logger.Info("housekeeping running", "interval", s.Interval)
	defer s.Logger.Info("housekeeping stopped")

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		s.Cleanup(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Cleanup runs one purge and returns the number of rows removed. Failures
// are logged and count as zero.
func (s *HousekeepingService) Cleanup(ctx context.Context) int64 {
	n, err := s.Store.RefreshTokens().DeleteExpiredRefreshTokens(ctx, s.Now.now())
	if err != nil {
		if ctx.Err() == nil {
			s.Logger.Error("purge expired refresh tokens", "error", err)
		}
		return 0
	}
	if n > 0 {
		s.Logger.Info("purged expired refresh tokens", "count", n)
	}
	return n
}
