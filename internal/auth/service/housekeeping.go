package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shoptally/shoptally/internal/auth/store"
)

// Activity log retention windows. Security-relevant modules ("auth", "mfa")
// are kept longer for incident investigation.
const (
	SecurityLogRetention = 365 * 24 * time.Hour
	NormalLogRetention   = 90 * 24 * time.Hour
)

// HousekeepingService periodically purges activity log entries past their
// retention window to prevent unbounded table growth.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop() to shut it
// down gracefully.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the background worker, blocking until any in-progress
// cleanup finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	now := time.Now().UTC()

	purged, err := s.Store.ActivityLogs().PurgeBefore(ctx,
		now.Add(-SecurityLogRetention), now.Add(-NormalLogRetention))
	if err != nil {
		s.Logger.Error("failed to purge activity logs", "error", err)
		return
	}
	if purged > 0 {
		s.Logger.Info("purged expired activity logs", "deleted", purged)
	}
}
