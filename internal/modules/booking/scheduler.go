package booking

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"wellness/internal/pkg/lock"
)

const expiryLockName = "wellness:booking-expiry"

// Scheduler runs CancelExpired on a fixed interval.
type Scheduler struct {
	service  *Service
	locker   lock.Locker
	interval time.Duration
	logger   *zap.Logger
	stopOnce sync.Once
	stopChan chan struct{}
}

func NewScheduler(service *Service, locker lock.Locker, interval time.Duration, logger *zap.Logger) *Scheduler {
	if locker == nil {
		locker = lock.Local{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		service:  service,
		locker:   locker,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("starting booking expiry scheduler", zap.Duration("interval", s.interval))
	go s.loop(ctx)
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("stopping booking expiry scheduler")
		close(s.stopChan)
	})
}

func (s *Scheduler) loop(ctx context.Context) {
	s.RunOnce(ctx, time.Time{})

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx, time.Time{})
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce cancels expired bookings unless another replica holds the lock.
// A zero now means the current time.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) (*ExpireResult, error) {
	release, err := s.locker.Acquire(ctx, expiryLockName, s.lockTTL())
	if err != nil {
		s.logger.Info("expiry run skipped, lock busy", zap.Error(err))
		return nil, err
	}
	defer release()

	res, err := s.service.CancelExpired(ctx, now)
	if err != nil {
		s.logger.Error("expiry run failed", zap.Error(err))
		return nil, err
	}
	return res, nil
}

func (s *Scheduler) lockTTL() time.Duration {
	if s.interval > 0 && s.interval < 5*time.Minute {
		return s.interval
	}
	return 5 * time.Minute
}
