package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweep completes approved bookings whose end time has passed. The
// singleflight group collapses the timer-driven run and any opportunistic
// read-path runs into one in-flight sweep.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	n, err, _ := s.sweepGroup.Do("sweep", func() (interface{}, error) {
		return s.repo.SweepExpiredApproved(ctx, s.now())
	})
	if err != nil {
		return 0, err
	}
	return n.(int64), nil
}

// RunSweeper owns the periodic sweep, decoupled from request traffic, so
// staleness stays bounded by the interval even with no reads.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				s.log.Error("booking sweep", zap.Error(err))
				continue
			}
			if n > 0 {
				s.log.Info("completed expired bookings", zap.Int64("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}
