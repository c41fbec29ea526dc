package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/simonwachira/checkout-service/internal/interfaces"
	"github.com/simonwachira/checkout-service/internal/metrics"
	"github.com/simonwachira/checkout-service/internal/telemetry"
)

// Sweeper drives pending-payment expiry. Stale pending rows become
// expired after the TTL; terminal rows are purged after a longer grace
// period so pollers usually see an explicit status before the record
// disappears.
type Sweeper struct {
	pending  interfaces.PendingPaymentRepository
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(pending interfaces.PendingPaymentRepository, ttl time.Duration) *Sweeper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Sweeper{
		pending:  pending,
		ttl:      ttl,
		interval: time.Minute,
		now:      time.Now,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	telemetry.Logger.Info("expiry sweeper started", zap.Duration("ttl", s.ttl))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) {
	now := s.now().UTC()

	expired, err := s.pending.MarkExpiredBefore(ctx, now.Add(-s.ttl))
	if err != nil {
		telemetry.Logger.Error("expiry sweep failed", zap.Error(err))
	} else if expired > 0 {
		metrics.PendingExpired.Add(float64(expired))
		telemetry.Logger.Info("pending payments expired", zap.Int64("count", expired))
	}

	purged, err := s.pending.DeleteTerminalBefore(ctx, now.Add(-6*s.ttl))
	if err != nil {
		telemetry.Logger.Error("terminal purge failed", zap.Error(err))
	} else if purged > 0 {
		telemetry.Logger.Info("terminal pending payments purged", zap.Int64("count", purged))
	}
}
