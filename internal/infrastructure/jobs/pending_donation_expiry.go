package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gradvillage.backend/pkg/logger"
)

// PendingDonationExpirer fails donations stuck in pending.
type PendingDonationExpirer interface {
	ExpireStalePending(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// PendingDonationExpiryJob marks abandoned pending donations as failed,
// e.g. when a donor never completes 3-D Secure and no webhook arrives.
type PendingDonationExpiryJob struct {
	expirer   PendingDonationExpirer
	interval  time.Duration
	olderThan time.Duration
	limit     int
	stop      chan struct{}
}

func NewPendingDonationExpiryJob(expirer PendingDonationExpirer, interval, olderThan time.Duration) *PendingDonationExpiryJob {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if olderThan <= 0 {
		olderThan = 24 * time.Hour
	}
	return &PendingDonationExpiryJob{
		expirer:   expirer,
		interval:  interval,
		olderThan: olderThan,
		limit:     100,
		stop:      make(chan struct{}),
	}
}

// Start begins the expiry job
func (j *PendingDonationExpiryJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	logger.Info(ctx, "Pending donation expiry job started",
		zap.Duration("interval", j.interval),
		zap.Duration("older_than", j.olderThan),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Pending donation expiry job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Pending donation expiry job stopped")
			return
		case <-ticker.C:
			j.processExpired(ctx)
		}
	}
}

// Stop stops the job
func (j *PendingDonationExpiryJob) Stop() {
	close(j.stop)
}

func (j *PendingDonationExpiryJob) processExpired(ctx context.Context) int {
	expired, err := j.expirer.ExpireStalePending(ctx, j.olderThan, j.limit)
	if err != nil {
		logger.Error(ctx, "Failed to expire pending donations", zap.Error(err))
		return 0
	}
	if expired > 0 {
		logger.Info(ctx, "Expired pending donations", zap.Int("count", expired))
	}
	return expired
}
