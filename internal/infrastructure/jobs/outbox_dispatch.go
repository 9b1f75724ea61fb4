package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gradvillage.backend/pkg/logger"
)

// OutboxDispatcher delivers due outbox messages.
type OutboxDispatcher interface {
	DispatchDue(ctx context.Context, limit int) (int, error)
}

// OutboxDispatchJob periodically retries pending side effects
// (emails, receipts) whose next attempt is due.
type OutboxDispatchJob struct {
	dispatcher OutboxDispatcher
	interval   time.Duration
	batchSize  int
	stop       chan struct{}
}

func NewOutboxDispatchJob(dispatcher OutboxDispatcher, interval time.Duration, batchSize int) *OutboxDispatchJob {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &OutboxDispatchJob{
		dispatcher: dispatcher,
		interval:   interval,
		batchSize:  batchSize,
		stop:       make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called.
func (j *OutboxDispatchJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	logger.Info(ctx, "Outbox dispatch job started", zap.Duration("interval", j.interval))

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Outbox dispatch job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Outbox dispatch job stopped")
			return
		case <-ticker.C:
			j.processDue(ctx)
		}
	}
}

// Stop stops the job
func (j *OutboxDispatchJob) Stop() {
	close(j.stop)
}

func (j *OutboxDispatchJob) processDue(ctx context.Context) int {
	sent, err := j.dispatcher.DispatchDue(ctx, j.batchSize)
	if err != nil {
		logger.Error(ctx, "Outbox dispatch failed", zap.Error(err))
		return 0
	}
	if sent > 0 {
		logger.Info(ctx, "Outbox messages delivered", zap.Int("count", sent))
	}
	return sent
}
