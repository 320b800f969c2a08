package scheduler

import (
	"context"
	"time"

	"loan_portal_backend/platform/config"
	"loan_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// DigestDispatcher enqueues a decision digest task once per configured
// interval. It shares the asynq client with the rest of the scheduler.
type DigestDispatcher struct {
	client   *Client
	interval time.Duration
	log      *logger.Logger
}

func NewDigestDispatcher(client *Client, cfg config.SchedulerConfig, log *logger.Logger) *DigestDispatcher {
	interval := cfg.GetDigestInterval()
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &DigestDispatcher{
		client:   client,
		interval: interval,
		log:      log,
	}
}

func (d *DigestDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil || d.client.client == nil {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		windowHours := int(d.interval / time.Hour)
		if windowHours < 1 {
			windowHours = 1
		}

		task, err := NewDecisionDigestTask(DecisionDigestPayload{WindowHours: windowHours})
		if err != nil {
			d.log.Warn("digest task build failed", "error", err)
			continue
		}

		if _, err := d.client.client.EnqueueContext(ctx, task, asynq.Queue(d.client.queue)); err != nil {
			d.log.Warn("digest task enqueue failed", "error", err)
			continue
		}
		d.log.Info("decision digest enqueued", "windowHours", windowHours)
	}
}
