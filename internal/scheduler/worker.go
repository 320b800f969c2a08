package scheduler

import (
	"context"
	"fmt"
	"time"

	"loan_portal_backend/internal/applications/repository"
	"loan_portal_backend/internal/email"
	"loan_portal_backend/internal/events"
	"loan_portal_backend/platform/config"
	"loan_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Worker struct {
	server          *asynq.Server
	mux             *asynq.ServeMux
	repo            repository.ApplicationsRepository
	sender          email.Sender
	bus             events.Bus
	opsEmail        string
	reviewThreshold float64
	log             *logger.Logger
}

type WorkerConfig interface {
	config.SchedulerConfig
	config.NotificationConfig
}

func NewWorker(cfg WorkerConfig, pool *pgxpool.Pool, sender email.Sender, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:          server,
		mux:             mux,
		repo:            repository.New(pool),
		sender:          sender,
		bus:             bus,
		opsEmail:        cfg.GetOpsNotifyEmail(),
		reviewThreshold: cfg.GetReviewThreshold(),
		log:             log,
	}

	mux.HandleFunc(TaskDecisionDigest, w.handleDecisionDigest)

	return w, nil
}

func (w *Worker) handleDecisionDigest(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDecisionDigestPayload(task)
	if err != nil {
		return err
	}
	if payload.WindowHours < 1 {
		payload.WindowHours = 24
	}

	now := time.Now().UTC()
	since := now.Add(-time.Duration(payload.WindowHours) * time.Hour)

	stats, err := w.repo.Stats(ctx, since, w.reviewThreshold)
	if err != nil {
		return fmt.Errorf("decision digest aggregation: %w", err)
	}

	if w.bus != nil {
		w.bus.Publish(ctx, events.DecisionDigestDue{
			BaseEvent:   events.NewBaseEvent(),
			WindowHours: payload.WindowHours,
		})
	}

	if w.opsEmail == "" {
		w.log.Debug("decision digest computed, no ops email configured", "total", stats.Total)
		return nil
	}

	err = w.sender.SendDecisionDigestEmail(ctx, w.opsEmail, email.DigestData{
		WindowStart:   since,
		WindowEnd:     now,
		Total:         stats.Total,
		Approved:      stats.Approved,
		Rejected:      stats.Rejected,
		AvgConfidence: stats.AvgConfidence,
		FlaggedCount:  stats.FlaggedCount,
	})
	if err != nil {
		return fmt.Errorf("decision digest email: %w", err)
	}

	w.log.Info("decision digest sent",
		"total", stats.Total, "approved", stats.Approved, "rejected", stats.Rejected)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
