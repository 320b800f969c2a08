package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"loan_portal_backend/internal/applications/repository"
	"loan_portal_backend/internal/email"
	"loan_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type stubRepo struct {
	stats *repository.DecisionStats
	since time.Time
	fail  bool
}

func (r *stubRepo) Create(ctx context.Context, app *repository.Application) error { return nil }

func (r *stubRepo) GetByID(ctx context.Context, id uuid.UUID) (*repository.Application, error) {
	return nil, errors.New("not implemented")
}

func (r *stubRepo) List(ctx context.Context, params repository.ListParams) (*repository.ListResult, error) {
	return nil, errors.New("not implemented")
}

func (r *stubRepo) Stats(ctx context.Context, since time.Time, reviewThreshold float64) (*repository.DecisionStats, error) {
	if r.fail {
		return nil, errors.New("aggregation failed")
	}
	r.since = since
	return r.stats, nil
}

type stubSender struct {
	digests []email.DigestData
	to      string
}

func (s *stubSender) SendReviewFlagEmail(ctx context.Context, toEmail string, data email.ReviewFlagData) error {
	return nil
}

func (s *stubSender) SendDecisionDigestEmail(ctx context.Context, toEmail string, data email.DigestData) error {
	s.to = toEmail
	s.digests = append(s.digests, data)
	return nil
}

func TestHandleDecisionDigest(t *testing.T) {
	repo := &stubRepo{stats: &repository.DecisionStats{
		Total:         40,
		Approved:      28,
		Rejected:      12,
		AvgConfidence: 0.82,
		FlaggedCount:  3,
	}}
	sender := &stubSender{}
	w := &Worker{
		repo:            repo,
		sender:          sender,
		opsEmail:        "ops@example.com",
		reviewThreshold: 0.65,
		log:             logger.New("test"),
	}

	task, err := NewDecisionDigestTask(DecisionDigestPayload{WindowHours: 24})
	if err != nil {
		t.Fatalf("NewDecisionDigestTask: %v", err)
	}
	if err := w.handleDecisionDigest(context.Background(), task); err != nil {
		t.Fatalf("handleDecisionDigest: %v", err)
	}

	if len(sender.digests) != 1 {
		t.Fatalf("sent %d digests, want 1", len(sender.digests))
	}
	if sender.to != "ops@example.com" {
		t.Errorf("sent to %q", sender.to)
	}
	got := sender.digests[0]
	if got.Total != 40 || got.Approved != 28 || got.Rejected != 12 || got.FlaggedCount != 3 {
		t.Errorf("digest data diverged: %+v", got)
	}

	wantSince := time.Now().UTC().Add(-24 * time.Hour)
	if repo.since.Before(wantSince.Add(-time.Minute)) || repo.since.After(wantSince.Add(time.Minute)) {
		t.Errorf("window start = %v, want about %v", repo.since, wantSince)
	}
}

func TestHandleDecisionDigestWithoutOpsEmail(t *testing.T) {
	sender := &stubSender{}
	w := &Worker{
		repo:   &stubRepo{stats: &repository.DecisionStats{}},
		sender: sender,
		log:    logger.New("test"),
	}

	task, err := NewDecisionDigestTask(DecisionDigestPayload{WindowHours: 24})
	if err != nil {
		t.Fatalf("NewDecisionDigestTask: %v", err)
	}
	if err := w.handleDecisionDigest(context.Background(), task); err != nil {
		t.Fatalf("handleDecisionDigest: %v", err)
	}
	if len(sender.digests) != 0 {
		t.Errorf("sent digest without a configured recipient")
	}
}

func TestHandleDecisionDigestAggregationFailure(t *testing.T) {
	w := &Worker{
		repo:     &stubRepo{fail: true},
		sender:   &stubSender{},
		opsEmail: "ops@example.com",
		log:      logger.New("test"),
	}

	task, err := NewDecisionDigestTask(DecisionDigestPayload{WindowHours: 24})
	if err != nil {
		t.Fatalf("NewDecisionDigestTask: %v", err)
	}
	if err := w.handleDecisionDigest(context.Background(), task); err == nil {
		t.Fatal("aggregation failure swallowed")
	}
}

func TestDecisionDigestPayloadRoundTrip(t *testing.T) {
	task, err := NewDecisionDigestTask(DecisionDigestPayload{WindowHours: 12})
	if err != nil {
		t.Fatalf("NewDecisionDigestTask: %v", err)
	}
	if task.Type() != TaskDecisionDigest {
		t.Errorf("task type = %q", task.Type())
	}
	payload, err := ParseDecisionDigestPayload(task)
	if err != nil {
		t.Fatalf("ParseDecisionDigestPayload: %v", err)
	}
	if payload.WindowHours != 12 {
		t.Errorf("windowHours = %d, want 12", payload.WindowHours)
	}
}
