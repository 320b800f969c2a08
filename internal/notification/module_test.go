package notification

import (
	"context"
	"errors"
	"testing"

	"loan_portal_backend/internal/email"
	"loan_portal_backend/internal/events"
	"loan_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type stubSender struct {
	reviewCalls []email.ReviewFlagData
	reviewTo    string
	digestCalls int
	fail        bool
}

func (s *stubSender) SendReviewFlagEmail(ctx context.Context, toEmail string, data email.ReviewFlagData) error {
	if s.fail {
		return errors.New("send failed")
	}
	s.reviewTo = toEmail
	s.reviewCalls = append(s.reviewCalls, data)
	return nil
}

func (s *stubSender) SendDecisionDigestEmail(ctx context.Context, toEmail string, data email.DigestData) error {
	s.digestCalls++
	return nil
}

type stubConfig struct {
	opsEmail  string
	threshold float64
}

func (c stubConfig) GetOpsNotifyEmail() string   { return c.opsEmail }
func (c stubConfig) GetReviewThreshold() float64 { return c.threshold }
func (c stubConfig) GetAppBaseURL() string       { return "http://localhost" }

func evaluatedEvent(confidence float64) events.ApplicationEvaluated {
	return events.ApplicationEvaluated{
		BaseEvent:     events.NewBaseEvent(),
		ApplicationID: uuid.New(),
		Status:        "Approved",
		Confidence:    confidence,
		ModelVersion:  "rf-test-1",
	}
}

func TestLowConfidenceDecisionIsFlagged(t *testing.T) {
	sender := &stubSender{}
	m := NewModule(sender, stubConfig{opsEmail: "ops@example.com", threshold: 0.65}, logger.New("test"))

	evt := evaluatedEvent(0.55)
	if err := m.Handle(context.Background(), evt); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sender.reviewCalls) != 1 {
		t.Fatalf("sent %d review emails, want 1", len(sender.reviewCalls))
	}
	if sender.reviewTo != "ops@example.com" {
		t.Errorf("sent to %q", sender.reviewTo)
	}
	got := sender.reviewCalls[0]
	if got.ApplicationID != evt.ApplicationID.String() || got.Confidence != evt.Confidence {
		t.Errorf("review data diverged: %+v", got)
	}
}

func TestConfidentDecisionIsNotFlagged(t *testing.T) {
	sender := &stubSender{}
	m := NewModule(sender, stubConfig{opsEmail: "ops@example.com", threshold: 0.65}, logger.New("test"))

	if err := m.Handle(context.Background(), evaluatedEvent(0.9)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sender.reviewCalls) != 0 {
		t.Errorf("sent %d review emails, want 0", len(sender.reviewCalls))
	}
}

func TestThresholdIsExclusive(t *testing.T) {
	sender := &stubSender{}
	m := NewModule(sender, stubConfig{opsEmail: "ops@example.com", threshold: 0.65}, logger.New("test"))

	if err := m.Handle(context.Background(), evaluatedEvent(0.65)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sender.reviewCalls) != 0 {
		t.Errorf("decision at the threshold was flagged")
	}
}

func TestMissingOpsEmailSkipsSend(t *testing.T) {
	sender := &stubSender{}
	m := NewModule(sender, stubConfig{opsEmail: "", threshold: 0.65}, logger.New("test"))

	if err := m.Handle(context.Background(), evaluatedEvent(0.4)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sender.reviewCalls) != 0 {
		t.Errorf("sent review email without a configured recipient")
	}
}

func TestSendFailureIsReturned(t *testing.T) {
	sender := &stubSender{fail: true}
	m := NewModule(sender, stubConfig{opsEmail: "ops@example.com", threshold: 0.65}, logger.New("test"))

	if err := m.Handle(context.Background(), evaluatedEvent(0.4)); err == nil {
		t.Fatal("send failure swallowed")
	}
}

func TestUnrelatedEventsAreIgnored(t *testing.T) {
	sender := &stubSender{}
	m := NewModule(sender, stubConfig{opsEmail: "ops@example.com", threshold: 0.65}, logger.New("test"))

	evt := events.DecisionDigestDue{BaseEvent: events.NewBaseEvent(), WindowHours: 24}
	if err := m.Handle(context.Background(), evt); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sender.reviewCalls) != 0 || sender.digestCalls != 0 {
		t.Errorf("unrelated event triggered mail")
	}
}

func TestRegisterHandlersSubscribes(t *testing.T) {
	sender := &stubSender{}
	m := NewModule(sender, stubConfig{opsEmail: "ops@example.com", threshold: 0.65}, logger.New("test"))

	bus := events.NewInMemoryBus(logger.New("test"))
	m.RegisterHandlers(bus)

	if err := bus.PublishSync(context.Background(), evaluatedEvent(0.5)); err != nil {
		t.Fatalf("PublishSync: %v", err)
	}
	if len(sender.reviewCalls) != 1 {
		t.Fatalf("subscribed handler not invoked")
	}
}
