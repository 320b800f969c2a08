// Package notification provides event handlers that flag low-confidence
// model decisions for human review. It subscribes to domain events, so the
// applications module never needs to know about email providers or
// templates.
package notification

import (
	"context"
	"fmt"

	"loan_portal_backend/internal/email"
	"loan_portal_backend/internal/events"
	"loan_portal_backend/platform/config"
	"loan_portal_backend/platform/logger"
)

// Module listens for evaluated applications and mails the ops inbox when a
// decision falls below the review confidence threshold.
type Module struct {
	sender    email.Sender
	opsEmail  string
	threshold float64
	log       *logger.Logger
}

// NewModule creates the notification module.
func NewModule(sender email.Sender, cfg config.NotificationConfig, log *logger.Logger) *Module {
	return &Module{
		sender:    sender,
		opsEmail:  cfg.GetOpsNotifyEmail(),
		threshold: cfg.GetReviewThreshold(),
		log:       log,
	}
}

// RegisterHandlers subscribes to the relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ApplicationEvaluated{}.EventName(), m)
	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ApplicationEvaluated:
		return m.handleApplicationEvaluated(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleApplicationEvaluated(ctx context.Context, e events.ApplicationEvaluated) error {
	if e.Confidence >= m.threshold {
		return nil
	}
	if m.opsEmail == "" {
		m.log.Debug("low-confidence decision not flagged, no ops email configured",
			"applicationId", e.ApplicationID, "confidence", e.Confidence)
		return nil
	}

	err := m.sender.SendReviewFlagEmail(ctx, m.opsEmail, email.ReviewFlagData{
		ApplicationID: e.ApplicationID.String(),
		Status:        e.Status,
		Confidence:    e.Confidence,
		ModelVersion:  e.ModelVersion,
	})
	if err != nil {
		return fmt.Errorf("failed to send review flag email: %w", err)
	}

	m.log.Info("flagged decision for review",
		"applicationId", e.ApplicationID, "status", e.Status, "confidence", e.Confidence)
	return nil
}

var _ events.Handler = (*Module)(nil)
