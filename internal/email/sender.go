package email

import (
	"context"
	"time"

	"loan_portal_backend/platform/config"
)

// DigestData is the aggregate decision summary for one digest window.
type DigestData struct {
	WindowStart   time.Time
	WindowEnd     time.Time
	Total         int64
	Approved      int64
	Rejected      int64
	AvgConfidence float64
	FlaggedCount  int64
}

// ReviewFlagData describes one low-confidence decision that should get a
// human look.
type ReviewFlagData struct {
	ApplicationID string
	Status        string
	Confidence    float64
	ModelVersion  string
}

// Sender delivers operational mail about model decisions.
type Sender interface {
	SendReviewFlagEmail(ctx context.Context, toEmail string, data ReviewFlagData) error
	SendDecisionDigestEmail(ctx context.Context, toEmail string, data DigestData) error
}

// NoopSender is used when email is disabled. It accepts everything and sends
// nothing.
type NoopSender struct{}

func (NoopSender) SendReviewFlagEmail(ctx context.Context, toEmail string, data ReviewFlagData) error {
	return nil
}

func (NoopSender) SendDecisionDigestEmail(ctx context.Context, toEmail string, data DigestData) error {
	return nil
}

// NewSender picks the sender implementation from config. Disabled email or a
// missing SMTP host yields the noop sender so the rest of the system keeps
// working without mail.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" {
		return NoopSender{}
	}
	return NewSMTPSender(cfg)
}

var (
	_ Sender = NoopSender{}
	_ Sender = (*SMTPSender)(nil)
)
