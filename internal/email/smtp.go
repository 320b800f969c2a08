package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"loan_portal_backend/platform/config"
)

// SMTPSender delivers operational mail over a direct SMTP connection via
// go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates an SMTPSender from the email configuration.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendReviewFlagEmail(ctx context.Context, toEmail string, data ReviewFlagData) error {
	content, err := renderEmailTemplate("review_flag.html", reviewFlagEmailData{
		baseEmailData: baseEmailData{
			Title:   "Decision flagged for review",
			Heading: "Decision flagged for review",
		},
		ApplicationID: data.ApplicationID,
		Status:        data.Status,
		ConfidencePct: formatPercent(data.Confidence),
		ModelVersion:  data.ModelVersion,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectReviewFlag, content)
}

func (s *SMTPSender) SendDecisionDigestEmail(ctx context.Context, toEmail string, data DigestData) error {
	subject := fmt.Sprintf(subjectDecisionDigestFmt, data.WindowEnd.Format("2006-01-02"))
	content, err := renderEmailTemplate("decision_digest.html", decisionDigestEmailData{
		baseEmailData: baseEmailData{
			Title:   "Daily decision digest",
			Heading: "Daily decision digest",
		},
		WindowStart:      data.WindowStart.Format("2006-01-02 15:04"),
		WindowEnd:        data.WindowEnd.Format("2006-01-02 15:04"),
		Total:            data.Total,
		Approved:         data.Approved,
		Rejected:         data.Rejected,
		AvgConfidencePct: formatPercent(data.AvgConfidence),
		FlaggedCount:     data.FlaggedCount,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
