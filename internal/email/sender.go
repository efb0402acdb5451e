package email

import "context"

// Sender delivers the two kinds of email the service sends.
type Sender interface {
	// SendLeadMessage delivers a conversational message to a lead.
	SendLeadMessage(ctx context.Context, toEmail, leadName, text string) error
	// SendLeadAlertEmail tells staff that a lead needs attention.
	SendLeadAlertEmail(ctx context.Context, toEmail string, alert LeadAlert) error
}

// LeadAlert is the content of a staff alert email.
type LeadAlert struct {
	LeadName   string
	LeadID     string
	Score      int
	Urgency    string
	Intent     string
	NextAction string
	Reasons    []string
}

type NoopSender struct{}

func (NoopSender) SendLeadMessage(context.Context, string, string, string) error { return nil }
func (NoopSender) SendLeadAlertEmail(context.Context, string, LeadAlert) error   { return nil }

var (
	_ Sender = NoopSender{}
	_ Sender = (*SMTPSender)(nil)
)
