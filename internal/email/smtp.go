package email

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"leadflow_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender returns nil when SMTP is not configured.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	if !cfg.IsSMTPEnabled() {
		return nil
	}
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent, textContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, textContent)
	msg.AddAlternativeString(gomail.TypeTextHTML, htmlContent)

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

func (s *SMTPSender) SendLeadMessage(ctx context.Context, toEmail, leadName, text string) error {
	name := strings.TrimSpace(leadName)
	if name == "" {
		name = "you"
	}
	content, err := renderEmailTemplate("lead_message.html", leadMessageEmailData{
		baseEmailData: baseEmailData{Title: fmt.Sprintf(subjectLeadMessageFmt, name), Heading: "Hello " + name},
		Paragraphs:    paragraphs(text),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectLeadMessageFmt, name), content, text)
}

func (s *SMTPSender) SendLeadAlertEmail(ctx context.Context, toEmail string, alert LeadAlert) error {
	subject := fmt.Sprintf(subjectLeadAlertFmt, alert.LeadName)
	content, err := renderEmailTemplate("lead_alert.html", leadAlertEmailData{
		baseEmailData: baseEmailData{Title: subject, Heading: "Lead needs attention", Subheading: strings.Join(alert.Reasons, ", ")},
		LeadAlert:     alert,
	})
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Lead %s (%s) needs attention.\nScore: %d\nUrgency: %s\nIntent: %s\nNext action: %s\nReasons: %s\n",
		alert.LeadName, alert.LeadID, alert.Score, alert.Urgency, alert.Intent, alert.NextAction, strings.Join(alert.Reasons, ", "))
	return s.send(ctx, toEmail, subject, content, text)
}
