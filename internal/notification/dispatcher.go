package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/phone"

	"github.com/google/uuid"
)

var (
	ErrChannelUnavailable = errors.New("channel not configured")
	ErrNoContactHandle    = errors.New("lead has no contact handle for channel")
)

// LeadReader resolves a lead's contact handles.
type LeadReader interface {
	GetLead(ctx context.Context, tenantID, leadID uuid.UUID) (domain.Lead, error)
}

// WhatsAppSender sends WhatsApp messages.
type WhatsAppSender interface {
	SendMessage(ctx context.Context, phoneNumber string, message string) error
}

// EmailSender sends a plain conversational email to a lead.
type EmailSender interface {
	SendLeadMessage(ctx context.Context, toEmail, leadName, text string) error
}

// ChannelDispatcher routes outbound text to the transport behind a lead channel.
// WhatsApp and SMS share the phone gateway.
type ChannelDispatcher struct {
	leads    LeadReader
	whatsapp WhatsAppSender
	email    EmailSender
	region   string
	log      *logger.Logger
}

func NewChannelDispatcher(leads LeadReader, region string, log *logger.Logger) *ChannelDispatcher {
	return &ChannelDispatcher{leads: leads, region: region, log: log}
}

func (d *ChannelDispatcher) SetWhatsAppSender(sender WhatsAppSender) { d.whatsapp = sender }

func (d *ChannelDispatcher) SetEmailSender(sender EmailSender) { d.email = sender }

// Send delivers text to the lead and reports the resulting delivery status.
// A returned error always comes with DeliveryFailed.
func (d *ChannelDispatcher) Send(ctx context.Context, tenantID, leadID uuid.UUID, channel domain.Channel, text string) (domain.DeliveryStatus, error) {
	lead, err := d.leads.GetLead(ctx, tenantID, leadID)
	if err != nil {
		return domain.DeliveryFailed, fmt.Errorf("load lead: %w", err)
	}
	if err := d.send(ctx, lead, channel, text); err != nil {
		return domain.DeliveryFailed, err
	}
	d.log.Info("outbound message sent", "tenant_id", tenantID.String(), "lead_id", leadID.String(), "channel", string(channel))
	return domain.DeliverySent, nil
}

func (d *ChannelDispatcher) send(ctx context.Context, lead domain.Lead, channel domain.Channel, text string) error {
	switch channel {
	case domain.ChannelWhatsApp, domain.ChannelSMS:
		if d.whatsapp == nil {
			return fmt.Errorf("%s: %w", channel, ErrChannelUnavailable)
		}
		if !phone.IsDialable(lead.Phone, d.region) {
			return fmt.Errorf("%s: %w", channel, ErrNoContactHandle)
		}
		return d.whatsapp.SendMessage(ctx, lead.Phone, text)
	case domain.ChannelEmail:
		if d.email == nil {
			return fmt.Errorf("%s: %w", channel, ErrChannelUnavailable)
		}
		if lead.Email == nil || strings.TrimSpace(*lead.Email) == "" {
			return fmt.Errorf("%s: %w", channel, ErrNoContactHandle)
		}
		return d.email.SendLeadMessage(ctx, strings.TrimSpace(*lead.Email), lead.Name, text)
	default:
		return fmt.Errorf("unsupported channel %q", channel)
	}
}

// Reachable reports whether the lead can be contacted on its own channel.
func (d *ChannelDispatcher) Reachable(lead domain.Lead) bool {
	switch lead.Channel {
	case domain.ChannelWhatsApp, domain.ChannelSMS:
		return d.whatsapp != nil && phone.IsDialable(lead.Phone, d.region)
	case domain.ChannelEmail:
		return d.email != nil && lead.Email != nil && strings.TrimSpace(*lead.Email) != ""
	default:
		return false
	}
}
