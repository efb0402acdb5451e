package adapters

import (
	"leadflow_backend/internal/email"
	"leadflow_backend/internal/notification"
	"leadflow_backend/internal/whatsapp"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
)

// ChannelConfig is the configuration the outbound channels need.
type ChannelConfig interface {
	config.WhatsAppConfig
	config.SMTPConfig
	config.PhoneConfig
}

// NewEmailSender returns the SMTP sender, or a no-op sender when SMTP is not configured.
func NewEmailSender(cfg config.SMTPConfig) email.Sender {
	if sender := email.NewSMTPSender(cfg); sender != nil {
		return sender
	}
	return email.NoopSender{}
}

// NewChannelDispatcher builds a dispatcher with every transport that is configured.
// Unconfigured transports stay unset so leads on those channels are reported
// as unreachable instead of failing at send time.
func NewChannelDispatcher(leads notification.LeadReader, cfg ChannelConfig, log *logger.Logger) *notification.ChannelDispatcher {
	dispatcher := notification.NewChannelDispatcher(leads, cfg.GetDefaultPhoneRegion(), log)

	if client := whatsapp.NewClient(cfg, cfg.GetDefaultPhoneRegion(), log); client != nil {
		dispatcher.SetWhatsAppSender(client)
	} else {
		log.Warn("whatsapp gateway not configured; whatsapp and sms leads are unreachable")
	}

	if sender := email.NewSMTPSender(cfg); sender != nil {
		dispatcher.SetEmailSender(sender)
	} else {
		log.Warn("smtp not configured; email leads are unreachable")
	}

	return dispatcher
}
