package notification

import (
	"context"
	"fmt"
	"strings"

	"leadflow_backend/internal/automation"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Dispatcher is the outbound channel used for re-engagement messages.
type Dispatcher interface {
	Send(ctx context.Context, tenantID, leadID uuid.UUID, channel domain.Channel, text string) (domain.DeliveryStatus, error)
	Reachable(lead domain.Lead) bool
}

// MessageLog records sent re-engagement messages in the conversation.
type MessageLog interface {
	CreateMessage(ctx context.Context, params repository.CreateMessageParams) (domain.Message, error)
}

// DecayNotifier sends a re-engagement message after a lead cooled down.
type DecayNotifier struct {
	dispatcher Dispatcher
	messages   MessageLog
	log        *logger.Logger
}

func NewDecayNotifier(dispatcher Dispatcher, messages MessageLog, log *logger.Logger) *DecayNotifier {
	return &DecayNotifier{dispatcher: dispatcher, messages: messages, log: log}
}

// NotifyDecay skips leads with automation disabled, escalated leads and leads
// without a reachable channel. It reports whether a message went out.
func (n *DecayNotifier) NotifyDecay(ctx context.Context, lead domain.Lead, transition domain.TemperatureTransition) (bool, error) {
	if !lead.AIEnabled || lead.Escalated || !n.dispatcher.Reachable(lead) {
		return false, nil
	}

	text := ReengagementMessage(lead, transition)
	status, err := n.dispatcher.Send(ctx, lead.TenantID, lead.ID, lead.Channel, text)

	if n.messages != nil {
		if _, logErr := n.messages.CreateMessage(ctx, repository.CreateMessageParams{
			TenantID:       lead.TenantID,
			LeadID:         lead.ID,
			Content:        text,
			FromLead:       false,
			Channel:        lead.Channel,
			DeliveryStatus: status,
		}); logErr != nil {
			n.log.DatabaseError("create_reengagement_message", logErr)
		}
	}

	if err != nil {
		return false, fmt.Errorf("send re-engagement message: %w", err)
	}
	return status == domain.DeliverySent, nil
}

// ReengagementMessage is the templated message for a decay step.
func ReengagementMessage(lead domain.Lead, transition domain.TemperatureTransition) string {
	greeting := "Hi"
	if fields := strings.Fields(sanitize.StripHTML(lead.Name)); len(fields) > 0 {
		greeting = "Hi " + fields[0]
	}

	if transition.To == domain.TemperatureCold {
		return greeting + ", it has been a while since we last spoke. If you are still looking for a property, reply to this message and we will send you the latest options."
	}
	return greeting + ", just checking in. Are you still looking for a property? We have new listings that may fit what you described."
}

var (
	_ automation.Notifier = (*DecayNotifier)(nil)
	_ Dispatcher          = (*ChannelDispatcher)(nil)
)
