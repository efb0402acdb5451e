package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"leadflow_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CreateMessageParams struct {
	TenantID       uuid.UUID
	LeadID         uuid.UUID
	Content        string
	FromLead       bool
	Channel        domain.Channel
	DeliveryStatus domain.DeliveryStatus
}

func (r *Repository) CreateMessage(ctx context.Context, params CreateMessageParams) (domain.Message, error) {
	var (
		msg            domain.Message
		channel, state string
	)
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_messages (tenant_id, lead_id, content, from_lead, channel, delivery_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, tenant_id, lead_id, content, from_lead, channel, delivery_status, score_impact, created_at
	`, params.TenantID, params.LeadID, params.Content, params.FromLead, string(params.Channel), string(params.DeliveryStatus)).Scan(
		&msg.ID, &msg.TenantID, &msg.LeadID, &msg.Content, &msg.FromLead, &channel, &state, &msg.ScoreImpact, &msg.CreatedAt,
	)
	if err != nil {
		return domain.Message{}, err
	}
	msg.Channel = domain.Channel(channel)
	msg.DeliveryStatus = domain.DeliveryStatus(state)
	return msg, nil
}

// ListRecentMessages returns up to limit of the newest messages, oldest first.
func (r *Repository) ListRecentMessages(ctx context.Context, tenantID, leadID uuid.UUID, limit int) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, lead_id, content, from_lead, channel, delivery_status, analysis, score_impact, created_at
		FROM lead_messages
		WHERE tenant_id = $1 AND lead_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, tenantID, leadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]domain.Message, 0, limit)
	for rows.Next() {
		var (
			msg            domain.Message
			channel, state string
			analysis       []byte
		)
		if err := rows.Scan(&msg.ID, &msg.TenantID, &msg.LeadID, &msg.Content, &msg.FromLead, &channel, &state, &analysis, &msg.ScoreImpact, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Channel = domain.Channel(channel)
		msg.DeliveryStatus = domain.DeliveryStatus(state)
		if len(analysis) > 0 {
			var result domain.AnalysisResult
			if err := json.Unmarshal(analysis, &result); err != nil {
				return nil, fmt.Errorf("decode analysis of message %s: %w", msg.ID, err)
			}
			msg.Analysis = &result
		}
		messages = append(messages, msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	slices.Reverse(messages)
	return messages, nil
}

// AttachAnalysis stores the analysis and score impact on an inbound message.
func (r *Repository) AttachAnalysis(ctx context.Context, tenantID, messageID uuid.UUID, analysis domain.AnalysisResult, scoreImpact int) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE lead_messages SET analysis = $3, score_impact = $4
		WHERE id = $1 AND tenant_id = $2
	`, messageID, tenantID, payload, scoreImpact)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDeliveryStatus records the channel dispatch outcome of an outbound message.
func (r *Repository) UpdateDeliveryStatus(ctx context.Context, tenantID, messageID uuid.UUID, status domain.DeliveryStatus) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE lead_messages SET delivery_status = $3
		WHERE id = $1 AND tenant_id = $2
		RETURNING id
	`, messageID, tenantID, string(status)).Scan(&messageID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
