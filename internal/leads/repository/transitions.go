package repository

import (
	"context"

	"leadflow_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ApplyTemperatureTransition moves the lead from rec.From to rec.To and appends
// the event log row in one transaction. It reports false when the stored
// temperature no longer equals rec.From, so concurrent runs apply a transition
// at most once.
func (r *Repository) ApplyTemperatureTransition(ctx context.Context, rec domain.TemperatureTransition) (domain.TemperatureTransition, bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.TemperatureTransition{}, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE leads SET temperature = $4, temperature_changed_at = $5, updated_at = now()
		WHERE id = $1 AND tenant_id = $2 AND temperature = $3
	`, rec.LeadID, rec.TenantID, string(rec.From), string(rec.To), rec.OccurredAt)
	if err != nil {
		return domain.TemperatureTransition{}, false, err
	}
	if tag.RowsAffected() == 0 {
		return domain.TemperatureTransition{}, false, nil
	}

	if err := tx.QueryRow(ctx, `
		INSERT INTO lead_temperature_transitions (tenant_id, lead_id, from_state, to_state, elapsed_days, trigger, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, rec.TenantID, rec.LeadID, string(rec.From), string(rec.To), rec.ElapsedDays, rec.Trigger, rec.OccurredAt).Scan(&rec.ID); err != nil {
		return domain.TemperatureTransition{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.TemperatureTransition{}, false, err
	}
	return rec, true, nil
}

// ListTransitions returns the lead's temperature event log, oldest first.
func (r *Repository) ListTransitions(ctx context.Context, tenantID, leadID uuid.UUID) ([]domain.TemperatureTransition, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, lead_id, from_state, to_state, elapsed_days, trigger, occurred_at
		FROM lead_temperature_transitions
		WHERE tenant_id = $1 AND lead_id = $2
		ORDER BY occurred_at ASC, id ASC
	`, tenantID, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.TemperatureTransition, 0)
	for rows.Next() {
		var (
			item     domain.TemperatureTransition
			from, to string
		)
		if err := rows.Scan(&item.ID, &item.TenantID, &item.LeadID, &from, &to, &item.ElapsedDays, &item.Trigger, &item.OccurredAt); err != nil {
			return nil, err
		}
		item.From = domain.Temperature(from)
		item.To = domain.Temperature(to)
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}
