package repository

import (
	"context"
	"errors"
	"time"

	"leadflow_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, tenant_id, name, phone, email, channel, score, temperature, urgency,
	pref_category, pref_state, pref_city, pref_district, pref_budget_min, pref_budget_max,
	pref_bedrooms_min, pref_bedrooms_max, pref_parking_min, pref_area_min, pref_pets_required,
	last_contact_at, temperature_changed_at, ai_enabled, escalated, escalation_reason,
	created_at, updated_at`

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		lead                  domain.Lead
		channel, temperature  string
		urgency               *string
		state, city, district *string
	)
	err := row.Scan(
		&lead.ID, &lead.TenantID, &lead.Name, &lead.Phone, &lead.Email, &channel, &lead.Score, &temperature, &urgency,
		&lead.Preferences.Category, &state, &city, &district, &lead.Preferences.BudgetMin, &lead.Preferences.BudgetMax,
		&lead.Preferences.BedroomsMin, &lead.Preferences.BedroomsMax, &lead.Preferences.ParkingMin, &lead.Preferences.AreaMin,
		&lead.Preferences.PetsRequired,
		&lead.LastContactAt, &lead.TemperatureChangedAt, &lead.AIEnabled, &lead.Escalated, &lead.EscalationReason,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}

	lead.Channel = domain.Channel(channel)
	lead.Temperature = domain.Temperature(temperature)
	if urgency != nil {
		u := domain.Urgency(*urgency)
		lead.Urgency = &u
	}
	lead.Preferences.Location = domain.Location{State: deref(state), City: deref(city), District: deref(district)}
	return lead, nil
}

// GetLead loads a lead scoped to its tenant. A lead of another tenant is reported as ErrNotFound.
func (r *Repository) GetLead(ctx context.Context, tenantID, leadID uuid.UUID) (domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE id = $1 AND tenant_id = $2
	`, leadID, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

// ListDecayCandidates returns the tenant's leads that can still decay (HOT or WARM).
func (r *Repository) ListDecayCandidates(ctx context.Context, tenantID uuid.UUID) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE tenant_id = $1 AND temperature IN ('HOT', 'WARM')
		ORDER BY created_at ASC, id ASC
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return leads, nil
}

type UpdateAfterMessageParams struct {
	TenantID         uuid.UUID
	LeadID           uuid.UUID
	Score            int
	Preferences      domain.Preferences
	Urgency          domain.Urgency
	LastContactAt    time.Time
	Escalated        bool
	EscalationReason *string
}

// UpdateAfterMessage writes the fields the analysis pipeline owns. Temperature is untouched.
func (r *Repository) UpdateAfterMessage(ctx context.Context, params UpdateAfterMessageParams) (domain.Lead, error) {
	p := params.Preferences
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads SET
			score = $3,
			urgency = $4,
			pref_category = $5,
			pref_state = $6,
			pref_city = $7,
			pref_district = $8,
			pref_budget_min = $9,
			pref_budget_max = $10,
			pref_bedrooms_min = $11,
			pref_bedrooms_max = $12,
			pref_parking_min = $13,
			pref_area_min = $14,
			pref_pets_required = $15,
			last_contact_at = $16,
			escalated = escalated OR $17,
			escalation_reason = COALESCE($18, escalation_reason),
			updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING `+leadColumns,
		params.LeadID, params.TenantID, params.Score, string(params.Urgency),
		p.Category, nullable(p.Location.State), nullable(p.Location.City), nullable(p.Location.District),
		p.BudgetMin, p.BudgetMax, p.BedroomsMin, p.BedroomsMax, p.ParkingMin, p.AreaMin, p.PetsRequired,
		params.LastContactAt, params.Escalated, params.EscalationReason,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
