// Package repository provides read access to the tenant inventory catalog.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Item struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Title       string
	Category    string
	Price       float64
	State       string
	City        string
	District    string
	Bedrooms    int
	Parking     int
	AreaSqm     float64
	Furnished   bool
	PetFriendly *bool
	MediaKeys   []string
	Highlights  []string
	CreatedAt   time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListAvailable returns up to limit available items of the tenant, newest first.
func (r *Repository) ListAvailable(ctx context.Context, tenantID uuid.UUID, limit int) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, title, category, price, state, city, district,
			bedrooms, parking, area_sqm, furnished, pet_friendly, media_keys, highlights, created_at
		FROM inventory_items
		WHERE tenant_id = $1 AND is_available = true
		ORDER BY created_at DESC, id ASC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		if err := rows.Scan(
			&item.ID, &item.TenantID, &item.Title, &item.Category, &item.Price, &item.State, &item.City, &item.District,
			&item.Bedrooms, &item.Parking, &item.AreaSqm, &item.Furnished, &item.PetFriendly, &item.MediaKeys, &item.Highlights, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}
