package store

import (
	"context"
	"database/sql"

	"emperror.dev/errors"

	"portfolio/api/models"
)

// LeadStore persists contact messages and call bookings in the contacts table.
type LeadStore struct {
	db *sql.DB
}

func NewLeadStore(db *sql.DB) *LeadStore {
	return &LeadStore{db: db}
}

func (s *LeadStore) Create(ctx context.Context, lead models.Lead) (models.Lead, error) {
	query := `
		INSERT INTO contacts (kind, name, email, subject, message, preferred_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at;
	`
	var preferred sql.NullTime
	if lead.PreferredTime != nil {
		preferred = sql.NullTime{Time: *lead.PreferredTime, Valid: true}
	}

	err := s.db.QueryRowContext(ctx, query,
		lead.Kind, lead.Name, lead.Email, lead.Subject, lead.Message, preferred,
	).Scan(&lead.ID, &lead.CreatedAt)
	if err != nil {
		return models.Lead{}, errors.WrapIfWithDetails(err, "failed to insert lead", "kind", lead.Kind)
	}

	return lead, nil
}

// List returns the most recent leads first, at most limit rows.
func (s *LeadStore) List(ctx context.Context, limit int) ([]models.Lead, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, name, email, subject, message, preferred_time, created_at
		FROM contacts
		ORDER BY created_at DESC
		LIMIT $1;
	`, limit)
	if err != nil {
		return nil, errors.WrapIf(err, "failed to query leads")
	}
	defer rows.Close()

	leads := []models.Lead{}
	for rows.Next() {
		var (
			lead      models.Lead
			preferred sql.NullTime
		)
		if err := rows.Scan(&lead.ID, &lead.Kind, &lead.Name, &lead.Email, &lead.Subject, &lead.Message, &preferred, &lead.CreatedAt); err != nil {
			return nil, errors.WrapIf(err, "failed to scan lead")
		}
		if preferred.Valid {
			t := preferred.Time
			lead.PreferredTime = &t
		}
		leads = append(leads, lead)
	}

	return leads, errors.WrapIf(rows.Err(), "row error during lead query")
}
