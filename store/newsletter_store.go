package store

import (
	"context"
	"database/sql"
	"time"

	"emperror.dev/errors"

	"portfolio/api/models"
)

var (
	ErrAlreadySubscribed  = errors.NewPlain("email already subscribed")
	ErrSubscriberNotFound = errors.NewPlain("subscriber not found")
)

type NewsletterStore struct {
	db *sql.DB
}

func NewNewsletterStore(db *sql.DB) *NewsletterStore {
	return &NewsletterStore{db: db}
}

// Subscribe inserts email. An existing subscription yields ErrAlreadySubscribed.
func (s *NewsletterStore) Subscribe(ctx context.Context, email string) (models.Subscriber, error) {
	var sub models.Subscriber
	query := `
		INSERT INTO newsletter_subscribers (email, is_active, subscribed_at)
		VALUES ($1, TRUE, NOW())
		ON CONFLICT (email) DO NOTHING
		RETURNING id, email, is_active, subscribed_at;
	`
	err := s.db.QueryRowContext(ctx, query, email).Scan(&sub.ID, &sub.Email, &sub.IsActive, &sub.SubscribedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Subscriber{}, ErrAlreadySubscribed
	}
	if err != nil {
		return models.Subscriber{}, errors.WrapIfWithDetails(err, "failed to insert subscriber", "email", email)
	}

	return sub, nil
}

// List returns all subscribers, newest first.
func (s *NewsletterStore) List(ctx context.Context) ([]models.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, is_active, subscribed_at
		FROM newsletter_subscribers
		ORDER BY subscribed_at DESC;
	`)
	if err != nil {
		return nil, errors.WrapIf(err, "failed to query subscribers")
	}
	defer rows.Close()

	subscribers := []models.Subscriber{}
	for rows.Next() {
		var sub models.Subscriber
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.IsActive, &sub.SubscribedAt); err != nil {
			return nil, errors.WrapIf(err, "failed to scan subscriber")
		}
		subscribers = append(subscribers, sub)
	}

	return subscribers, errors.WrapIf(rows.Err(), "row error during subscriber query")
}

// Stats counts all, active and recently subscribed addresses.
func (s *NewsletterStore) Stats(ctx context.Context, recentSince time.Time) (models.NewsletterStats, error) {
	var stats models.NewsletterStats
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE subscribed_at >= $1)
		FROM newsletter_subscribers;
	`
	err := s.db.QueryRowContext(ctx, query, recentSince).Scan(
		&stats.TotalSubscribers,
		&stats.ActiveSubscribers,
		&stats.RecentSubscribers,
	)
	if err != nil {
		return models.NewsletterStats{}, errors.WrapIf(err, "failed to query newsletter stats")
	}

	return stats, nil
}

func (s *NewsletterStore) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM newsletter_subscribers WHERE id = $1;`, id)
	if err != nil {
		return errors.WrapIfWithDetails(err, "failed to delete subscriber", "id", id)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.WrapIf(err, "failed to read affected rows")
	}
	if n == 0 {
		return ErrSubscriberNotFound
	}
	return nil
}
