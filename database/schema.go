package database

import (
	"context"
	"database/sql"

	"emperror.dev/errors"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS newsletter_subscribers (
		id SERIAL PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		subscribed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS contacts (
		id SERIAL PRIMARY KEY,
		kind VARCHAR(16) NOT NULL,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		subject VARCHAR(255) NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		preferred_time TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_created_at ON contacts (created_at DESC)`,
}

const clickhouseSchema = `
	CREATE TABLE IF NOT EXISTS analytics_events (
		event_id String,
		event_type LowCardinality(String),
		session_id String,
		timestamp DateTime64(3, 'UTC'),
		ip_address String,
		user_agent String,
		country String,
		city String,
		event_data String
	) ENGINE = MergeTree
	ORDER BY (event_type, timestamp)
`

func migratePostgres(ctx context.Context, db *sql.DB) error {
	for _, stmt := range postgresSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.WrapIf(err, "failed to apply postgres schema")
		}
	}
	return nil
}
