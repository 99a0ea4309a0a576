package database

import (
	"context"
	"database/sql"
	"time"

	"emperror.dev/errors"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"portfolio/api/config"
)

type DBClient struct {
	DB     *sql.DB
	logger logrus.FieldLogger
}

// NewPostgresDB opens a pooled connection, pings it and applies the schema.
func NewPostgresDB(ctx context.Context, cfg config.DatabaseConfig, logger logrus.FieldLogger) (*DBClient, error) {
	if cfg.URL == "" {
		return nil, errors.New("database url is empty")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, errors.WrapIf(err, "error opening database connection")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.WrapIf(err, "error connecting to the database (ping failed)")
	}

	if err := migratePostgres(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("connected to PostgreSQL database")
	return &DBClient{DB: db, logger: logger}, nil
}

func (c *DBClient) Close() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.logger.WithError(err).Error("error closing database connection")
		} else {
			c.logger.Info("PostgreSQL database connection closed")
		}
	}
}
