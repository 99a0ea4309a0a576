package store

import (
	"context"
	"encoding/json"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"

	"portfolio/api/database"
	"portfolio/api/models"
)

// AnalyticsStore writes recorded events to the ClickHouse analytics_events table.
type AnalyticsStore struct {
	DB     *database.ClickHouseClient
	logger logrus.FieldLogger
}

func NewAnalyticsStore(chClient *database.ClickHouseClient, logger logrus.FieldLogger) *AnalyticsStore {
	return &AnalyticsStore{
		DB:     chClient,
		logger: logger,
	}
}

func (s *AnalyticsStore) InsertEvents(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}

	// Column order must match the analytics_events schema.
	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO analytics_events (
			event_id, event_type, session_id, timestamp, ip_address, user_agent, country, city, event_data
		)
	`)
	if err != nil {
		return errors.WrapIf(err, "failed to prepare batch insert")
	}

	for _, event := range events {
		data, err := json.Marshal(event.Payload)
		if err != nil {
			s.logger.WithError(err).WithField("event_id", event.ID).Warn("skipping unencodable event")
			continue
		}

		var country, city string
		if event.Geo != nil {
			country, city = event.Geo.Country, event.Geo.City
		}

		err = batch.Append(
			event.ID,
			string(event.Kind()),
			event.SessionID,
			event.Timestamp,
			event.Client.IP,
			event.Client.UserAgent,
			country,
			city,
			string(data),
		)
		if err != nil {
			s.logger.WithError(err).WithField("event_id", event.ID).Warn("error appending event to batch")
		}
	}

	if err := batch.Send(); err != nil {
		return errors.WrapIf(err, "failed to send batch")
	}

	s.logger.WithField("events", len(events)).Debug("inserted analytics events")
	return nil
}
