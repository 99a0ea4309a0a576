package database

import (
	"context"
	"fmt"
	"time"

	"emperror.dev/errors"
	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/sirupsen/logrus"

	"portfolio/api/config"
)

type ClickHouseClient struct {
	Conn   clickhouse.Conn
	logger logrus.FieldLogger
}

// NewClickHouseDB connects over the native protocol and creates the analytics table.
func NewClickHouseDB(ctx context.Context, cfg config.ClickHouseConfig, logger logrus.FieldLogger) (*ClickHouseClient, error) {
	options := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.NativePort)},
		Auth: clickhouse.Auth{
			Database: cfg.DBName,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		ClientInfo: clickhouse.ClientInfo{
			Products: []struct {
				Name    string
				Version string
			}{{Name: "portfolio-api", Version: "1.0.0"}},
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout: time.Second * 5,
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, errors.WrapIf(err, "failed to connect to ClickHouse via Native TCP")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := conn.Ping(pingCtx); err != nil {
		conn.Close()
		return nil, errors.WrapIf(err, "failed to ping ClickHouse")
	}

	if err := conn.Exec(ctx, clickhouseSchema); err != nil {
		conn.Close()
		return nil, errors.WrapIf(err, "failed to create analytics_events table")
	}

	logger.WithField("addr", options.Addr[0]).Info("connected to ClickHouse")
	return &ClickHouseClient{Conn: conn, logger: logger}, nil
}

func (c *ClickHouseClient) Close() {
	if c.Conn != nil {
		if err := c.Conn.Close(); err != nil {
			c.logger.WithError(err).Error("error closing ClickHouse connection")
			return
		}
		c.logger.Info("ClickHouse connection closed")
	}
}
