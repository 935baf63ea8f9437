package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/rs/zerolog/log"

	"github.com/SteelMorgan/weblogstats/internal/retry"
)

// Options describes the ClickHouse connection
type Options struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

// Client wraps ClickHouse connection
type Client struct {
	conn     clickhouse.Conn
	retryCfg retry.Config
}

// NewClient connects to ClickHouse and pings it with retry
func NewClient(ctx context.Context, opts Options, retryCfg retry.Config) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", opts.Host, opts.Port)},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := retry.Do(ctx, retryCfg, func() error {
		return conn.Ping(ctx)
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	log.Info().
		Str("host", opts.Host).
		Int("port", opts.Port).
		Str("database", opts.Database).
		Msg("Connected to ClickHouse")

	return &Client{
		conn:     conn,
		retryCfg: retryCfg,
	}, nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Exec executes a non-SELECT query with retry logic
func (c *Client) Exec(ctx context.Context, query string, args ...any) error {
	return retry.Do(ctx, c.retryCfg, func() error {
		return c.conn.Exec(ctx, query, args...)
	})
}

// InsertRow inserts a single row with retry logic.
// Each attempt prepares a fresh batch, a sent batch cannot be reused.
func (c *Client) InsertRow(ctx context.Context, query string, row ...any) error {
	return retry.Do(ctx, c.retryCfg, func() error {
		batch, err := c.conn.PrepareBatch(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare batch: %w", err)
		}
		if err := batch.Append(row...); err != nil {
			batch.Abort()
			return fmt.Errorf("failed to append row: %w", err)
		}
		return batch.Send()
	})
}

// Query executes a SELECT query with retry logic
func (c *Client) Query(ctx context.Context, query string, args ...any) (driver.Rows, error) {
	return retry.DoWithResult(ctx, c.retryCfg, func() (driver.Rows, error) {
		return c.conn.Query(ctx, query, args...)
	})
}
