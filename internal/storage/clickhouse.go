package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/navid-fn/pricefeed/internal/models"
)

// clickhouseStorage implements Persister using the native ClickHouse driver.
type clickhouseStorage struct {
	conn  driver.Conn
	table string
}

// NewClickHouseStorage creates a new ClickHouse storage connection.
// It parses the DSN, opens a connection, and verifies connectivity with a ping.
// Returns an error if connection cannot be established within 5 seconds.
func NewClickHouseStorage(dsn, table string) (Persister, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, err
	}

	// Test connection with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return &clickhouseStorage{conn: conn, table: table}, nil
}

// Persist inserts one row. No batching: the poller writes one row per tick.
func (s *clickhouseStorage) Persist(ctx context.Context, row models.PriceRow) error {
	if row.Timestamp.IsZero() {
		return writeFailed("persist", row, fmt.Errorf("zero timestamp"))
	}
	_, price, err := priceLiteral(row.Price)
	if err != nil {
		return writeFailed("persist", row, err)
	}

	query := fmt.Sprintf("INSERT INTO %s (exchange, timestamp, price) VALUES (?, ?, ?)", s.table)
	if err := s.conn.Exec(ctx, query, row.Exchange.String(), row.Timestamp.UTC(), price); err != nil {
		return writeFailed("persist", row, err)
	}
	return nil
}

// Close closes the ClickHouse connection.
func (s *clickhouseStorage) Close() error {
	return s.conn.Close()
}
