// Package storage provides the write path of the price time-series.
package storage

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/navid-fn/pricefeed/internal/errs"
	"github.com/navid-fn/pricefeed/internal/models"
)

const (
	DriverHTTP   = "http"
	DriverNative = "native"
	DriverKafka  = "kafka"

	DefaultEndpoint = "http://localhost:8123/"
	DefaultTable    = "btc_price"
	DefaultTimeout  = 5 * time.Second
)

// Persister writes single price rows. Each call is an independent best-effort
// write with no buffering. Implementations must be safe for concurrent use.
type Persister interface {
	// Persist writes one row. Failures carry errs.StorageWriteFailed.
	Persist(ctx context.Context, row models.PriceRow) error

	// Close releases connection resources.
	Close() error
}

// Config selects and configures a Persister.
type Config struct {
	// Driver is one of "http", "native" or "kafka".
	Driver string

	// Endpoint is the ClickHouse HTTP interface (http driver).
	Endpoint string

	// User and Password are sent as ClickHouse HTTP headers when set.
	User     string
	Password string

	// DSN is the clickhouse:// connection string (native driver).
	DSN string

	// Table receives the rows (http and native drivers).
	Table string

	// KafkaBroker and KafkaTopic configure the kafka driver.
	KafkaBroker string
	KafkaTopic  string

	Timeout time.Duration
}

// New creates the Persister named by cfg.Driver.
func New(cfg Config, logger *logrus.Logger) (Persister, error) {
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if !identifier.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid table name %q", cfg.Table)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	switch strings.ToLower(cfg.Driver) {
	case "", DriverHTTP:
		if cfg.Endpoint == "" {
			cfg.Endpoint = DefaultEndpoint
		}
		return NewHTTPPersister(cfg, logger), nil
	case DriverNative:
		return NewClickHouseStorage(cfg.DSN, cfg.Table)
	case DriverKafka:
		return NewKafkaPersister(cfg.KafkaBroker, cfg.KafkaTopic, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

var (
	identifier  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
	plainNumber = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)
)

// priceLiteral validates the price text and returns it in a form safe to
// embed in SQL. Plain decimals are kept byte for byte.
func priceLiteral(price string) (string, decimal.Decimal, error) {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return "", decimal.Decimal{}, fmt.Errorf("invalid price %q: %w", price, err)
	}
	if plainNumber.MatchString(price) {
		return price, d, nil
	}
	return d.String(), d, nil
}

// InsertStatement builds the single-row insert for row.
func InsertStatement(table string, row models.PriceRow) (string, error) {
	if !identifier.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	if _, err := models.ParseExchange(row.Exchange.String()); err != nil {
		return "", err
	}
	if row.Timestamp.IsZero() {
		return "", fmt.Errorf("zero timestamp")
	}
	price, _, err := priceLiteral(row.Price)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"INSERT INTO %s (exchange, timestamp, price) VALUES ('%s', '%s', %s)",
		table,
		row.Exchange,
		row.Timestamp.UTC().Format(models.StoreTimeLayout),
		price,
	), nil
}

func writeFailed(op string, row models.PriceRow, err error) error {
	return errs.New(errs.StorageWriteFailed, row.Exchange.String(), op, err)
}
