// Package configs provides application configuration loaded from environment variables.
// All configuration is externalized via environment variables for 12-factor app compliance.
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/navid-fn/pricefeed/internal/models"
)

// AppConfig holds all application configuration.
// Load it once at startup using AppLoad().
type AppConfig struct {
	// ServerPort is the port the HTTP API listens on.
	ServerPort string

	// Debug puts gin into debug mode.
	Debug bool

	// LogLevel is a logrus level name (e.g., "info", "debug").
	LogLevel string

	// DBDSN is the ClickHouse native connection string.
	DBDSN string

	// Store selects and configures the price persister.
	Store StoreConfig

	// KafkaPrice contains Kafka connection settings for the kafka store driver.
	KafkaPrice KafkaConfig

	// Ingester contains settings for the Kafka-to-ClickHouse ingester.
	Ingester IngesterConfig

	// Poll contains settings for the background price pollers.
	Poll PollConfig

	// Market contains settings for the read path.
	Market MarketConfig

	// Upstream contains HTTP settings shared by every exchange adapter.
	Upstream UpstreamConfig

	// HistoryEnabled turns on the gorm-backed history endpoint.
	HistoryEnabled bool
}

// StoreConfig holds the persister settings.
type StoreConfig struct {
	// Driver is "http", "native" or "kafka".
	Driver string

	// Endpoint is the ClickHouse HTTP interface URL.
	Endpoint string

	// Table is the price table name.
	Table string

	// User and Password authenticate against the HTTP interface.
	User     string
	Password string
}

// KafkaConfig holds Kafka connection settings.
type KafkaConfig struct {
	// Broker is the Kafka broker address (e.g., "localhost:9092").
	Broker string

	// Topic is the Kafka topic for price rows.
	Topic string

	// GroupID is the consumer group ID for the ingester.
	GroupID string
}

// IngesterConfig holds settings for batch processing.
type IngesterConfig struct {
	// BatchSize is the maximum number of rows to accumulate before flushing.
	BatchSize int

	// BatchTimeoutSeconds is the maximum seconds to wait before flushing.
	BatchTimeoutSeconds int
}

// PollConfig holds poller settings.
type PollConfig struct {
	// Exchanges to poll (comma-separated in env).
	Exchanges []models.Exchange

	// Interval is the pause between two ticks of one poller.
	Interval time.Duration
}

// MarketConfig holds defaults for the query endpoints.
type MarketConfig struct {
	TradeLimit int
	BookDepth  int

	// PersistOnRead lists exchanges whose price reads are also stored
	// (comma-separated in env).
	PersistOnRead []models.Exchange
}

// UpstreamConfig holds exchange HTTP settings.
type UpstreamConfig struct {
	RequestsPerSecond float64
	RequestTimeout    time.Duration

	// BaseURLs overrides the public API root, from <EXCHANGE>_BASE_URL.
	BaseURLs map[models.Exchange]string
}

// getDatabaseDSN constructs the ClickHouse DSN from environment variables.
func getDatabaseDSN() string {
	dbUser := getEnv("CLICKHOUSE_USER", "default")
	dbPassword := getEnv("CLICKHOUSE_PASSWORD", "")
	dbHost := getEnv("CLICKHOUSE_HOST", "localhost")
	dbPort := getEnv("CLICKHOUSE_TCP_PORT", "9000")
	dbName := getEnv("CLICKHOUSE_DB", "default")

	return fmt.Sprintf(
		"clickhouse://%s:%s@%s:%s/%s?dial_timeout=10s&read_timeout=20s",
		dbUser, dbPassword, dbHost, dbPort, dbName,
	)
}

// getPollConfigs loads poller settings from environment.
func getPollConfigs() PollConfig {
	interval := getEnvInt("POLL_INTERVAL_SECONDS", 2)
	if interval <= 0 {
		interval = 2
	}

	return PollConfig{
		Exchanges: getEnvExchanges("POLL_EXCHANGES", "binance,huobi,kraken"),
		Interval:  time.Duration(interval) * time.Second,
	}
}

// getUpstreamConfigs loads exchange HTTP settings from environment.
func getUpstreamConfigs() UpstreamConfig {
	rps := getEnvFloat("REQUESTS_PER_SECOND", 5)
	if rps <= 0 {
		rps = 5
	}
	timeout := getEnvInt("REQUEST_TIMEOUT_SECONDS", 10)
	if timeout <= 0 {
		timeout = 10
	}

	baseURLs := make(map[models.Exchange]string)
	for _, ex := range models.Exchanges {
		if url := getEnv(strings.ToUpper(ex.String())+"_BASE_URL", ""); url != "" {
			baseURLs[ex] = url
		}
	}

	return UpstreamConfig{
		RequestsPerSecond: rps,
		RequestTimeout:    time.Duration(timeout) * time.Second,
		BaseURLs:          baseURLs,
	}
}

// AppLoad loads all application configuration from environment variables.
// It attempts to load a .env file first (for local development).
// Call this once at application startup.
func AppLoad() *AppConfig {
	_ = godotenv.Load() // Ignore error - .env is optional

	return &AppConfig{
		ServerPort: getEnv("SERVER_PORT", "8000"),
		Debug:      getEnvBool("DEBUG", false),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		DBDSN:      getDatabaseDSN(),
		Store: StoreConfig{
			Driver:   getEnv("STORE_DRIVER", "http"),
			Endpoint: getEnv("STORE_ENDPOINT", "http://localhost:8123/"),
			Table:    getEnv("STORE_TABLE", "btc_price"),
			User:     getEnv("CLICKHOUSE_USER", ""),
			Password: getEnv("CLICKHOUSE_PASSWORD", ""),
		},
		KafkaPrice: KafkaConfig{
			Broker:  getEnv("KAFKA_BROKER", "localhost:9092"),
			Topic:   getEnv("KAFKA_PRICE_TOPIC", "btc_price"),
			GroupID: getEnv("KAFKA_PRICE_GROUP_ID", "pricefeed-ingester"),
		},
		Ingester: IngesterConfig{
			BatchSize:           getEnvInt("BATCH_SIZE", 200),
			BatchTimeoutSeconds: getEnvInt("BATCH_TIMEOUT_SECONDS", 5),
		},
		Poll: getPollConfigs(),
		Market: MarketConfig{
			TradeLimit:    getEnvInt("TRADE_LIMIT", 20),
			BookDepth:     getEnvInt("BOOK_DEPTH", 10),
			PersistOnRead: getEnvExchanges("PERSIST_ON_READ", "binance"),
		},
		Upstream:       getUpstreamConfigs(),
		HistoryEnabled: getEnvBool("HISTORY_ENABLED", false),
	}
}

// ParseExchanges splits a comma-separated list, dropping blanks, unknown
// names and duplicates.
func ParseExchanges(list string) []models.Exchange {
	var out []models.Exchange
	seen := make(map[models.Exchange]bool)
	for _, name := range strings.Split(list, ",") {
		ex, err := models.ParseExchange(name)
		if err != nil || seen[ex] {
			continue
		}
		seen[ex] = true
		out = append(out, ex)
	}
	return out
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvExchanges returns a comma-separated exchange list. An explicitly empty
// value yields an empty list.
func getEnvExchanges(key, defaultValue string) []models.Exchange {
	return ParseExchanges(getEnv(key, defaultValue))
}
