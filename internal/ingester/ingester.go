// Package ingester moves price rows from Kafka into ClickHouse in batches.
// It is the other half of the kafka store driver.
package ingester

import (
	"context"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"

	"github.com/navid-fn/pricefeed/internal/models"
	"github.com/navid-fn/pricefeed/internal/repository"
	"github.com/navid-fn/pricefeed/internal/storage"
)

// Config holds ingester configuration parameters.
type Config struct {
	// BatchSize is the maximum number of rows to accumulate before flushing to DB.
	BatchSize int

	// BatchTimeout is the maximum time to wait before flushing, even if batch isn't full.
	BatchTimeout time.Duration

	// RetryDelay is the pause between failed inserts.
	RetryDelay time.Duration
}

// Reader is the part of *kafka.Consumer the ingester uses.
type Reader interface {
	ReadMessage(timeout time.Duration) (*kafka.Message, error)
	Commit() ([]kafka.TopicPartition, error)
}

// Ingester implements at-least-once delivery: offsets are committed only
// after the batch is in the database.
type Ingester struct {
	reader  Reader
	storage repository.PriceWriter
	logger  *logrus.Entry
	cfg     Config
}

func NewIngester(reader Reader, storage repository.PriceWriter, logger *logrus.Logger, cfg Config) *Ingester {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 5 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &Ingester{
		reader:  reader,
		storage: storage,
		logger:  logger.WithField("component", "ingester"),
		cfg:     cfg,
	}
}

// Start runs the ingestion loop until ctx is cancelled. Remaining rows are
// flushed on the way out.
func (ig *Ingester) Start(ctx context.Context) error {
	ig.logger.WithField("batch_size", ig.cfg.BatchSize).Info("Starting ingester loop")

	batch := make([]models.PriceRow, 0, ig.cfg.BatchSize)
	lastFlush := time.Now()

	// flush writes accumulated rows to DB and commits Kafka offsets
	flush := func(ctx context.Context) error {
		defer func() { lastFlush = time.Now() }()
		if len(batch) == 0 {
			return nil
		}

		// Never drop data: keep retrying until the DB accepts it.
		for {
			err := ig.storage.CreatePrices(ctx, batch)
			if err == nil {
				break
			}
			ig.logger.WithField("rows", len(batch)).Errorf("DB insert failed, retrying: %v", err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(ig.cfg.RetryDelay):
			}
		}

		if _, err := ig.reader.Commit(); err != nil {
			ig.logger.Warnf("Failed to commit offsets: %v", err)
		}
		ig.logger.WithField("rows", len(batch)).Debug("batch inserted")

		batch = batch[:0]
		return nil
	}

	for {
		if ctx.Err() != nil {
			// Shutdown flush gets its own deadline since ctx is already done.
			flushCtx, cancel := context.WithTimeout(context.Background(), ig.cfg.BatchTimeout)
			defer cancel()
			return flush(flushCtx)
		}

		if time.Since(lastFlush) >= ig.cfg.BatchTimeout {
			if err := flush(ctx); err != nil {
				return err
			}
		}

		msg, err := ig.reader.ReadMessage(ig.cfg.BatchTimeout)
		if err != nil {
			if kerr, ok := err.(kafka.Error); ok && kerr.Code() == kafka.ErrTimedOut {
				continue
			}
			ig.logger.Errorf("Kafka read error: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}

		row, err := storage.DecodePriceMessage(msg.Value)
		if err != nil {
			ig.logger.WithField("offset", msg.TopicPartition.Offset).Warnf("skipping message: %v", err)
			continue
		}

		batch = append(batch, row)
		if len(batch) >= ig.cfg.BatchSize {
			if err := flush(ctx); err != nil {
				return err
			}
		}
	}
}
