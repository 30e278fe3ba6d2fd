package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"

	"github.com/navid-fn/pricefeed/internal/models"
)

// kafkaPersister publishes each row to a topic; a sink connector or consumer
// moves it into the time-series store.
type kafkaPersister struct {
	producer *kafka.Producer
	topic    string
	logger   *logrus.Entry
}

// PriceMessage is the wire form of a row on the price topic.
type PriceMessage struct {
	Exchange  string `json:"exchange"`
	Timestamp string `json:"timestamp"`
	Price     string `json:"price"`
}

func NewKafkaPersister(broker, topic string, logger *logrus.Logger) (Persister, error) {
	if broker == "" || topic == "" {
		return nil, errors.New("kafka broker and topic are required")
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": broker,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	p := &kafkaPersister{
		producer: producer,
		topic:    topic,
		logger:   logger.WithField("store", DriverKafka),
	}
	p.startEventReport()
	p.logger.Info("Kafka Producer initialized successfully")
	return p, nil
}

// Per-message delivery reports go to the channel passed to Produce; the
// shared Events channel only carries client-level errors.
func (p *kafkaPersister) startEventReport() {
	go func() {
		for e := range p.producer.Events() {
			if ev, ok := e.(kafka.Error); ok {
				p.logger.Errorf("Kafka client error: %v", ev)
			}
		}
	}()
}

func (p *kafkaPersister) Persist(ctx context.Context, row models.PriceRow) error {
	msg, err := newPriceMessage(p.topic, row)
	if err != nil {
		return writeFailed("persist", row, err)
	}

	delivery := make(chan kafka.Event, 1)
	if err := p.producer.Produce(msg, delivery); err != nil {
		return writeFailed("persist", row, err)
	}

	select {
	case e := <-delivery:
		m, ok := e.(*kafka.Message)
		if !ok {
			return writeFailed("persist", row, fmt.Errorf("unexpected delivery event %v", e))
		}
		if m.TopicPartition.Error != nil {
			return writeFailed("persist", row, m.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		return writeFailed("persist", row, ctx.Err())
	}
}

func (p *kafkaPersister) Close() error {
	p.producer.Flush(5000)
	p.producer.Close()
	p.logger.Info("Kafka Producer closed")
	return nil
}

func newPriceMessage(topic string, row models.PriceRow) (*kafka.Message, error) {
	if row.Timestamp.IsZero() {
		return nil, errors.New("zero timestamp")
	}
	price, _, err := priceLiteral(row.Price)
	if err != nil {
		return nil, err
	}

	value, err := json.Marshal(PriceMessage{
		Exchange:  row.Exchange.String(),
		Timestamp: row.Timestamp.UTC().Format(models.StoreTimeLayout),
		Price:     price,
	})
	if err != nil {
		return nil, err
	}

	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(row.Exchange),
		Value:          value,
	}, nil
}

// DecodePriceMessage parses a topic value back into a row.
func DecodePriceMessage(value []byte) (models.PriceRow, error) {
	var msg PriceMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return models.PriceRow{}, fmt.Errorf("decode price message: %w", err)
	}

	exchange, err := models.ParseExchange(msg.Exchange)
	if err != nil {
		return models.PriceRow{}, err
	}
	ts, err := time.ParseInLocation(models.StoreTimeLayout, msg.Timestamp, time.UTC)
	if err != nil {
		return models.PriceRow{}, fmt.Errorf("invalid timestamp %q: %w", msg.Timestamp, err)
	}
	if _, _, err := priceLiteral(msg.Price); err != nil {
		return models.PriceRow{}, err
	}

	return models.PriceRow{Exchange: exchange, Timestamp: ts, Price: msg.Price}, nil
}
