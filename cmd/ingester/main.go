package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"gorm.io/driver/clickhouse"
	"gorm.io/gorm"

	"github.com/navid-fn/pricefeed/configs"
	"github.com/navid-fn/pricefeed/internal/crawler"
	"github.com/navid-fn/pricefeed/internal/ingester"
	"github.com/navid-fn/pricefeed/internal/repository"
)

func main() {
	appConfig := configs.AppLoad()
	logger := crawler.NewLogger(appConfig.LogLevel)

	db, err := gorm.Open(clickhouse.Open(appConfig.DBDSN), &gorm.Config{})
	if err != nil {
		logger.Fatalf("Failed to connect to DB: %v", err)
	}
	priceStorage := repository.NewGormPriceRepository(db, appConfig.Store.Table)

	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  appConfig.KafkaPrice.Broker,
		"group.id":           appConfig.KafkaPrice.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		logger.Fatalf("Failed to create Kafka consumer: %v", err)
	}
	defer consumer.Close()

	if err := consumer.SubscribeTopics([]string{appConfig.KafkaPrice.Topic}, nil); err != nil {
		logger.Fatalf("Failed to subscribe to %s: %v", appConfig.KafkaPrice.Topic, err)
	}

	svc := ingester.NewIngester(
		consumer,
		priceStorage,
		logger,
		ingester.Config{
			BatchSize:    appConfig.Ingester.BatchSize,
			BatchTimeout: time.Duration(appConfig.Ingester.BatchTimeoutSeconds) * time.Second,
		},
	)

	// Run with Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Ingester started successfully")

	if err := svc.Start(ctx); err != nil {
		logger.Errorf("Ingester stopped with error: %v", err)
		os.Exit(1)
	}

	logger.Info("Ingester shutdown complete")
}
