package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/clickhouse"
	"gorm.io/gorm"

	"github.com/navid-fn/pricefeed/configs"
	"github.com/navid-fn/pricefeed/internal/crawler"
	"github.com/navid-fn/pricefeed/internal/drivers"
	"github.com/navid-fn/pricefeed/internal/handler"
	"github.com/navid-fn/pricefeed/internal/models"
	"github.com/navid-fn/pricefeed/internal/poller"
	"github.com/navid-fn/pricefeed/internal/repository"
	"github.com/navid-fn/pricefeed/internal/router"
	"github.com/navid-fn/pricefeed/internal/service"
	"github.com/navid-fn/pricefeed/internal/storage"
)

func main() {
	var (
		exchanges string
		noPoll    bool
	)
	flag.StringVar(&exchanges, "exchanges", "", "Comma-separated exchanges to poll: binance, huobi, kraken (default from POLL_EXCHANGES)")
	flag.BoolVar(&noPoll, "no-poll", false, "Serve the HTTP API only, without background pollers")
	flag.Parse()

	cfg := configs.AppLoad()
	logger := crawler.NewLogger(cfg.LogLevel)

	pollExchanges := cfg.Poll.Exchanges
	if exchanges != "" {
		pollExchanges = configs.ParseExchanges(exchanges)
		if len(pollExchanges) == 0 {
			fmt.Fprintf(os.Stderr, "Error: no known exchange in %q\n", exchanges)
			fmt.Fprintf(os.Stderr, "Usage: %s -exchanges binance,huobi,kraken\n", os.Args[0])
			os.Exit(1)
		}
	}
	if noPoll {
		pollExchanges = nil
	}

	adapters, err := drivers.NewAll(drivers.Options{
		BaseURLs:          cfg.Upstream.BaseURLs,
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		RequestTimeout:    cfg.Upstream.RequestTimeout,
	})
	if err != nil {
		logger.Fatalf("Failed to create exchange adapters: %v", err)
	}

	persister, err := storage.New(storage.Config{
		Driver:      cfg.Store.Driver,
		Endpoint:    cfg.Store.Endpoint,
		User:        cfg.Store.User,
		Password:    cfg.Store.Password,
		DSN:         cfg.DBDSN,
		Table:       cfg.Store.Table,
		KafkaBroker: cfg.KafkaPrice.Broker,
		KafkaTopic:  cfg.KafkaPrice.Topic,
	}, logger)
	if err != nil {
		logger.Fatalf("Failed to create price store: %v", err)
	}
	defer persister.Close()

	var history repository.PriceRepository
	if cfg.HistoryEnabled {
		db, err := gorm.Open(clickhouse.Open(cfg.DBDSN), &gorm.Config{})
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		history = repository.NewGormPriceRepository(db, cfg.Store.Table)
	}

	market := service.NewMarketService(adapters, persister, history, service.Config{
		TradeLimit:    cfg.Market.TradeLimit,
		BookDepth:     cfg.Market.BookDepth,
		PersistOnRead: cfg.Market.PersistOnRead,
	}, logger)

	server := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router.NewRouter(&router.Config{
			MarketHandler: handler.NewMarketHandler(market),
			Debug:         cfg.Debug,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Infof("Starting feeder: store=%s pollers=%v port=%s", cfg.Store.Driver, pollExchanges, cfg.ServerPort)

	err = crawler.RunWithGracefulShutdown(logger, func(ctx context.Context, wg *sync.WaitGroup, fail func(error)) {
		for _, ex := range pollExchanges {
			p := poller.New(adapters[ex], persister, logger,
				poller.WithPacer(poller.FixedPacer{Interval: cfg.Poll.Interval}))
			wg.Add(1)
			go func(ex models.Exchange) {
				defer wg.Done()
				p.Run(ctx)
				logger.WithField("exchange", ex).Infof("poller stats: %+v", p.Stats())
			}(ex)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serve(ctx, server, logger); err != nil {
				fail(fmt.Errorf("HTTP server: %w", err))
			}
		}()
	})
	if err != nil {
		logger.Fatalf("Feeder failed: %v", err)
	}
	logger.Info("Feeder shutdown complete")
}

// serve runs the HTTP server until ctx is cancelled or the listener fails.
func serve(ctx context.Context, server *http.Server, logger *logrus.Logger) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("HTTP server shutdown: %v", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
