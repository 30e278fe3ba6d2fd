// Package service is the synchronous read path over the exchange adapters.
package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/navid-fn/pricefeed/internal/crawler"
	"github.com/navid-fn/pricefeed/internal/errs"
	"github.com/navid-fn/pricefeed/internal/models"
	"github.com/navid-fn/pricefeed/internal/repository"
	"github.com/navid-fn/pricefeed/internal/storage"
)

const (
	DefaultTradeLimit   = 20
	DefaultBookDepth    = 10
	DefaultHistoryLimit = 100

	// Upper bounds on caller-chosen sizes.
	MaxTradeLimit = 1000
	MaxBookDepth  = 1000
)

type Config struct {
	// TradeLimit and BookDepth apply when a caller passes no explicit size.
	TradeLimit int
	BookDepth  int

	// PersistOnRead lists exchanges whose price reads are also written to the store.
	PersistOnRead []models.Exchange
}

type priceOptions struct {
	persist bool
}

type PriceOption func(*priceOptions)

// WithPersist writes the quote to the store before Price returns.
// A store failure is logged and does not change the result.
func WithPersist() PriceOption {
	return func(o *priceOptions) { o.persist = true }
}

// MarketService holds no state between calls; every read goes upstream.
type MarketService struct {
	adapters      map[models.Exchange]crawler.Adapter
	persister     storage.Persister
	history       repository.PriceRepository
	tradeLimit    int
	bookDepth     int
	persistOnRead map[models.Exchange]bool
	logger        *logrus.Entry
}

// NewMarketService wires adapters to the read path. persister and history may be nil.
func NewMarketService(
	adapters map[models.Exchange]crawler.Adapter,
	persister storage.Persister,
	history repository.PriceRepository,
	cfg Config,
	logger *logrus.Logger,
) *MarketService {
	if cfg.TradeLimit <= 0 {
		cfg.TradeLimit = DefaultTradeLimit
	}
	if cfg.BookDepth <= 0 {
		cfg.BookDepth = DefaultBookDepth
	}
	cfg.TradeLimit = min(cfg.TradeLimit, MaxTradeLimit)
	cfg.BookDepth = min(cfg.BookDepth, MaxBookDepth)
	persistOnRead := make(map[models.Exchange]bool, len(cfg.PersistOnRead))
	for _, ex := range cfg.PersistOnRead {
		persistOnRead[ex] = true
	}

	return &MarketService{
		adapters:      adapters,
		persister:     persister,
		history:       history,
		tradeLimit:    cfg.TradeLimit,
		bookDepth:     cfg.BookDepth,
		persistOnRead: persistOnRead,
		logger:        logger.WithField("component", "market"),
	}
}

// ReadOptions returns the configured price options for exchange.
func (s *MarketService) ReadOptions(exchange models.Exchange) []PriceOption {
	if s.persistOnRead[exchange] {
		return []PriceOption{WithPersist()}
	}
	return nil
}

func (s *MarketService) adapter(exchange models.Exchange) (crawler.Adapter, error) {
	a, ok := s.adapters[exchange]
	if !ok || a == nil {
		return nil, errs.ErrUnknownExchange
	}
	return a, nil
}

// unavailable logs the underlying failure and hides it from the caller.
func (s *MarketService) unavailable(exchange models.Exchange, resource string, err error) error {
	s.logger.WithFields(logrus.Fields{
		"exchange": exchange,
		"resource": resource,
		"kind":     errs.KindOf(err),
	}).Errorf("upstream read failed: %v", err)
	return errs.ErrUnavailable
}

func (s *MarketService) Price(ctx context.Context, exchange models.Exchange, opts ...PriceOption) (models.PriceQuote, error) {
	a, err := s.adapter(exchange)
	if err != nil {
		return models.PriceQuote{}, err
	}

	var o priceOptions
	for _, opt := range opts {
		opt(&o)
	}

	quote, err := a.FetchPrice(ctx)
	if err != nil {
		return models.PriceQuote{}, s.unavailable(exchange, "price", err)
	}

	if o.persist && s.persister != nil {
		row := models.PriceRow{Exchange: exchange, Timestamp: quote.ObservedAt, Price: quote.Price}
		// The write should finish even if the caller goes away.
		if err := s.persister.Persist(context.WithoutCancel(ctx), row); err != nil {
			s.logger.WithField("exchange", exchange).Warnf("persist on read failed: %v", err)
		}
	}
	return quote, nil
}

// Trades returns up to limit recent trades; limit <= 0 means the configured default.
func (s *MarketService) Trades(ctx context.Context, exchange models.Exchange, limit int) ([]models.Trade, error) {
	a, err := s.adapter(exchange)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.tradeLimit
	}
	limit = min(limit, MaxTradeLimit)

	trades, err := a.FetchRecentTrades(ctx, limit)
	if err != nil {
		return nil, s.unavailable(exchange, "trades", err)
	}
	return trades, nil
}

func (s *MarketService) Bids(ctx context.Context, exchange models.Exchange, depth int) (models.OrderBookSide, error) {
	bids, _, err := s.book(ctx, exchange, "bids", depth)
	return bids, err
}

func (s *MarketService) Asks(ctx context.Context, exchange models.Exchange, depth int) (models.OrderBookSide, error) {
	_, asks, err := s.book(ctx, exchange, "asks", depth)
	return asks, err
}

func (s *MarketService) book(ctx context.Context, exchange models.Exchange, resource string, depth int) (models.OrderBookSide, models.OrderBookSide, error) {
	a, err := s.adapter(exchange)
	if err != nil {
		return nil, nil, err
	}
	if depth <= 0 {
		depth = s.bookDepth
	}
	depth = min(depth, MaxBookDepth)

	bids, asks, err := a.FetchOrderBook(ctx, depth)
	if err != nil {
		return nil, nil, s.unavailable(exchange, resource, err)
	}
	return bids, asks, nil
}

// History returns the latest persisted rows for exchange, newest first.
func (s *MarketService) History(ctx context.Context, exchange models.Exchange, limit int) ([]models.PriceRow, error) {
	if _, err := s.adapter(exchange); err != nil {
		return nil, err
	}
	if s.history == nil {
		return nil, errs.ErrUnavailable
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, repository.MaxHistoryLimit)

	rows, err := s.history.Latest(ctx, exchange, limit)
	if err != nil {
		return nil, s.unavailable(exchange, "history", err)
	}
	return rows, nil
}
