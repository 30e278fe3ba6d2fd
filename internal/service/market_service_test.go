package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navid-fn/pricefeed/internal/crawler"
	"github.com/navid-fn/pricefeed/internal/errs"
	"github.com/navid-fn/pricefeed/internal/models"
	"github.com/navid-fn/pricefeed/internal/repository"
)

type fakeAdapter struct {
	name   models.Exchange
	quote  models.PriceQuote
	trades []models.Trade
	bids   models.OrderBookSide
	asks   models.OrderBookSide
	err    error

	gotLimit int
	gotDepth int
}

func (f *fakeAdapter) Name() models.Exchange { return f.name }

func (f *fakeAdapter) FetchPrice(ctx context.Context) (models.PriceQuote, error) {
	return f.quote, f.err
}

func (f *fakeAdapter) FetchRecentTrades(ctx context.Context, limit int) ([]models.Trade, error) {
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return crawler.Head(f.trades, limit), nil
}

func (f *fakeAdapter) FetchOrderBook(ctx context.Context, depth int) (models.OrderBookSide, models.OrderBookSide, error) {
	f.gotDepth = depth
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.bids, f.asks, nil
}

type countingPersister struct {
	rows []models.PriceRow
	err  error
}

func (p *countingPersister) Persist(ctx context.Context, row models.PriceRow) error {
	p.rows = append(p.rows, row)
	return p.err
}

func (p *countingPersister) Close() error { return nil }

type fakeHistory struct {
	rows     []models.PriceRow
	err      error
	gotLimit int
}

func (h *fakeHistory) Latest(ctx context.Context, exchange models.Exchange, limit int) ([]models.PriceRow, error) {
	h.gotLimit = limit
	return h.rows, h.err
}

var observed = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, a *fakeAdapter, p *countingPersister, cfg Config) (*MarketService, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	adapters := map[models.Exchange]crawler.Adapter{a.name: a}
	return NewMarketService(adapters, p, nil, cfg, logger), hook
}

func TestUpstreamUnavailableCollapsesToUnavailable(t *testing.T) {
	a := &fakeAdapter{
		name: models.Binance,
		err:  errs.New(errs.UpstreamUnavailable, "binance", "price", errors.New("status 503")),
	}
	p := &countingPersister{}
	s, hook := newService(t, a, p, Config{})

	quote, err := s.Price(context.Background(), models.Binance, WithPersist())
	assert.Same(t, errs.ErrUnavailable, err)
	assert.Equal(t, models.PriceQuote{}, quote)
	assert.Empty(t, p.rows)

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, errs.UpstreamUnavailable, entry.Data["kind"])
}

func TestPriceWithoutPersist(t *testing.T) {
	a := &fakeAdapter{name: models.Huobi, quote: models.PriceQuote{Price: "67000.50", ObservedAt: observed}}
	p := &countingPersister{}
	s, _ := newService(t, a, p, Config{})

	quote, err := s.Price(context.Background(), models.Huobi)
	require.NoError(t, err)
	assert.Equal(t, "67000.50", quote.Price)
	assert.Empty(t, p.rows)
}

func TestPriceWithPersist(t *testing.T) {
	a := &fakeAdapter{name: models.Binance, quote: models.PriceQuote{Price: "67000.50", ObservedAt: observed}}
	p := &countingPersister{}
	s, _ := newService(t, a, p, Config{})

	_, err := s.Price(context.Background(), models.Binance, WithPersist())
	require.NoError(t, err)
	assert.Equal(t, []models.PriceRow{{Exchange: models.Binance, Timestamp: observed, Price: "67000.50"}}, p.rows)
}

func TestPersistFailureDoesNotChangeResponse(t *testing.T) {
	a := &fakeAdapter{name: models.Binance, quote: models.PriceQuote{Price: "67000.50", ObservedAt: observed}}
	p := &countingPersister{err: errs.Newf(errs.StorageWriteFailed, "binance", "persist", "status 500")}
	s, hook := newService(t, a, p, Config{})

	quote, err := s.Price(context.Background(), models.Binance, WithPersist())
	require.NoError(t, err)
	assert.Equal(t, a.quote, quote)
	assert.Len(t, p.rows, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestReadOptions(t *testing.T) {
	a := &fakeAdapter{name: models.Binance}
	s, _ := newService(t, a, &countingPersister{}, Config{PersistOnRead: []models.Exchange{models.Binance}})

	assert.Len(t, s.ReadOptions(models.Binance), 1)
	assert.Empty(t, s.ReadOptions(models.Kraken))
}

func TestUnknownExchange(t *testing.T) {
	s, _ := newService(t, &fakeAdapter{name: models.Binance}, &countingPersister{}, Config{})
	ctx := context.Background()

	_, err := s.Price(ctx, models.Kraken)
	assert.ErrorIs(t, err, errs.ErrUnknownExchange)
	_, err = s.Trades(ctx, "coinbase", 5)
	assert.ErrorIs(t, err, errs.ErrUnknownExchange)
	_, err = s.Bids(ctx, models.Huobi, 5)
	assert.ErrorIs(t, err, errs.ErrUnknownExchange)
	_, err = s.History(ctx, models.Huobi, 5)
	assert.ErrorIs(t, err, errs.ErrUnknownExchange)
}

func TestTradesDefaultLimit(t *testing.T) {
	trades := make([]models.Trade, 50)
	a := &fakeAdapter{name: models.Kraken, trades: trades}
	s, _ := newService(t, a, &countingPersister{}, Config{})

	got, err := s.Trades(context.Background(), models.Kraken, 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultTradeLimit)
	assert.Equal(t, DefaultTradeLimit, a.gotLimit)

	got, err = s.Trades(context.Background(), models.Kraken, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSizesAreCapped(t *testing.T) {
	a := &fakeAdapter{name: models.Huobi}
	s, _ := newService(t, a, &countingPersister{}, Config{})

	_, err := s.Trades(context.Background(), models.Huobi, 1<<34)
	require.NoError(t, err)
	assert.Equal(t, MaxTradeLimit, a.gotLimit)

	_, err = s.Bids(context.Background(), models.Huobi, 1<<34)
	require.NoError(t, err)
	assert.Equal(t, MaxBookDepth, a.gotDepth)

	h := &fakeHistory{}
	logger, _ := test.NewNullLogger()
	s = NewMarketService(map[models.Exchange]crawler.Adapter{models.Huobi: a}, nil, h, Config{}, logger)
	_, err = s.History(context.Background(), models.Huobi, 1<<34)
	require.NoError(t, err)
	assert.Equal(t, repository.MaxHistoryLimit, h.gotLimit)
}

func TestBidsAsks(t *testing.T) {
	a := &fakeAdapter{
		name: models.Huobi,
		bids: models.OrderBookSide{{Price: "100", Quantity: "1"}, {Price: "99", Quantity: "2"}},
		asks: models.OrderBookSide{{Price: "101", Quantity: "3"}},
	}
	s, _ := newService(t, a, &countingPersister{}, Config{BookDepth: 5})

	bids, err := s.Bids(context.Background(), models.Huobi, 0)
	require.NoError(t, err)
	assert.Equal(t, a.bids, bids)
	assert.Equal(t, 5, a.gotDepth)

	asks, err := s.Asks(context.Background(), models.Huobi, 20)
	require.NoError(t, err)
	assert.Equal(t, a.asks, asks)
	assert.Equal(t, 20, a.gotDepth)
}

func TestBookFailure(t *testing.T) {
	a := &fakeAdapter{name: models.Kraken, err: errs.Newf(errs.SchemaMismatch, "kraken", "book", "bad level")}
	s, _ := newService(t, a, &countingPersister{}, Config{})

	_, err := s.Asks(context.Background(), models.Kraken, 10)
	assert.Same(t, errs.ErrUnavailable, err)
}

func TestHistory(t *testing.T) {
	logger, _ := test.NewNullLogger()
	adapters := map[models.Exchange]crawler.Adapter{models.Binance: &fakeAdapter{name: models.Binance}}
	rows := []models.PriceRow{{Exchange: models.Binance, Timestamp: observed, Price: "1"}}

	s := NewMarketService(adapters, nil, nil, Config{}, logger)
	_, err := s.History(context.Background(), models.Binance, 10)
	assert.Same(t, errs.ErrUnavailable, err)

	s = NewMarketService(adapters, nil, &fakeHistory{rows: rows}, Config{}, logger)
	got, err := s.History(context.Background(), models.Binance, 10)
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	s = NewMarketService(adapters, nil, &fakeHistory{err: errors.New("connection refused")}, Config{}, logger)
	_, err = s.History(context.Background(), models.Binance, 10)
	assert.Same(t, errs.ErrUnavailable, err)
}
