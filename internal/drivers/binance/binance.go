// Package binance adapts the Binance spot REST API.
package binance

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/navid-fn/pricefeed/internal/crawler"
	"github.com/navid-fn/pricefeed/internal/errs"
	"github.com/navid-fn/pricefeed/internal/models"
)

type Binance struct {
	client *crawler.Client
}

func New(config *crawler.HTTPConfig) *Binance {
	return &Binance{client: crawler.NewClient(models.Binance, config)}
}

func (b *Binance) Name() models.Exchange { return models.Binance }

func (b *Binance) FetchPrice(ctx context.Context) (models.PriceQuote, error) {
	var ticker tickerPrice
	err := b.client.GetJSON(ctx, "price", tickerPricePath, url.Values{"symbol": {symbol}}, &ticker)
	if err != nil {
		return models.PriceQuote{}, err
	}
	observedAt := crawler.Now()

	if ticker.Price == "" {
		return models.PriceQuote{}, errs.Newf(errs.SchemaMismatch, "binance", "price", "missing price field")
	}

	return models.PriceQuote{Price: ticker.Price, ObservedAt: observedAt}, nil
}

func (b *Binance) FetchRecentTrades(ctx context.Context, limit int) ([]models.Trade, error) {
	if limit <= 0 {
		return []models.Trade{}, nil
	}

	query := url.Values{
		"symbol": {symbol},
		"limit":  {strconv.Itoa(min(limit, maxTradesLimit))},
	}

	var raw []recentTrade
	if err := b.client.GetJSON(ctx, "trades", tradesPath, query, &raw); err != nil {
		return nil, err
	}

	raw = crawler.Head(raw, limit)
	trades := make([]models.Trade, 0, len(raw))
	for _, t := range raw {
		trades = append(trades, models.Trade{
			ID:        t.ID.String(),
			Price:     t.Price,
			Quantity:  t.Qty,
			Side:      takerSide(t.IsBuyerMaker),
			Timestamp: time.UnixMilli(t.Time).UTC(),
		})
	}
	return trades, nil
}

func (b *Binance) FetchOrderBook(ctx context.Context, depth int) (models.OrderBookSide, models.OrderBookSide, error) {
	if depth <= 0 {
		return models.OrderBookSide{}, models.OrderBookSide{}, nil
	}

	query := url.Values{
		"symbol": {symbol},
		"limit":  {strconv.Itoa(crawler.RoundUpLimit(depth, depthLimits))},
	}

	var book orderBook
	if err := b.client.GetJSON(ctx, "orderbook", depthPath, query, &book); err != nil {
		return nil, nil, err
	}

	bids, err := crawler.ToLevels(book.Bids, depth)
	if err != nil {
		return nil, nil, errs.New(errs.SchemaMismatch, "binance", "orderbook", err)
	}
	asks, err := crawler.ToLevels(book.Asks, depth)
	if err != nil {
		return nil, nil, errs.New(errs.SchemaMismatch, "binance", "orderbook", err)
	}
	return bids, asks, nil
}

// A buyer-maker trade was initiated by the seller.
func takerSide(isBuyerMaker *bool) models.Side {
	switch {
	case isBuyerMaker == nil:
		return models.SideUnknown
	case *isBuyerMaker:
		return models.SideSell
	default:
		return models.SideBuy
	}
}
