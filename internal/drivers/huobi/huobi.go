// Package huobi adapts the Huobi (HTX) spot market REST API.
// Huobi has no last-price endpoint, so the price is the newest trade.
package huobi

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/navid-fn/pricefeed/internal/crawler"
	"github.com/navid-fn/pricefeed/internal/errs"
	"github.com/navid-fn/pricefeed/internal/models"
)

type Huobi struct {
	client *crawler.Client
}

func New(config *crawler.HTTPConfig) *Huobi {
	return &Huobi{client: crawler.NewClient(models.Huobi, config)}
}

func (h *Huobi) Name() models.Exchange { return models.Huobi }

func (h *Huobi) FetchPrice(ctx context.Context) (models.PriceQuote, error) {
	var resp lastTradeResponse
	if err := h.client.GetJSON(ctx, "price", lastTradePath, url.Values{"symbol": {symbol}}, &resp); err != nil {
		return models.PriceQuote{}, err
	}
	observedAt := crawler.Now()

	if err := resp.check("price"); err != nil {
		return models.PriceQuote{}, err
	}
	if resp.Tick == nil {
		return models.PriceQuote{}, errs.Newf(errs.SchemaMismatch, "huobi", "price", "missing tick")
	}
	if len(resp.Tick.Data) == 0 {
		return models.PriceQuote{}, errs.Newf(errs.EmptyResult, "huobi", "price", "no trades in tick")
	}

	price := resp.Tick.Data[0].Price.String()
	if price == "" {
		return models.PriceQuote{}, errs.Newf(errs.SchemaMismatch, "huobi", "price", "missing price field")
	}
	return models.PriceQuote{Price: price, ObservedAt: observedAt}, nil
}

func (h *Huobi) FetchRecentTrades(ctx context.Context, limit int) ([]models.Trade, error) {
	if limit <= 0 {
		return []models.Trade{}, nil
	}
	limit = min(limit, maxHistorySize)

	query := url.Values{
		"symbol": {symbol},
		"size":   {strconv.Itoa(limit)},
	}

	var resp historyTradeResponse
	if err := h.client.GetJSON(ctx, "trades", historyTradePath, query, &resp); err != nil {
		return nil, err
	}
	if err := resp.check("trades"); err != nil {
		return nil, err
	}

	// each tick groups the trades of one match, newest tick first
	trades := make([]models.Trade, 0, limit)
	for _, tick := range resp.Data {
		for _, t := range tick.Data {
			if len(trades) == limit {
				return trades, nil
			}
			trades = append(trades, toTrade(t))
		}
	}
	return trades, nil
}

func (h *Huobi) FetchOrderBook(ctx context.Context, depth int) (models.OrderBookSide, models.OrderBookSide, error) {
	if depth <= 0 {
		return models.OrderBookSide{}, models.OrderBookSide{}, nil
	}

	query := url.Values{
		"symbol": {symbol},
		"type":   {"step0"},
		"depth":  {strconv.Itoa(crawler.RoundUpLimit(depth, depthLimits))},
	}

	var resp depthResponse
	if err := h.client.GetJSON(ctx, "orderbook", depthPath, query, &resp); err != nil {
		return nil, nil, err
	}
	if err := resp.check("orderbook"); err != nil {
		return nil, nil, err
	}
	if resp.Tick == nil {
		return nil, nil, errs.Newf(errs.SchemaMismatch, "huobi", "orderbook", "missing tick")
	}

	bids, err := crawler.ToLevels(resp.Tick.Bids, depth)
	if err != nil {
		return nil, nil, errs.New(errs.SchemaMismatch, "huobi", "orderbook", err)
	}
	asks, err := crawler.ToLevels(resp.Tick.Asks, depth)
	if err != nil {
		return nil, nil, errs.New(errs.SchemaMismatch, "huobi", "orderbook", err)
	}
	return bids, asks, nil
}

func toTrade(t tradeData) models.Trade {
	id := t.TradeID
	if id == "" {
		id = t.ID
	}
	return models.Trade{
		ID:        id.String(),
		Price:     t.Price.String(),
		Quantity:  t.Amount.String(),
		Side:      parseDirection(t.Direction),
		Timestamp: time.UnixMilli(t.Ts).UTC(),
	}
}

func parseDirection(direction string) models.Side {
	switch direction {
	case "buy":
		return models.SideBuy
	case "sell":
		return models.SideSell
	default:
		return models.SideUnknown
	}
}
