// Package kraken adapts the Kraken public REST API.
package kraken

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/navid-fn/pricefeed/internal/crawler"
	"github.com/navid-fn/pricefeed/internal/errs"
	"github.com/navid-fn/pricefeed/internal/models"
)

type Kraken struct {
	client *crawler.Client
}

func New(config *crawler.HTTPConfig) *Kraken {
	return &Kraken{client: crawler.NewClient(models.Kraken, config)}
}

func (k *Kraken) Name() models.Exchange { return models.Kraken }

func (k *Kraken) FetchPrice(ctx context.Context) (models.PriceQuote, error) {
	var resp response
	if err := k.client.GetJSON(ctx, "price", tickerPath, url.Values{"pair": {pair}}, &resp); err != nil {
		return models.PriceQuote{}, err
	}
	observedAt := crawler.Now()

	if err := resp.check("price"); err != nil {
		return models.PriceQuote{}, err
	}

	raw, ok := resp.Result[pair]
	if !ok {
		return models.PriceQuote{}, errs.Newf(errs.EmptyResult, "kraken", "price", "pair %s not in result", pair)
	}

	var info tickerInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return models.PriceQuote{}, errs.New(errs.SchemaMismatch, "kraken", "price", err)
	}
	if len(info.C) == 0 || info.C[0] == "" {
		return models.PriceQuote{}, errs.Newf(errs.EmptyResult, "kraken", "price", "no last trade")
	}

	return models.PriceQuote{Price: info.C[0], ObservedAt: observedAt}, nil
}

func (k *Kraken) FetchRecentTrades(ctx context.Context, limit int) ([]models.Trade, error) {
	if limit <= 0 {
		return []models.Trade{}, nil
	}

	query := url.Values{
		"pair":  {pair},
		"count": {strconv.Itoa(min(limit, maxCount))},
	}

	var resp response
	if err := k.client.GetJSON(ctx, "trades", tradesPath, query, &resp); err != nil {
		return nil, err
	}
	if err := resp.check("trades"); err != nil {
		return nil, err
	}

	raw, ok := resp.Result[pair]
	if !ok {
		return nil, errs.Newf(errs.SchemaMismatch, "kraken", "trades", "pair %s not in result", pair)
	}

	// [price, volume, time, side, order type, misc, trade id]
	var rows [][]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&rows); err != nil {
		return nil, errs.New(errs.SchemaMismatch, "kraken", "trades", err)
	}

	rows = crawler.Head(rows, limit)
	trades := make([]models.Trade, 0, len(rows))
	for i, row := range rows {
		t, err := toTrade(row)
		if err != nil {
			return nil, errs.New(errs.SchemaMismatch, "kraken", "trades", fmt.Errorf("row %d: %w", i, err))
		}
		trades = append(trades, t)
	}
	return trades, nil
}

func (k *Kraken) FetchOrderBook(ctx context.Context, depth int) (models.OrderBookSide, models.OrderBookSide, error) {
	if depth <= 0 {
		return models.OrderBookSide{}, models.OrderBookSide{}, nil
	}

	query := url.Values{
		"pair":  {pair},
		"count": {strconv.Itoa(min(depth, maxCount))},
	}

	var resp response
	if err := k.client.GetJSON(ctx, "orderbook", depthPath, query, &resp); err != nil {
		return nil, nil, err
	}
	if err := resp.check("orderbook"); err != nil {
		return nil, nil, err
	}

	raw, ok := resp.Result[pair]
	if !ok {
		return nil, nil, errs.Newf(errs.SchemaMismatch, "kraken", "orderbook", "pair %s not in result", pair)
	}

	var info depthInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, nil, errs.New(errs.SchemaMismatch, "kraken", "orderbook", err)
	}

	bids, err := crawler.ToLevels(info.Bids, depth)
	if err != nil {
		return nil, nil, errs.New(errs.SchemaMismatch, "kraken", "orderbook", err)
	}
	asks, err := crawler.ToLevels(info.Asks, depth)
	if err != nil {
		return nil, nil, errs.New(errs.SchemaMismatch, "kraken", "orderbook", err)
	}
	return bids, asks, nil
}

func toTrade(row []any) (models.Trade, error) {
	if len(row) < 4 {
		return models.Trade{}, fmt.Errorf("expected at least 4 fields, got %d", len(row))
	}

	price, ok := row[0].(string)
	if !ok {
		return models.Trade{}, fmt.Errorf("price is %T", row[0])
	}
	volume, ok := row[1].(string)
	if !ok {
		return models.Trade{}, fmt.Errorf("volume is %T", row[1])
	}
	ts, err := parseUnixSeconds(fmt.Sprint(row[2]))
	if err != nil {
		return models.Trade{}, err
	}
	side, _ := row[3].(string)

	var id string
	if len(row) > 6 {
		id = fmt.Sprint(row[6])
	}

	return models.Trade{
		ID:        id,
		Price:     price,
		Quantity:  volume,
		Side:      parseSide(side),
		Timestamp: ts,
	}, nil
}

func parseSide(code string) models.Side {
	switch code {
	case "b":
		return models.SideBuy
	case "s":
		return models.SideSell
	default:
		return models.SideUnknown
	}
}
