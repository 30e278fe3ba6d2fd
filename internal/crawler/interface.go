package crawler

import (
	"context"

	"github.com/navid-fn/pricefeed/internal/models"
)

// Adapter translates one exchange's REST schema into canonical records.
// Only models values cross this boundary. Implementations never retry and
// hold no state beyond their HTTP client, so they are safe for concurrent use
// by the poller and by request handlers.
type Adapter interface {
	Name() models.Exchange

	// FetchPrice returns the last traded price stamped with the local receive time.
	FetchPrice(ctx context.Context) (models.PriceQuote, error)

	// FetchRecentTrades returns at most limit trades in upstream order.
	FetchRecentTrades(ctx context.Context, limit int) ([]models.Trade, error)

	// FetchOrderBook returns the top depth levels of each side in upstream order.
	FetchOrderBook(ctx context.Context, depth int) (bids, asks models.OrderBookSide, err error)
}

// PriceFetcher is the slice of Adapter the poller needs.
type PriceFetcher interface {
	Name() models.Exchange
	FetchPrice(ctx context.Context) (models.PriceQuote, error)
}
