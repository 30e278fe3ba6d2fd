// Package drivers wires the per-exchange adapters together.
package drivers

import (
	"fmt"
	"time"

	"github.com/navid-fn/pricefeed/internal/crawler"
	"github.com/navid-fn/pricefeed/internal/drivers/binance"
	"github.com/navid-fn/pricefeed/internal/drivers/huobi"
	"github.com/navid-fn/pricefeed/internal/drivers/kraken"
	"github.com/navid-fn/pricefeed/internal/models"
)

// Options tune the HTTP behaviour of every adapter.
type Options struct {
	// BaseURLs overrides the public API root per exchange. Missing entries use
	// the exchange default.
	BaseURLs          map[models.Exchange]string
	RequestsPerSecond float64
	RequestTimeout    time.Duration
}

var defaultBaseURLs = map[models.Exchange]string{
	models.Binance: binance.BaseURL,
	models.Huobi:   huobi.BaseURL,
	models.Kraken:  kraken.BaseURL,
}

// New builds one adapter for the given exchange. Each adapter gets its own
// rate limiter.
func New(exchange models.Exchange, opts Options) (crawler.Adapter, error) {
	baseURL := opts.BaseURLs[exchange]
	if baseURL == "" {
		baseURL = defaultBaseURLs[exchange]
	}

	config := crawler.DefaultHTTPConfig(baseURL, opts.RequestsPerSecond)
	if opts.RequestTimeout > 0 {
		config.RequestTimeout = opts.RequestTimeout
	}

	switch exchange {
	case models.Binance:
		return binance.New(config), nil
	case models.Huobi:
		return huobi.New(config), nil
	case models.Kraken:
		return kraken.New(config), nil
	default:
		return nil, fmt.Errorf("no adapter for exchange %q", exchange)
	}
}

// NewAll builds adapters for the given exchanges, or for every supported
// exchange when none are named.
func NewAll(opts Options, exchanges ...models.Exchange) (map[models.Exchange]crawler.Adapter, error) {
	if len(exchanges) == 0 {
		exchanges = models.Exchanges
	}
	adapters := make(map[models.Exchange]crawler.Adapter, len(exchanges))
	for _, ex := range exchanges {
		adapter, err := New(ex, opts)
		if err != nil {
			return nil, err
		}
		adapters[ex] = adapter
	}
	return adapters, nil
}
