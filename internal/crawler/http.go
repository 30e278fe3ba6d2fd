package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/navid-fn/pricefeed/internal/errs"
	"github.com/navid-fn/pricefeed/internal/models"
)

type HTTPConfig struct {
	BaseURL        string
	RateLimiter    *rate.Limiter
	RequestTimeout time.Duration
}

func DefaultHTTPConfig(baseURL string, requestsPerSecond float64) *HTTPConfig {
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultRequestsPerSecond
	}
	return &HTTPConfig{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		RateLimiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), DefaultBurst),
		RequestTimeout: DefaultRequestTimeout,
	}
}

// Client issues unauthenticated GETs against one exchange and classifies
// every failure into an errs kind.
type Client struct {
	exchange   models.Exchange
	config     *HTTPConfig
	httpClient *http.Client
}

func NewClient(exchange models.Exchange, config *HTTPConfig) *Client {
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		exchange:   exchange,
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetJSON fetches path with the given query and decodes the body into out.
// Numbers decoded into interface values arrive as json.Number so that prices
// keep their exact upstream text.
func (c *Client) GetJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	ex := c.exchange.String()

	if c.config.RateLimiter != nil {
		if err := c.config.RateLimiter.Wait(ctx); err != nil {
			return errs.New(errs.UpstreamUnavailable, ex, op, fmt.Errorf("rate limiter: %w", err))
		}
	}

	target := c.config.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return errs.New(errs.UpstreamUnavailable, ex, op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.New(errs.UpstreamUnavailable, ex, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return errs.Newf(errs.UpstreamUnavailable, ex, op, "status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, MaxResponseBytes))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return errs.New(errs.SchemaMismatch, ex, op, err)
	}
	return nil
}

// Now is the receive timestamp stamped on quotes.
func Now() time.Time {
	return time.Now().UTC()
}
