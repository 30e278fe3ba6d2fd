package kraken

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/navid-fn/pricefeed/internal/errs"
)

const (
	BaseURL = "https://api.kraken.com"

	// Kraken's legacy name for BTC/USD
	pair = "XXBTZUSD"

	tickerPath = "/0/public/Ticker"
	tradesPath = "/0/public/Trades"
	depthPath  = "/0/public/Depth"

	maxCount = 1000
)

// response is the envelope of every public endpoint; result is keyed by pair.
type response struct {
	Error  []string                   `json:"error"`
	Result map[string]json.RawMessage `json:"result"`
}

func (r response) check(op string) error {
	if len(r.Error) > 0 {
		return errs.New(errs.UpstreamUnavailable, "kraken", op, fmt.Errorf("%s", strings.Join(r.Error, ",")))
	}
	return nil
}

type tickerInfo struct {
	// c is [last trade price, lot volume]
	C []string `json:"c"`
}

type depthInfo struct {
	Asks [][]json.Number `json:"asks"`
	Bids [][]json.Number `json:"bids"`
}

// parseUnixSeconds converts "1700000000.1234" into a UTC time without
// going through a float.
func parseUnixSeconds(s string) (time.Time, error) {
	whole, frac, _ := strings.Cut(s, ".")
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}

	var nsec int64
	if frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		frac += strings.Repeat("0", 9-len(frac))
		nsec, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
	}
	return time.Unix(sec, nsec).UTC(), nil
}
