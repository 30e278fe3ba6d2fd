package huobi

import (
	"encoding/json"
	"fmt"

	"github.com/navid-fn/pricefeed/internal/errs"
)

const (
	BaseURL = "https://api.huobi.pro"

	symbol = "btcusdt"

	lastTradePath    = "/market/trade"
	historyTradePath = "/market/history/trade"
	depthPath        = "/market/depth"

	maxHistorySize = 2000
	statusOK       = "ok"
)

var depthLimits = []int{5, 10, 20}

// envelope is shared by every market endpoint.
type envelope struct {
	Status  string `json:"status"`
	ErrCode string `json:"err-code"`
	ErrMsg  string `json:"err-msg"`
}

func (e envelope) check(op string) error {
	if e.Status != statusOK {
		return errs.New(errs.UpstreamUnavailable, "huobi", op, fmt.Errorf("status %q: %s %s", e.Status, e.ErrCode, e.ErrMsg))
	}
	return nil
}

type tradeData struct {
	ID        json.Number `json:"id"`
	TradeID   json.Number `json:"trade-id"`
	Ts        int64       `json:"ts"`
	Price     json.Number `json:"price"`
	Amount    json.Number `json:"amount"`
	Direction string      `json:"direction"`
}

type tradeTick struct {
	ID   json.Number `json:"id"`
	Ts   int64       `json:"ts"`
	Data []tradeData `json:"data"`
}

type lastTradeResponse struct {
	envelope
	Tick *tradeTick `json:"tick"`
}

type historyTradeResponse struct {
	envelope
	Data []tradeTick `json:"data"`
}

type depthTick struct {
	Ts   int64           `json:"ts"`
	Bids [][]json.Number `json:"bids"`
	Asks [][]json.Number `json:"asks"`
}

type depthResponse struct {
	envelope
	Tick *depthTick `json:"tick"`
}
