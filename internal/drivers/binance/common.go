package binance

import "encoding/json"

const (
	BaseURL = "https://api.binance.com"

	symbol = "BTCUSDT"

	tickerPricePath = "/api/v3/ticker/price"
	tradesPath      = "/api/v3/trades"
	depthPath       = "/api/v3/depth"

	maxTradesLimit = 1000
)

// depth limits the /api/v3/depth endpoint accepts
var depthLimits = []int{5, 10, 20, 50, 100, 500, 1000, 5000}

type tickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type recentTrade struct {
	ID           json.Number `json:"id"`
	Price        string      `json:"price"`
	Qty          string      `json:"qty"`
	Time         int64       `json:"time"`
	IsBuyerMaker *bool       `json:"isBuyerMaker"`
}

type orderBook struct {
	LastUpdateID int64           `json:"lastUpdateId"`
	Bids         [][]json.Number `json:"bids"`
	Asks         [][]json.Number `json:"asks"`
}
