package models

import "time"

// StoreTimeLayout is the DateTime literal layout the price table accepts.
const StoreTimeLayout = "2006-01-02 15:04:05"

// PriceQuote is the last traded price of the pair as seen by us.
type PriceQuote struct {
	// Price is the exact upstream text; never round-tripped through a float.
	Price string `json:"price"`

	// ObservedAt is the local UTC time the response was received.
	// Exchanges only report a last price here, not a server time.
	ObservedAt time.Time `json:"observed_at"`
}

// PriceRow is a single row of the price time-series.
type PriceRow struct {
	Exchange  Exchange  `json:"exchange" gorm:"column:exchange"`
	Timestamp time.Time `json:"timestamp" gorm:"column:timestamp"`
	Price     string    `json:"price" gorm:"column:price"`
}
