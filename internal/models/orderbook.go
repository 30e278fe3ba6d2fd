package models

// OrderBookLevel is one price level of an order book.
type OrderBookLevel struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// OrderBookSide holds levels exactly in upstream order, best price first.
type OrderBookSide []OrderBookLevel
