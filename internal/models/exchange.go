// Package models defines the canonical records every exchange adapter produces.
// Nothing in here knows about any exchange's wire format.
package models

import (
	"fmt"
	"strings"
)

// Exchange is an opaque exchange tag.
type Exchange string

const (
	Binance Exchange = "binance"
	Huobi   Exchange = "huobi"
	Kraken  Exchange = "kraken"
)

// Exchanges lists every supported exchange in a stable order.
var Exchanges = []Exchange{Binance, Huobi, Kraken}

func (e Exchange) String() string { return string(e) }

// ParseExchange maps a case-insensitive name to its tag.
func ParseExchange(name string) (Exchange, error) {
	ex := Exchange(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Exchanges {
		if ex == known {
			return ex, nil
		}
	}
	return "", fmt.Errorf("unknown exchange %q", name)
}
