package models

import (
	"fmt"
	"time"
)

// Side is the taker direction of a trade.
type Side uint8

const (
	// SideUnknown covers absent or unrecognized upstream direction codes.
	SideUnknown Side = iota
	SideBuy
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	switch string(text) {
	case "buy":
		*s = SideBuy
	case "sell":
		*s = SideSell
	case "unknown", "":
		*s = SideUnknown
	default:
		return fmt.Errorf("invalid side %q", text)
	}
	return nil
}

// Trade is a single executed trade.
type Trade struct {
	ID        string    `json:"id"`
	Price     string    `json:"price"`
	Quantity  string    `json:"quantity"`
	Side      Side      `json:"side"`
	Timestamp time.Time `json:"timestamp"`
}
