package crawler

import (
	"encoding/json"
	"fmt"

	"github.com/navid-fn/pricefeed/internal/models"
)

// ToLevels converts [price, quantity, ...] tuples into at most depth levels,
// keeping upstream order. Extra tuple members (timestamps) are ignored.
func ToLevels(raw [][]json.Number, depth int) (models.OrderBookSide, error) {
	raw = Head(raw, depth)
	side := make(models.OrderBookSide, 0, len(raw))
	for i, level := range raw {
		if len(level) < 2 {
			return nil, fmt.Errorf("level %d has %d fields", i, len(level))
		}
		side = append(side, models.OrderBookLevel{
			Price:    level[0].String(),
			Quantity: level[1].String(),
		})
	}
	return side, nil
}

// RoundUpLimit returns the smallest supported value >= n, or the largest
// supported value when n exceeds all of them. supported must be ascending.
func RoundUpLimit(n int, supported []int) int {
	for _, s := range supported {
		if n <= s {
			return s
		}
	}
	return supported[len(supported)-1]
}
