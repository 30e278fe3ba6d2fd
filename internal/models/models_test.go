package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeJSONRoundTrip(t *testing.T) {
	trades := []Trade{
		{ID: "28457", Price: "67000.50", Quantity: "0.0012", Side: SideBuy, Timestamp: time.UnixMilli(1700000000123).UTC()},
		{ID: "102", Price: "66999.9", Quantity: "1", Side: SideSell, Timestamp: time.UnixMilli(1700000001000).UTC()},
		{ID: "7", Price: "1", Quantity: "2", Side: SideUnknown, Timestamp: time.Unix(1700000002, 500).UTC()},
	}

	for _, in := range trades {
		data, err := json.Marshal(in)
		require.NoError(t, err)

		var out Trade
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, in, out)

		again, err := json.Marshal(out)
		require.NoError(t, err)
		assert.JSONEq(t, string(data), string(again))
	}
}

func TestTradeJSONShape(t *testing.T) {
	tr := Trade{ID: "1", Price: "10", Quantity: "2", Side: SideSell, Timestamp: time.Unix(0, 0).UTC()}
	data, err := json.Marshal(tr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","price":"10","quantity":"2","side":"sell","timestamp":"1970-01-01T00:00:00Z"}`, string(data))
}

func TestSideUnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    Side
		wantErr bool
	}{
		{"buy", SideBuy, false},
		{"sell", SideSell, false},
		{"unknown", SideUnknown, false},
		{"b", SideUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var s Side
			err := s.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestParseExchange(t *testing.T) {
	ex, err := ParseExchange(" Kraken ")
	require.NoError(t, err)
	assert.Equal(t, Kraken, ex)

	_, err = ParseExchange("coinbase")
	assert.Error(t, err)
}

func TestQuoteJSONShape(t *testing.T) {
	q := PriceQuote{Price: "67000.50", ObservedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":"67000.50","observed_at":"2024-03-01T12:00:00Z"}`, string(data))
}
