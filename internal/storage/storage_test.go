package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navid-fn/pricefeed/internal/errs"
	"github.com/navid-fn/pricefeed/internal/models"
)

var testRow = models.PriceRow{
	Exchange:  models.Binance,
	Timestamp: time.Date(2024, 3, 1, 12, 30, 45, 123456789, time.UTC),
	Price:     "67000.50",
}

func TestInsertStatement(t *testing.T) {
	stmt, err := InsertStatement("btc_price", testRow)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO btc_price (exchange, timestamp, price) VALUES ('binance', '2024-03-01 12:30:45', 67000.50)", stmt)
}

func TestInsertStatementRejects(t *testing.T) {
	tests := []struct {
		name  string
		table string
		row   models.PriceRow
	}{
		{"injected price", "btc_price", models.PriceRow{Exchange: models.Huobi, Timestamp: testRow.Timestamp, Price: "1); DROP TABLE btc_price; --"}},
		{"empty price", "btc_price", models.PriceRow{Exchange: models.Huobi, Timestamp: testRow.Timestamp}},
		{"zero timestamp", "btc_price", models.PriceRow{Exchange: models.Huobi, Price: "1"}},
		{"unknown exchange", "btc_price", models.PriceRow{Exchange: "x'", Timestamp: testRow.Timestamp, Price: "1"}},
		{"bad table", "btc_price; DROP", testRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InsertStatement(tt.table, tt.row)
			assert.Error(t, err)
		})
	}
}

func TestPriceLiteral(t *testing.T) {
	lit, d, err := priceLiteral("67000.50")
	require.NoError(t, err)
	assert.Equal(t, "67000.50", lit)
	assert.Equal(t, "67000.5", d.String())

	lit, _, err = priceLiteral("6.7e4")
	require.NoError(t, err)
	assert.Equal(t, "67000", lit)
}

func newTestHTTPPersister(t *testing.T, handler http.HandlerFunc) Persister {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger, _ := test.NewNullLogger()
	p, err := New(Config{Driver: DriverHTTP, Endpoint: srv.URL + "/", Table: "btc_price"}, logger)
	require.NoError(t, err)
	return p
}

func TestHTTPPersisterSuccess(t *testing.T) {
	var gotBody, gotQueryID string
	p := newTestHTTPPersister(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotQueryID = r.URL.Query().Get("query_id")
		w.WriteHeader(http.StatusOK)
	})

	err := p.Persist(context.Background(), testRow)
	require.NoError(t, err)
	assert.Contains(t, gotBody, "INSERT INTO btc_price")
	assert.Contains(t, gotBody, "67000.50")
	assert.NotEmpty(t, gotQueryID)
}

func TestHTTPPersisterNonSuccessStatus(t *testing.T) {
	p := newTestHTTPPersister(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Code: 60. DB::Exception: Table default.btc_price does not exist."))
	})

	err := p.Persist(context.Background(), testRow)
	assert.True(t, errs.Is(err, errs.StorageWriteFailed), "got %v", err)
}

func TestHTTPPersisterTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	logger, _ := test.NewNullLogger()
	p, err := New(Config{Endpoint: srv.URL, Timeout: time.Second}, logger)
	require.NoError(t, err)

	err = p.Persist(context.Background(), testRow)
	assert.True(t, errs.Is(err, errs.StorageWriteFailed), "got %v", err)
}

func TestHTTPPersisterInvalidRowSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	p := newTestHTTPPersister(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	err := p.Persist(context.Background(), models.PriceRow{Exchange: models.Binance, Timestamp: testRow.Timestamp, Price: "n/a"})
	assert.True(t, errs.Is(err, errs.StorageWriteFailed))
	assert.Zero(t, calls.Load())
}

func TestHTTPPersisterConcurrentWrites(t *testing.T) {
	var calls atomic.Int32
	p := newTestHTTPPersister(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	var wg sync.WaitGroup
	for _, ex := range models.Exchanges {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(ex models.Exchange) {
				defer wg.Done()
				row := testRow
				row.Exchange = ex
				assert.NoError(t, p.Persist(context.Background(), row))
			}(ex)
		}
	}
	wg.Wait()

	assert.Equal(t, int32(30), calls.Load())
}

func TestNewUnknownDriver(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := New(Config{Driver: "parquet"}, logger)
	assert.Error(t, err)
}

func TestNewInvalidTable(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := New(Config{Table: "prices;"}, logger)
	assert.Error(t, err)
}

func TestNewKafkaPersisterRequiresTopic(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := New(Config{Driver: DriverKafka, KafkaBroker: "localhost:9092"}, logger)
	assert.Error(t, err)
}

func TestNewPriceMessage(t *testing.T) {
	msg, err := newPriceMessage("btc_price", testRow)
	require.NoError(t, err)

	assert.Equal(t, "btc_price", *msg.TopicPartition.Topic)
	assert.Equal(t, "binance", string(msg.Key))

	var decoded PriceMessage
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, PriceMessage{Exchange: "binance", Timestamp: "2024-03-01 12:30:45", Price: "67000.50"}, decoded)

	_, err = newPriceMessage("btc_price", models.PriceRow{Exchange: models.Binance, Timestamp: testRow.Timestamp, Price: "abc"})
	assert.Error(t, err)
}

func TestDecodePriceMessage(t *testing.T) {
	msg, err := newPriceMessage("btc_price", testRow)
	require.NoError(t, err)

	row, err := DecodePriceMessage(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, models.Binance, row.Exchange)
	assert.Equal(t, "67000.50", row.Price)
	assert.Equal(t, testRow.Timestamp.Truncate(time.Second), row.Timestamp)

	bad := []string{
		`not json`,
		`{"exchange":"ftx","timestamp":"2024-03-01 12:30:45","price":"1"}`,
		`{"exchange":"kraken","timestamp":"2024-03-01T12:30:45Z","price":"1"}`,
		`{"exchange":"kraken","timestamp":"2024-03-01 12:30:45","price":"one"}`,
	}
	for _, value := range bad {
		_, err := DecodePriceMessage([]byte(value))
		assert.Error(t, err, value)
	}
}
