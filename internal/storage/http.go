package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/navid-fn/pricefeed/internal/models"
)

// httpPersister posts textual INSERT statements to the ClickHouse HTTP interface.
type httpPersister struct {
	endpoint string
	table    string
	user     string
	password string
	client   *http.Client
	logger   *logrus.Entry
}

// NewHTTPPersister creates a Persister for the ClickHouse HTTP interface.
// A 2xx status is a successful write; anything else is a failure.
func NewHTTPPersister(cfg Config, logger *logrus.Logger) Persister {
	return &httpPersister{
		endpoint: cfg.Endpoint,
		table:    cfg.Table,
		user:     cfg.User,
		password: cfg.Password,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger.WithField("store", DriverHTTP),
	}
}

func (p *httpPersister) Persist(ctx context.Context, row models.PriceRow) error {
	stmt, err := InsertStatement(p.table, row)
	if err != nil {
		return writeFailed("persist", row, err)
	}

	target, err := url.Parse(p.endpoint)
	if err != nil {
		return writeFailed("persist", row, err)
	}
	queryID := uuid.NewString()
	q := target.Query()
	q.Set("query_id", queryID)
	target.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), strings.NewReader(stmt))
	if err != nil {
		return writeFailed("persist", row, err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if p.user != "" {
		req.Header.Set("X-ClickHouse-User", p.user)
		req.Header.Set("X-ClickHouse-Key", p.password)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return writeFailed("persist", row, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return writeFailed("persist", row, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}
	io.Copy(io.Discard, resp.Body)

	p.logger.WithFields(logrus.Fields{
		"exchange": row.Exchange,
		"query_id": queryID,
	}).Debug("price row inserted")
	return nil
}

func (p *httpPersister) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
