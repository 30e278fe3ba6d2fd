package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/navid-fn/pricefeed/internal/models"
)

// MaxHistoryLimit caps a single history read.
const MaxHistoryLimit = 1000

// PriceRepository reads back the persisted price time-series.
type PriceRepository interface {
	// Latest returns up to limit rows for one exchange, newest first.
	Latest(ctx context.Context, exchange models.Exchange, limit int) ([]models.PriceRow, error)
}

// PriceWriter inserts rows in bulk.
type PriceWriter interface {
	CreatePrices(ctx context.Context, rows []models.PriceRow) error
}

// priceRecord is the insert shape; the column is Decimal so the price is bound
// as a decimal rather than text.
type priceRecord struct {
	Exchange  string          `gorm:"column:exchange"`
	Timestamp time.Time       `gorm:"column:timestamp"`
	Price     decimal.Decimal `gorm:"column:price"`
}

// GormPriceRepository implements both PriceRepository and PriceWriter.
type GormPriceRepository struct {
	db    *gorm.DB
	table string
}

func NewGormPriceRepository(db *gorm.DB, table string) *GormPriceRepository {
	return &GormPriceRepository{db: db, table: table}
}

func (r *GormPriceRepository) Latest(ctx context.Context, exchange models.Exchange, limit int) ([]models.PriceRow, error) {
	rows := []models.PriceRow{}
	if limit <= 0 {
		return rows, nil
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	// Decimal columns come back as text so the row keeps an exact price string.
	err := r.db.WithContext(ctx).
		Table(r.table).
		Select("exchange, timestamp, toString(price) AS price").
		Where("exchange = ?", exchange.String()).
		Order("timestamp DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query %s history: %w", exchange, err)
	}
	return rows, nil
}

func (r *GormPriceRepository) CreatePrices(ctx context.Context, rows []models.PriceRow) error {
	if len(rows) == 0 {
		return nil
	}

	records, err := toRecords(rows)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Table(r.table).Create(&records).Error
}

func toRecords(rows []models.PriceRow) ([]priceRecord, error) {
	records := make([]priceRecord, 0, len(rows))
	for _, row := range rows {
		price, err := decimal.NewFromString(row.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q for %s: %w", row.Price, row.Exchange, err)
		}
		records = append(records, priceRecord{
			Exchange:  row.Exchange.String(),
			Timestamp: row.Timestamp.UTC(),
			Price:     price,
		})
	}
	return records, nil
}
