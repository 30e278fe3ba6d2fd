// Package poller samples one exchange's price on a fixed cadence and writes
// each sample to the store.
package poller

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/navid-fn/pricefeed/internal/crawler"
	"github.com/navid-fn/pricefeed/internal/errs"
	"github.com/navid-fn/pricefeed/internal/models"
	"github.com/navid-fn/pricefeed/internal/storage"
)

const DefaultInterval = 2 * time.Second

// Pacer decides how long to pause between ticks.
type Pacer interface {
	// Wait blocks until the next tick is due. It returns ctx.Err() if ctx
	// is cancelled first.
	Wait(ctx context.Context) error
}

// FixedPacer pauses for the same interval after every tick.
type FixedPacer struct {
	Interval time.Duration
}

func (p FixedPacer) Wait(ctx context.Context) error {
	timer := time.NewTimer(p.Interval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FailureHandler is told about every failed tick. It must not block.
type FailureHandler func(exchange models.Exchange, err error)

// Stats are counters since the poller was created.
type Stats struct {
	Ticks    uint64
	Persists uint64
	Failures uint64
}

type Option func(*Poller)

// WithPacer replaces the default two second pause.
func WithPacer(p Pacer) Option {
	return func(pl *Poller) { pl.pacer = p }
}

// WithFailureHandler replaces the default warning log.
func WithFailureHandler(h FailureHandler) Option {
	return func(pl *Poller) { pl.onFailure = h }
}

// Poller runs fetch, validate, persist, pause for a single exchange.
// Ticks are strictly sequential; a Poller is not meant to be shared.
type Poller struct {
	fetcher   crawler.PriceFetcher
	persister storage.Persister
	pacer     Pacer
	onFailure FailureHandler
	logger    *logrus.Entry

	last time.Time

	ticks    atomic.Uint64
	persists atomic.Uint64
	failures atomic.Uint64
}

func New(fetcher crawler.PriceFetcher, persister storage.Persister, logger *logrus.Logger, opts ...Option) *Poller {
	p := &Poller{
		fetcher:   fetcher,
		persister: persister,
		pacer:     FixedPacer{Interval: DefaultInterval},
		logger:    logger.WithField("exchange", fetcher.Name()),
	}
	p.onFailure = func(exchange models.Exchange, err error) {
		p.logger.WithField("kind", errs.KindOf(err)).Warnf("tick failed: %v", err)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run ticks until ctx is cancelled. Failures never stop the loop.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("poller started")
	defer p.logger.Info("poller stopped")

	for {
		if err := p.Tick(ctx); err != nil {
			p.failures.Add(1)
			p.onFailure(p.fetcher.Name(), err)
		}
		if err := p.pacer.Wait(ctx); err != nil {
			return
		}
	}
}

// Tick performs a single fetch and persist. A panic inside the tick is
// converted to an error.
func (p *Poller) Tick(ctx context.Context) (err error) {
	p.ticks.Add(1)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panic: %v", r)
		}
	}()

	quote, err := p.fetcher.FetchPrice(ctx)
	if err != nil {
		return err
	}

	ts, err := p.validate(quote.ObservedAt)
	if err != nil {
		return err
	}

	row := models.PriceRow{
		Exchange:  p.fetcher.Name(),
		Timestamp: ts,
		Price:     quote.Price,
	}
	if err := p.persister.Persist(ctx, row); err != nil {
		return err
	}
	p.persists.Add(1)

	p.logger.WithFields(logrus.Fields{
		"price":     row.Price,
		"timestamp": row.Timestamp.Format(models.StoreTimeLayout),
	}).Debug("price persisted")
	return nil
}

// validate checks that observed renders in the store layout and keeps
// timestamps non-decreasing across ticks.
func (p *Poller) validate(observed time.Time) (time.Time, error) {
	name := p.fetcher.Name().String()
	if observed.IsZero() {
		return time.Time{}, errs.Newf(errs.TimestampParseFailed, name, "validate", "zero timestamp")
	}

	text := observed.UTC().Format(models.StoreTimeLayout)
	if _, err := time.Parse(models.StoreTimeLayout, text); err != nil {
		return time.Time{}, errs.New(errs.TimestampParseFailed, name, "validate", err)
	}

	ts := observed.UTC()
	if ts.Before(p.last) {
		ts = p.last
	}
	p.last = ts
	return ts, nil
}

func (p *Poller) Stats() Stats {
	return Stats{
		Ticks:    p.ticks.Load(),
		Persists: p.persists.Load(),
		Failures: p.failures.Load(),
	}
}
