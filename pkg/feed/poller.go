// Package feed keeps registered instruments in sync with TSETMC.
package feed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/uhyunpark/tseutils/pkg/app/core/instrument"
	"github.com/uhyunpark/tseutils/pkg/app/core/orderbook"
	"github.com/uhyunpark/tseutils/pkg/metrics"
	"github.com/uhyunpark/tseutils/pkg/tsetmc"
	"github.com/uhyunpark/tseutils/pkg/util"
)

// Source is the subset of the TSETMC scraper the poller needs.
// *tsetmc.Client satisfies it.
type Source interface {
	BestLimits(ctx context.Context, tsetmcCode string) ([]orderbook.BookRow, error)
	ClientType(ctx context.Context, tsetmcCode string) (instrument.ClientType, error)
	ClosingPriceInfo(ctx context.Context, tsetmcCode string) (tsetmc.ClosingPriceInfo, error)
}

// Config controls the polling rate
type Config struct {
	Interval    time.Duration // time between rounds
	Concurrency int           // instruments polled at once
}

func DefaultConfig() Config {
	return Config{
		Interval:    2 * time.Second,
		Concurrency: 4,
	}
}

type Poller struct {
	src      Source
	registry *instrument.Registry
	cfg      Config

	clock   util.Clock
	log     *zap.SugaredLogger
	metrics *metrics.Metrics

	// OnUpdate is called after an instrument was refreshed. It runs on the
	// polling goroutine and must not block.
	OnUpdate func(isin string)
}

type Option func(*Poller)

func WithClock(c util.Clock) Option { return func(p *Poller) { p.clock = c } }

func WithLogger(l *zap.SugaredLogger) Option { return func(p *Poller) { p.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(p *Poller) { p.metrics = m } }

func WithOnUpdate(fn func(isin string)) Option { return func(p *Poller) { p.OnUpdate = fn } }

func NewPoller(src Source, registry *instrument.Registry, cfg Config, opts ...Option) *Poller {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	p := &Poller{
		src:      src,
		registry: registry,
		cfg:      cfg,
		clock:    util.RealClock{},
		log:      zap.NewNop().Sugar(),
		metrics:  metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PollOnce refreshes every registered instrument that has a TSETMC code.
// Failures of single instruments are logged and counted; only context
// cancellation is returned.
func (p *Poller) PollOnce(ctx context.Context) error {
	start := p.clock.Now()
	defer func() {
		p.metrics.FeedDuration.Observe(p.clock.Now().Sub(start).Seconds())
	}()

	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Concurrency)

	for _, in := range p.registry.List() {
		if in.Identification.TsetmcCode == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		in := in
		g.Go(func() error {
			if err := p.refresh(ctx, in); err != nil {
				p.metrics.FeedPolls.WithLabelValues("error").Inc()
				p.log.Warnw("feed_refresh_failed", "isin", in.ISIN(), "error", err)
				return nil
			}
			p.metrics.FeedPolls.WithLabelValues("ok").Inc()
			if p.OnUpdate != nil {
				p.OnUpdate(in.ISIN())
			}
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

func (p *Poller) refresh(ctx context.Context, in *instrument.Instrument) error {
	code := in.Identification.TsetmcCode

	rows, err := p.src.BestLimits(ctx, code)
	if err != nil {
		return fmt.Errorf("best limits: %w", err)
	}
	ct, err := p.src.ClientType(ctx, code)
	if err != nil {
		return fmt.Errorf("client type: %w", err)
	}
	info, err := p.src.ClosingPriceInfo(ctx, code)
	if err != nil {
		return fmt.Errorf("closing price info: %w", err)
	}

	now := p.clock.Now()
	in.OrderBook.Set(rows)
	buys, sells := orderbook.SplitSides(rows)
	in.DeepOrderBook.SyncBuyRows(buys)
	in.DeepOrderBook.SyncSellRows(sells)
	in.SetClientType(ct, now)
	in.SetCandle(info.TradeCandle, now)

	l := in.Limitations()
	l.Nsc = info.Nsc
	in.SetLimitations(l)
	return nil
}

// Run polls until ctx is done
func (p *Poller) Run(ctx context.Context) error {
	p.log.Infow("feed_started", "interval", p.cfg.Interval, "concurrency", p.cfg.Concurrency)
	rounds := 0
	for {
		if err := p.PollOnce(ctx); err != nil {
			p.log.Infow("feed_stopped", "rounds", rounds)
			return err
		}
		rounds++

		select {
		case <-ctx.Done():
			p.log.Infow("feed_stopped", "rounds", rounds)
			return ctx.Err()
		case <-p.clock.After(p.cfg.Interval):
		}
	}
}

// Start runs the poller in a background goroutine.
// Returns a cancel function to stop it.
func Start(ctx context.Context, p *Poller) context.CancelFunc {
	feedCtx, cancel := context.WithCancel(ctx)
	go func() { _ = p.Run(feedCtx) }()
	return cancel
}
