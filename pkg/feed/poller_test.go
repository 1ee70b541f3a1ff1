package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/uhyunpark/tseutils/pkg/app/core/instrument"
	"github.com/uhyunpark/tseutils/pkg/app/core/orderbook"
	"github.com/uhyunpark/tseutils/pkg/metrics"
	"github.com/uhyunpark/tseutils/pkg/tsetmc"
	"github.com/uhyunpark/tseutils/pkg/util"
)

type fakeSource struct {
	mu     sync.Mutex
	calls  int
	rows   []orderbook.BookRow
	failOn string
}

func (s *fakeSource) BestLimits(_ context.Context, code string) ([]orderbook.BookRow, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if code == s.failOn {
		return nil, errors.New("connect timeout")
	}
	return s.rows, nil
}

func (s *fakeSource) ClientType(_ context.Context, code string) (instrument.ClientType, error) {
	return instrument.ClientType{LegalBuyVolume: 10, NaturalBuyVolume: 90}, nil
}

func (s *fakeSource) ClosingPriceInfo(_ context.Context, code string) (tsetmc.ClosingPriceInfo, error) {
	return tsetmc.ClosingPriceInfo{
		TradeCandle: instrument.TradeCandle{LastPrice: 5180, ClosePrice: 5160},
		Nsc:         instrument.NscAllowedSuspended,
	}, nil
}

func newRegistry(t *testing.T, ids ...instrument.Identification) *instrument.Registry {
	t.Helper()
	reg := instrument.NewRegistry()
	for _, id := range ids {
		if err := reg.Register(instrument.New(id)); err != nil {
			t.Fatalf("register %s: %v", id.ISIN, err)
		}
	}
	return reg
}

func TestPollOnceUpdatesInstruments(t *testing.T) {
	now := time.Date(2023, 9, 11, 10, 0, 0, 0, time.UTC)
	src := &fakeSource{rows: []orderbook.BookRow{
		{DemandNum: 3, DemandVolume: 100, DemandPrice: 5180, SupplyNum: 4, SupplyVolume: 150, SupplyPrice: 5185},
		{DemandNum: 5, DemandVolume: 200, DemandPrice: 5170, SupplyNum: 0, SupplyVolume: 0, SupplyPrice: 0},
	}}
	reg := newRegistry(t,
		instrument.Identification{ISIN: "IRO1FOLD0001", TsetmcCode: "46348559193224090", Ticker: "فولاد"},
		instrument.Identification{ISIN: "IRO1NOCODE01", Ticker: "بدون"},
	)

	var mu sync.Mutex
	var updated []string
	p := NewPoller(src, reg, Config{Concurrency: 2},
		WithClock(util.FixedClock{T: now}),
		WithOnUpdate(func(isin string) {
			mu.Lock()
			updated = append(updated, isin)
			mu.Unlock()
		}),
	)

	if err := p.PollOnce(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("expected instruments without a code to be skipped, got %d calls", src.calls)
	}
	if len(updated) != 1 || updated[0] != "IRO1FOLD0001" {
		t.Fatalf("unexpected updates %v", updated)
	}

	in, err := reg.Get("IRO1FOLD0001")
	if err != nil {
		t.Fatal(err)
	}
	rt := in.Realtime()
	if len(rt.OrderBook) != 2 || rt.OrderBook[0].DemandPrice != 5180 {
		t.Errorf("unexpected book %v", rt.OrderBook)
	}
	if rt.Candle.LastPrice != 5180 || !rt.UpdatedAt.Equal(now) {
		t.Errorf("unexpected candle %+v at %v", rt.Candle, rt.UpdatedAt)
	}
	if rt.ClientType.TradeVolume() != 100 {
		t.Errorf("trade volume = %d", rt.ClientType.TradeVolume())
	}
	if in.Limitations().Nsc != instrument.NscAllowedSuspended {
		t.Errorf("nsc = %s", in.Limitations().Nsc)
	}

	buys, sells := in.DeepOrderBook.Depth()
	if buys != 2 || sells != 1 {
		t.Fatalf("depth = %d/%d, want 2/1", buys, sells)
	}
	bid, _ := in.DeepOrderBook.BestBid()
	ask, _ := in.DeepOrderBook.BestAsk()
	if bid.Price != 5180 || ask.Price != 5185 {
		t.Errorf("best bid/ask = %d/%d", bid.Price, ask.Price)
	}
}

func TestPollOnceCountsFailures(t *testing.T) {
	reg := newRegistry(t,
		instrument.Identification{ISIN: "IRO1FOLD0001", TsetmcCode: "1"},
		instrument.Identification{ISIN: "IRO1MKBT0001", TsetmcCode: "2"},
	)
	m := metrics.New(prometheus.NewRegistry())
	src := &fakeSource{failOn: "2"}
	p := NewPoller(src, reg, Config{}, WithMetrics(m))

	if err := p.PollOnce(context.Background()); err != nil {
		t.Fatalf("single instrument failures must not fail the round: %v", err)
	}
	if got := testutil.ToFloat64(m.FeedPolls.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok polls = %v", got)
	}
	if got := testutil.ToFloat64(m.FeedPolls.WithLabelValues("error")); got != 1 {
		t.Errorf("error polls = %v", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	reg := newRegistry(t, instrument.Identification{ISIN: "IRO1FOLD0001", TsetmcCode: "1"})
	src := &fakeSource{}

	ctx, cancel := context.WithCancel(context.Background())
	rounds := 0
	p := NewPoller(src, reg, Config{Interval: time.Millisecond},
		WithClock(util.FixedClock{T: time.Now()}),
		WithOnUpdate(func(string) {
			rounds++
			if rounds == 3 {
				cancel()
			}
		}),
	)

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
	if rounds != 3 {
		t.Errorf("rounds = %d, want 3", rounds)
	}
}

func TestNewPollerDefaults(t *testing.T) {
	p := NewPoller(&fakeSource{}, instrument.NewRegistry(), Config{})
	if p.cfg != DefaultConfig() {
		t.Errorf("cfg = %+v", p.cfg)
	}
}
