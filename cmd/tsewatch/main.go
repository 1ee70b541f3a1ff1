package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/uhyunpark/tseutils/params"
	"github.com/uhyunpark/tseutils/pkg/api"
	"github.com/uhyunpark/tseutils/pkg/app/core/instrument"
	"github.com/uhyunpark/tseutils/pkg/feed"
	"github.com/uhyunpark/tseutils/pkg/metrics"
	"github.com/uhyunpark/tseutils/pkg/tsetmc"
	"github.com/uhyunpark/tseutils/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("") // "" means load from .env in current directory

	logger, err := util.NewLoggerWithFile(cfg.Log.File, cfg.Log.Verbose)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Log.File, "verbose", cfg.Log.Verbose)

	if len(cfg.Feed.Instruments) == 0 {
		sugar.Fatalw("no_instruments", "hint", "set FEED_INSTRUMENTS to comma-separated TSETMC codes")
	}

	// ---- Metrics ----
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promReg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Scraper ----
	client := tsetmc.NewClient(cfg.Tsetmc.Domain, cfg.Tsetmc.Timeout,
		tsetmc.WithRetries(cfg.Tsetmc.Retries, 200*time.Millisecond),
		tsetmc.WithLogger(sugar.Named("tsetmc")),
		tsetmc.WithMetrics(m),
	)

	// ---- Instruments ----
	registry := instrument.NewRegistry()
	for _, code := range cfg.Feed.Instruments {
		in, err := loadInstrument(ctx, client, code)
		if err != nil {
			sugar.Errorw("instrument_load_failed", "tsetmc_code", code, "err", err)
			continue
		}
		if err := registry.Register(in); err != nil {
			sugar.Warnw("instrument_register_failed", "tsetmc_code", code, "err", err)
			continue
		}
		sugar.Infow("instrument_registered", "instrument", in.String(), "tsetmc_code", code)
	}
	if registry.Count() == 0 {
		sugar.Fatalw("no_instruments_loaded", "configured", len(cfg.Feed.Instruments))
	}

	// ---- API Server ----
	apiServer := api.NewServer(registry,
		api.WithLogger(sugar.Named("api")),
		api.WithMetrics(m, promReg),
		api.WithAllowedOrigins(cfg.API.AllowedOrigins...),
	)

	// ---- Feed ----
	poller := feed.NewPoller(client, registry,
		feed.Config{Interval: cfg.Feed.Interval, Concurrency: cfg.Feed.Concurrency},
		feed.WithLogger(sugar.Named("feed")),
		feed.WithMetrics(m),
		feed.WithOnUpdate(apiServer.BroadcastInstrument),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return apiServer.Start(gctx, cfg.API.Addr) })
	g.Go(func() error {
		if err := poller.Run(gctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	})

	sugar.Infow("tsewatch_started", "instruments", registry.Count(), "api_addr", cfg.API.Addr)
	if err := g.Wait(); err != nil {
		sugar.Errorw("tsewatch_failed", "err", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	sugar.Info("tsewatch_stopped")
}

// loadInstrument builds an instrument from its TSETMC homepage data
func loadInstrument(ctx context.Context, client *tsetmc.Client, code string) (*instrument.Instrument, error) {
	info, err := client.InstrumentInfo(ctx, code)
	if err != nil {
		return nil, err
	}
	in := instrument.New(info.Identification)
	in.SetBigQuantityParams(info.BigQuantityParams)
	in.SetLimitations(info.Limitations())
	return in, nil
}
