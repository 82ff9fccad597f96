package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"SignalRadar/internal/api"
	"SignalRadar/internal/budget"
	"SignalRadar/internal/collector"
	"SignalRadar/internal/config"
	"SignalRadar/internal/filter"
	"SignalRadar/internal/logger"
	"SignalRadar/internal/markethours"
	"SignalRadar/internal/metrics"
	"SignalRadar/internal/notifier"
	"SignalRadar/internal/scanner"
	"SignalRadar/internal/scheduler"
	"SignalRadar/internal/store"
	"SignalRadar/internal/telemetry"
)

var version = "dev"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := logger.Init(cfg.Logging); err != nil {
		log.Fatal().Err(err).Msg("init logger")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("version", version).Msg("SignalRadar starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Init(cfg.Tracing, version)
	if err != nil {
		log.Fatal().Err(err).Msg("init tracing")
	}

	// Settings store
	var st store.Store
	if cfg.Database.Driver == "memory" {
		st = store.NewMemoryStore()
		log.Warn().Msg("using in-memory store, settings are lost on restart")
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			log.Fatal().Err(err).Msg("create database directory")
		}
		sqlite, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("open sqlite store")
		}
		st = sqlite
	}
	defer st.Close()

	initial := decimal.Zero
	if cfg.Budget.InitialCapital != "" {
		initial, _ = budget.ParseCapital(cfg.Budget.InitialCapital)
	}
	bm, err := budget.NewManager(ctx, st, initial)
	if err != nil {
		log.Fatal().Err(err).Msg("init budget")
	}

	session, err := markethours.NewSession(cfg.Market)
	if err != nil {
		log.Fatal().Err(err).Msg("init market session")
	}

	// Data source
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "rest":
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "mock":
		fetcher = &collector.MockFetcher{Price: 1000}
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	var quoter collector.Quoter
	switch cfg.DataSource.Quotes {
	case "google":
		quoter = collector.NewGoogleQuoter(cfg.DataSource.QuoteExchange, cfg.Proxy)
	case "rest":
		quoter = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	}
	log.Info().Str("source", fetcher.Name()).Str("quotes", cfg.DataSource.Quotes).Msg("data source ready")

	m := metrics.New()

	sc := scanner.New(fetcher, quoter, cfg.Indicators, cfg.Rules)
	sc.Workers = cfg.Scan.Workers
	sc.FetchTimeout = cfg.Scan.FetchTimeout
	sc.QuoteTimeout = cfg.Scan.QuoteTimeout
	sc.Metrics = m

	tracker := filter.NewTracker(cfg.Dedup, nil)
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Proxy)

	sched := scheduler.NewScheduler(sc, tracker, bm, st, session, tn, m, scheduler.Options{
		Interval:      cfg.Schedule.Interval,
		BatchSize:     cfg.Schedule.BatchSize,
		LotSize:       cfg.Schedule.LotSize,
		Window:        cfg.Schedule.Window,
		ScanWindow:    cfg.Scan.Window,
		Radar:         cfg.Schedule.Radar,
		Allow:         cfg.Filter,
		SendRetries:   cfg.Telegram.SendRetries,
		AuthorizedIDs: cfg.Telegram.AuthorizedIDs,
		TickerSuffix:  cfg.DataSource.TickerSuffix,
	})
	if err := sched.Register(ctx); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()

	go tn.StartPolling(ctx, sched.HandleCommand, !cfg.Telegram.ReplayPending)
	log.Info().Msg("telegram polling started")

	var srv *api.Server
	if cfg.Server.Enabled {
		srv = api.NewServer(cfg.Server.Addr, &api.Handler{
			Radar:   sched,
			Store:   st,
			Session: session,
			Metrics: m,
		})
		srv.Start()
	}

	if cfg.Schedule.RunOnStart {
		log.Info().Msg("run_on_start enabled, executing a cycle now")
		go sched.RunCycle(ctx, time.Now())
	}

	log.Info().Msg("SignalRadar is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()
	sched.Stop()

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if srv != nil {
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("stop http server")
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("flush traces")
	}
	log.Info().Msg("SignalRadar stopped")
}
