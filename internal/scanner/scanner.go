// Package scanner fans a ticker list out over a bounded pool of workers and
// turns each fetched series into a classified signal.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"SignalRadar/internal/calculator"
	"SignalRadar/internal/collector"
	"SignalRadar/internal/metrics"
	"SignalRadar/internal/model"
	"SignalRadar/internal/strategy"
	"SignalRadar/internal/telemetry"
)

const (
	DefaultWorkers      = 8
	DefaultFetchTimeout = 8 * time.Second
	DefaultQuoteTimeout = 5 * time.Second
)

// Scanner orchestrates fetching, indicator computation and classification.
type Scanner struct {
	Fetcher collector.Fetcher
	Quoter  collector.Quoter // optional; nil means last close is the price
	Params  calculator.Params
	Rules   strategy.Rules

	Workers      int
	FetchTimeout time.Duration
	QuoteTimeout time.Duration

	Metrics *metrics.Metrics
	Now     func() time.Time
}

// New creates a Scanner with default concurrency and timeouts.
func New(fetcher collector.Fetcher, quoter collector.Quoter, params calculator.Params, rules strategy.Rules) *Scanner {
	return &Scanner{
		Fetcher:      fetcher,
		Quoter:       quoter,
		Params:       params,
		Rules:        rules,
		Workers:      DefaultWorkers,
		FetchTimeout: DefaultFetchTimeout,
		QuoteTimeout: DefaultQuoteTimeout,
	}
}

// Scan analyzes every ticker concurrently and returns the successful results
// in input order. Tickers that fail to fetch or lack history are logged and
// omitted; they never abort the scan.
func (s *Scanner) Scan(ctx context.Context, tickers []string, window model.Window) []model.SignalResult {
	ctx, span := telemetry.StartSpan(ctx, "scanner.Scan",
		attribute.Int("tickers", len(tickers)),
		attribute.String("window", window.String()),
	)
	defer span.End()

	workers := s.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	workers = min(workers, len(tickers))

	slots := make([]*model.SignalResult, len(tickers))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := s.Analyze(ctx, tickers[i], window)
				kind := model.ErrorKind(err)
				s.Metrics.TickerOutcome(outcomeLabel(kind))
				if err != nil {
					logSkip(tickers[i], kind, err)
					continue
				}
				slots[i] = res
			}
		}()
	}

feed:
	for i := range tickers {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	results := make([]model.SignalResult, 0, len(tickers))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	span.SetAttributes(attribute.Int("results", len(results)))
	log.Info().
		Int("tickers", len(tickers)).
		Int("results", len(results)).
		Str("source", s.Fetcher.Name()).
		Msg("scan complete")
	return results
}

// Analyze produces the signal for a single ticker.
func (s *Scanner) Analyze(ctx context.Context, ticker string, window model.Window) (*model.SignalResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "scanner.Analyze", attribute.String("ticker", ticker))
	defer span.End()

	start := time.Now()
	bars, err := s.fetch(ctx, ticker, window)
	s.Metrics.ObserveFetch(time.Since(start))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	snap, err := calculator.Compute(bars, s.Params)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}

	price, source := s.price(ctx, ticker, snap.LastClose)
	res := strategy.Classify(ticker, snap, price, s.Rules)
	res.PriceSource = source
	strategy.Stamp(res, s.now())

	span.SetAttributes(attribute.String("status", string(res.Status)))
	return res, nil
}

// fetch bounds a single series fetch by FetchTimeout. A fetcher that ignores
// cancellation is abandoned once the deadline passes; its goroutine finishes
// into a buffered channel nobody reads.
func (s *Scanner) fetch(ctx context.Context, ticker string, window model.Window) ([]model.OHLCV, error) {
	timeout := s.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		bars []model.OHLCV
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		bars, err := s.Fetcher.FetchSeries(fctx, ticker, window)
		done <- outcome{bars, err}
	}()

	select {
	case o := <-done:
		return o.bars, o.err
	case <-fctx.Done():
		return nil, &model.FetchError{
			Ticker: ticker,
			Err:    fmt.Errorf("abandoned after %s: %w", timeout, fctx.Err()),
		}
	}
}

// price prefers a live quote and falls back to the last close.
func (s *Scanner) price(ctx context.Context, ticker string, lastClose float64) (float64, model.PriceSource) {
	if s.Quoter == nil {
		return lastClose, model.PriceClose
	}
	timeout := s.QuoteTimeout
	if timeout <= 0 {
		timeout = DefaultQuoteTimeout
	}
	qctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p, err := s.Quoter.Quote(qctx, ticker)
	if err != nil || p <= 0 {
		s.Metrics.QuoteFallback()
		log.Debug().Err(err).Str("ticker", ticker).Msg("live quote unavailable, using last close")
		return lastClose, model.PriceClose
	}
	return p, model.PriceLive
}

func (s *Scanner) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func outcomeLabel(kind string) string {
	if kind == "none" {
		return "ok"
	}
	return kind
}

func logSkip(ticker, kind string, err error) {
	ev := log.Warn()
	if errors.Is(err, model.ErrInsufficientData) {
		ev = log.Info()
	}
	ev.Str("ticker", ticker).Str("kind", kind).Err(err).Msg("ticker skipped")
}
