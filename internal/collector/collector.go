package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SignalRadar/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu sync.Mutex

	Price    float64                  // base price for generated bars
	Bars     map[string][]model.OHLCV // per-ticker fixed series
	Errs     map[string]error         // per-ticker failures
	Delay    time.Duration            // simulated latency
	Stubborn bool                     // when set, Delay ignores ctx cancellation
	Calls    map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchSeries(ctx context.Context, ticker string, _ model.Window) ([]model.OHLCV, error) {
	m.mu.Lock()
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	m.Calls[ticker]++
	err := m.Errs[ticker]
	bars, ok := m.Bars[ticker]
	m.mu.Unlock()

	if m.Delay > 0 {
		if m.Stubborn {
			time.Sleep(m.Delay)
		} else {
			select {
			case <-ctx.Done():
				return nil, &model.FetchError{Ticker: ticker, Err: ctx.Err()}
			case <-time.After(m.Delay):
			}
		}
	}
	if err != nil {
		return nil, err
	}
	if ok {
		return bars, nil
	}
	if m.Bars != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidTicker, ticker)
	}
	return GenerateMockBars(m.Price, 60, 0.001), nil
}

// CallCount returns how many times ticker was fetched.
func (m *MockFetcher) CallCount(ticker string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[ticker]
}

// MockQuoter serves fixed live prices; unknown tickers are unavailable.
type MockQuoter struct {
	Prices map[string]float64
}

func (m *MockQuoter) Quote(_ context.Context, ticker string) (float64, error) {
	if p, ok := m.Prices[ticker]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("%w: %s", model.ErrQuoteUnavailable, ticker)
}

// GenerateMockBars builds count daily bars around basePrice with a linear
// drift of step per bar (0.001 = +0.1% per bar).
func GenerateMockBars(basePrice float64, count int, step float64) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*step)
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// GenerateZigzagBars builds count daily bars starting at start that move up
// by up on even steps and down by down on odd steps. A net rising zigzag
// keeps RSI inside a mid band, which makes it a convenient BUY fixture.
func GenerateZigzagBars(start float64, count int, up, down float64) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p := start
	for i := 0; i < count; i++ {
		if i > 0 {
			if i%2 == 1 {
				p += up
			} else {
				p -= down
			}
		}
		bars[i] = model.OHLCV{
			Time:   t0.AddDate(0, 0, i),
			Open:   p,
			High:   p + 0.5,
			Low:    p - 0.5,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
