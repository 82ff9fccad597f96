package collector

import (
	"context"

	"SignalRadar/internal/model"
)

// Fetcher defines the interface for fetching market data.
// Implementations return bars in ascending time order. A symbol the provider
// does not know yields model.ErrInvalidTicker, an empty series
// model.ErrInsufficientData and transport failures a *model.FetchError.
type Fetcher interface {
	FetchSeries(ctx context.Context, ticker string, window model.Window) ([]model.OHLCV, error)
	Name() string
}

// Quoter looks up the last traded price of a ticker. Failure is routine and
// reported as model.ErrQuoteUnavailable.
type Quoter interface {
	Quote(ctx context.Context, ticker string) (float64, error)
}
