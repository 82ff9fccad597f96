package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData means the series is shorter than the indicators need.
	// It is a routine outcome: the ticker is skipped.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrFetch marks provider or network failures.
	ErrFetch = errors.New("fetch failed")
	// ErrQuoteUnavailable means no live quote; callers fall back to the last close.
	ErrQuoteUnavailable = errors.New("quote unavailable")
	// ErrInvalidTicker means the provider does not know the symbol.
	ErrInvalidTicker = errors.New("invalid ticker")
)

// FetchError wraps a provider failure for one ticker.
type FetchError struct {
	Ticker string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Ticker, e.Err)
}

func (e *FetchError) Unwrap() []error { return []error{ErrFetch, e.Err} }

// ErrorKind names the taxonomy bucket of err, for logs and metrics labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidTicker):
		return "invalid_ticker"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrQuoteUnavailable):
		return "quote_unavailable"
	case errors.Is(err, ErrFetch):
		return "fetch"
	default:
		return "other"
	}
}
