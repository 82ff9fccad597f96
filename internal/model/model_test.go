package model

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"bbca", "BBCA.JK", false},
		{"  BBCA ", "BBCA.JK", false},
		{"bbca.jk", "BBCA.JK", false},
		{"BBCA.JK", "BBCA.JK", false},
		{"", "", true},
		{".jk", "", true},
		{"BB CA", "", true},
		{"BBCA;DROP", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeTicker(tt.raw, DefaultSuffix)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidTicker) {
				t.Errorf("%q: expected ErrInvalidTicker, got %v", tt.raw, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%q: expected %s, got %s (%v)", tt.raw, tt.want, got, err)
		}
	}
}

func TestBaseSymbol(t *testing.T) {
	if got := BaseSymbol("BBCA.JK"); got != "BBCA" {
		t.Errorf("expected BBCA, got %s", got)
	}
	if got := BaseSymbol("^JKSE"); got != "^JKSE" {
		t.Errorf("expected ^JKSE unchanged, got %s", got)
	}
}

func TestFetchError_MatchesTaxonomy(t *testing.T) {
	err := fmt.Errorf("scan: %w", &FetchError{Ticker: "BBCA.JK", Err: context.DeadlineExceeded})

	if !errors.Is(err, ErrFetch) {
		t.Error("expected ErrFetch")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected the cause to stay reachable")
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Ticker != "BBCA.JK" {
		t.Errorf("expected FetchError for BBCA.JK, got %v", fe)
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{fmt.Errorf("x: %w", ErrInvalidTicker), "invalid_ticker"},
		{fmt.Errorf("x: %w", ErrInsufficientData), "insufficient_data"},
		{ErrQuoteUnavailable, "quote_unavailable"},
		{&FetchError{Ticker: "A", Err: errors.New("boom")}, "fetch"},
		{errors.New("other"), "other"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestTickersAndEntryZone(t *testing.T) {
	results := []SignalResult{{Ticker: "A.JK", Status: StatusBuy}, {Ticker: "B.JK", Status: StatusSell}}
	got := Tickers(results)
	if len(got) != 2 || got[0] != "A.JK" || got[1] != "B.JK" {
		t.Errorf("unexpected tickers %v", got)
	}
	if !results[0].HasEntryZone() || results[1].HasEntryZone() {
		t.Error("entry zone applies to BUY and WATCH only")
	}
}
