package model

import "time"

// Status is the discrete classification of a ticker.
type Status string

const (
	StatusBuy   Status = "BUY"
	StatusWatch Status = "WATCH"
	StatusSell  Status = "SELL"
	StatusHold  Status = "HOLD"
)

// Condition refines a Status.
type Condition string

const (
	ConditionAccumulation Condition = "ACCUMULATION"
	ConditionHealthyTrend Condition = "HEALTHY_TREND"
	ConditionOversold     Condition = "OVERSOLD"
	ConditionDistribution Condition = "DISTRIBUTION"
	ConditionWeak         Condition = "WEAK"
	ConditionNeutral      Condition = "NEUTRAL"
)

// PriceSource tells whether the evaluated price came from a live quote.
type PriceSource string

const (
	PriceLive  PriceSource = "live"
	PriceClose PriceSource = "close"
)

// SignalResult is the classifier output for one ticker.
type SignalResult struct {
	Ticker         string      `json:"ticker"`
	Status         Status      `json:"status"`
	Condition      Condition   `json:"condition"`
	Price          float64     `json:"price"`
	PriceSource    PriceSource `json:"price_source"`
	EntryLow       float64     `json:"entry_low,omitempty"`
	EntryHigh      float64     `json:"entry_high,omitempty"`
	TakeProfit     float64     `json:"take_profit"`
	StopLoss       float64     `json:"stop_loss"`
	RSI            float64     `json:"rsi"`
	VolumeElevated bool        `json:"volume_elevated"`
	Rationale      string      `json:"rationale"`
	EvaluatedAt    time.Time   `json:"evaluated_at"`
}

// HasEntryZone reports whether the result carries a near-support entry band.
func (s *SignalResult) HasEntryZone() bool {
	return s.Status == StatusBuy || s.Status == StatusWatch
}

// Tickers returns the ticker of each result in order.
func Tickers(results []SignalResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Ticker
	}
	return out
}
