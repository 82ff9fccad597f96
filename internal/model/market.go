package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Window selects the lookback period and sampling granularity of a series,
// using the provider's range/interval notation ("3mo"/"1d", "7d"/"5m").
type Window struct {
	Period   string `yaml:"period" default:"3mo" validate:"required"`
	Interval string `yaml:"interval" default:"1d" validate:"required"`
}

func (w Window) String() string { return w.Period + "@" + w.Interval }

// Closes extracts the close prices of bars in order.
func Closes(bars []OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
