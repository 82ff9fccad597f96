// Package filter narrows scan results down to the tickers worth sending:
// actionable statuses, affordable at one board lot, not recently delivered.
package filter

import (
	"github.com/shopspring/decimal"

	"SignalRadar/internal/model"
)

// DefaultLotSize is the IDX board lot.
const DefaultLotSize = 100

// Allow selects which statuses are delivered on scheduled cycles.
type Allow struct {
	Statuses       []model.Status `yaml:"statuses" default:"[\"BUY\",\"WATCH\"]" validate:"min=1,dive,oneof=BUY WATCH SELL HOLD"`
	WatchAnyVolume bool           `yaml:"watch_any_volume"`
}

func (a Allow) permits(s model.Status) bool {
	for _, st := range a.Statuses {
		if st == s {
			return true
		}
	}
	return false
}

// Actionable keeps results whose status is allowed. WATCH additionally needs
// elevated volume unless WatchAnyVolume is set. Order is preserved.
func Actionable(results []model.SignalResult, allow Allow) []model.SignalResult {
	out := make([]model.SignalResult, 0, len(results))
	for _, r := range results {
		if !allow.permits(r.Status) {
			continue
		}
		if r.Status == model.StatusWatch && !r.VolumeElevated && !allow.WatchAnyVolume {
			continue
		}
		out = append(out, r)
	}
	return out
}

// LotCost is the price of one lot at price.
func LotCost(price float64, lotSize int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(lotSize)))
}

// Affordable keeps results whose one-lot cost does not exceed capital.
// A non-positive lotSize falls back to DefaultLotSize.
func Affordable(results []model.SignalResult, capital decimal.Decimal, lotSize int) []model.SignalResult {
	if lotSize <= 0 {
		lotSize = DefaultLotSize
	}
	out := make([]model.SignalResult, 0, len(results))
	for _, r := range results {
		if capital.GreaterThanOrEqual(LotCost(r.Price, lotSize)) {
			out = append(out, r)
		}
	}
	return out
}
