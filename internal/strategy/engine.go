package strategy

import (
	"fmt"
	"time"

	"SignalRadar/internal/model"
)

// Classify maps an indicator snapshot and the current price to a signal.
// The decision table is evaluated top to bottom and the first match wins:
// BUY, then WATCH (oversold), then SELL, then HOLD.
func Classify(ticker string, snap *model.IndicatorSnapshot, price float64, rules Rules) *model.SignalResult {
	res := &model.SignalResult{
		Ticker:         ticker,
		Price:          price,
		RSI:            snap.RSI,
		VolumeElevated: snap.VolumeElevated,
	}

	trendUp := price > snap.EMAMid && snap.EMAFast > snap.EMAMid
	rsiInBand := snap.RSI >= rules.BuyRSIMin && snap.RSI <= rules.BuyRSIMax
	spike := snap.CurrentVolume > snap.AvgVolume*rules.VolumeSpike

	switch {
	case trendUp && rsiInBand:
		res.Status = model.StatusBuy
		if snap.VolumeElevated {
			res.Condition = model.ConditionAccumulation
		} else {
			res.Condition = model.ConditionHealthyTrend
		}
		res.Rationale = fmt.Sprintf("price and fast EMA above mid EMA, RSI %.0f in [%.0f,%.0f]%s",
			snap.RSI, rules.BuyRSIMin, rules.BuyRSIMax, volumeNote(snap))
	case snap.RSI < rules.OversoldRSI:
		res.Status = model.StatusWatch
		res.Condition = model.ConditionOversold
		res.Rationale = fmt.Sprintf("RSI %.0f below %.0f, rebound candidate%s",
			snap.RSI, rules.OversoldRSI, volumeNote(snap))
	case price < snap.EMAMid || (price < snap.PrevClose && spike):
		res.Status = model.StatusSell
		if snap.VolumeElevated {
			res.Condition = model.ConditionDistribution
		} else {
			res.Condition = model.ConditionWeak
		}
		if price < snap.EMAMid {
			res.Rationale = fmt.Sprintf("price %.2f below mid EMA %.2f%s", price, snap.EMAMid, volumeNote(snap))
		} else {
			res.Rationale = fmt.Sprintf("price falling on volume %.1fx baseline", snap.CurrentVolume/snap.AvgVolume)
		}
	default:
		res.Status = model.StatusHold
		res.Condition = model.ConditionNeutral
		res.Rationale = fmt.Sprintf("no trend confirmation, RSI %.0f", snap.RSI)
	}

	res.TakeProfit, res.StopLoss = Targets(snap, price, rules)
	if res.HasEntryZone() {
		res.EntryLow = snap.SupportLevel
		res.EntryHigh = snap.SupportLevel * (1 + rules.EntryBandPct)
	}
	return res
}

// Targets returns take-profit and stop-loss levels for price. The window
// extremes are used when they lie on the correct side of price; otherwise the
// percentage levels apply, so TP > price > SL always holds for price > 0.
func Targets(snap *model.IndicatorSnapshot, price float64, rules Rules) (takeProfit, stopLoss float64) {
	pctTP := price * (1 + rules.TakeProfitPct)
	pctSL := price * (1 - rules.StopLossPct)

	takeProfit = max(snap.ResistanceLevel, pctTP)
	if takeProfit <= price {
		takeProfit = pctTP
	}
	stopLoss = min(snap.StopLevel, pctSL)
	if stopLoss >= price || stopLoss <= 0 {
		stopLoss = pctSL
	}
	return takeProfit, stopLoss
}

func volumeNote(snap *model.IndicatorSnapshot) string {
	if snap.VolumeElevated {
		return ", volume above average"
	}
	return ""
}

// Stamp sets the evaluation time on res. Kept separate from Classify so that
// classification stays a pure function of its inputs.
func Stamp(res *model.SignalResult, at time.Time) *model.SignalResult {
	res.EvaluatedAt = at
	return res
}
