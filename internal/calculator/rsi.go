package calculator

import (
	"errors"
	"fmt"

	"SignalRadar/internal/model"
)

// RSIMethod selects how average gains and losses are smoothed.
type RSIMethod string

const (
	// RSIWilder seeds with a simple mean over the first period changes, then
	// applies Wilder smoothing (alpha = 1/period).
	RSIWilder RSIMethod = "wilder"
	// RSISimple uses the plain mean of the last period changes.
	RSISimple RSIMethod = "sma"
)

// CalculateRSI computes the RSI over the given period using method.
// Requires at least period+1 bars. An all-gain window returns 100.
func CalculateRSI(bars []model.OHLCV, period int, method RSIMethod) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return 0, fmt.Errorf("%w: rsi(%d) needs %d bars, have %d", model.ErrInsufficientData, period, period+1, len(bars))
	}

	closes := model.Closes(bars)

	switch method {
	case RSISimple:
		return simpleRSI(closes, period), nil
	case RSIWilder, "":
		return wilderRSI(closes, period), nil
	default:
		return 0, fmt.Errorf("unknown rsi method %q", method)
	}
}

func wilderRSI(closes []float64, period int) float64 {
	gains, losses := priceChanges(closes)

	// Seed with the simple mean of the first period changes.
	avgGain, _ := CalculateSMA(gains[:period], period)
	avgLoss, _ := CalculateSMA(losses[:period], period)

	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
	}
	return rsiFromAverages(avgGain, avgLoss)
}

func simpleRSI(closes []float64, period int) float64 {
	gains, losses := priceChanges(closes)
	avgGain, _ := CalculateSMA(gains, period)
	avgLoss, _ := CalculateSMA(losses, period)
	return rsiFromAverages(avgGain, avgLoss)
}

// priceChanges splits close-to-close moves into gain and loss series,
// one entry per bar after the first.
func priceChanges(closes []float64) (gains, losses []float64) {
	gains = make([]float64, len(closes)-1)
	losses = make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		gains[i-1], losses[i-1] = splitChange(closes[i] - closes[i-1])
	}
	return gains, losses
}

func splitChange(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
