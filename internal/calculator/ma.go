package calculator

import (
	"errors"
	"fmt"

	"SignalRadar/internal/model"
)

// CalculateSMA is the mean of the last period values. It also backs the
// volume baseline and the RSI gain/loss averages.
func CalculateSMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, fmt.Errorf("%w: sma(%d) over %d values", model.ErrInsufficientData, period, len(values))
	}
	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), nil
}

// CalculateEMA returns the latest exponential moving average of prices with
// smoothing factor 2/(span+1). The average is seeded by the series itself:
// every observation is weighted by (1-alpha)^age and the weights are
// normalised over the bars seen so far, so there is no warm-up discard.
func CalculateEMA(prices []float64, span int) (float64, error) {
	if span <= 0 {
		return 0, errors.New("span must be positive")
	}
	if len(prices) == 0 {
		return 0, errors.New("no prices for EMA calculation")
	}
	alpha := 2.0 / float64(span+1)
	decay := 1 - alpha
	var num, den float64
	for _, p := range prices {
		num = p + decay*num
		den = 1 + decay*den
	}
	return num / den, nil
}
