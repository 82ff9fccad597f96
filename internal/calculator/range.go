package calculator

import (
	"errors"
	"math"

	"SignalRadar/internal/model"
)

// CalculateWindowRange scans the most recent `window` bars and returns the
// highest high and the lowest low. A window larger than the series uses all bars.
func CalculateWindowRange(bars []model.OHLCV, window int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	if window <= 0 {
		return 0, 0, errors.New("window must be positive")
	}
	n := len(bars)
	start := n - window
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low, nil
}

// CalculateAverageVolume returns the mean volume over the last `window` bars.
func CalculateAverageVolume(bars []model.OHLCV, window int) (float64, error) {
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		volumes[i] = b.Volume
	}
	return CalculateSMA(volumes, window)
}
