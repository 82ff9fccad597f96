package calculator

import (
	"fmt"

	"SignalRadar/internal/model"
)

// Params configures the indicator engine. The zero value is not usable;
// see DefaultParams.
type Params struct {
	MinBars          int       `yaml:"min_bars" default:"20" validate:"gte=2"`
	EMAFast          int       `yaml:"ema_fast" default:"5" validate:"gte=1"`
	EMAMid           int       `yaml:"ema_mid" default:"20" validate:"gtfield=EMAFast"`
	EMASlow          int       `yaml:"ema_slow" default:"50" validate:"gtefield=EMAMid"`
	RSIPeriod        int       `yaml:"rsi_period" default:"14" validate:"gte=2"`
	RSIMethod        RSIMethod `yaml:"rsi_method" default:"wilder" validate:"oneof=wilder sma"`
	VolumeWindow     int       `yaml:"volume_window" default:"10" validate:"gte=1"`
	SupportWindow    int       `yaml:"support_window" default:"10" validate:"gte=1"`
	ResistanceWindow int       `yaml:"resistance_window" default:"10" validate:"gte=1"`
	StopWindow       int       `yaml:"stop_window" default:"5" validate:"gte=1"`
}

// DefaultParams returns the canonical swing-horizon parameter set.
func DefaultParams() Params {
	return Params{
		MinBars:          20,
		EMAFast:          5,
		EMAMid:           20,
		EMASlow:          50,
		RSIPeriod:        14,
		RSIMethod:        RSIWilder,
		VolumeWindow:     10,
		SupportWindow:    10,
		ResistanceWindow: 10,
		StopWindow:       5,
	}
}

// required returns the minimum number of bars Compute accepts for p.
func (p Params) required() int {
	need := p.MinBars
	for _, n := range []int{p.RSIPeriod + 1, p.VolumeWindow, 2} {
		if n > need {
			need = n
		}
	}
	return need
}

// Compute derives an IndicatorSnapshot from bars (ascending time).
// A series shorter than the configured minimum yields model.ErrInsufficientData.
func Compute(bars []model.OHLCV, p Params) (*model.IndicatorSnapshot, error) {
	if need := p.required(); len(bars) < need {
		return nil, fmt.Errorf("%w: have %d bars, need %d", model.ErrInsufficientData, len(bars), need)
	}

	closes := model.Closes(bars)
	last := bars[len(bars)-1]
	snap := &model.IndicatorSnapshot{
		LastClose:     last.Close,
		PrevClose:     bars[len(bars)-2].Close,
		CurrentVolume: last.Volume,
		Bars:          len(bars),
	}

	var err error
	if snap.EMAFast, err = CalculateEMA(closes, p.EMAFast); err != nil {
		return nil, fmt.Errorf("ema fast: %w", err)
	}
	if snap.EMAMid, err = CalculateEMA(closes, p.EMAMid); err != nil {
		return nil, fmt.Errorf("ema mid: %w", err)
	}
	if len(closes) >= p.EMASlow {
		if snap.EMASlow, err = CalculateEMA(closes, p.EMASlow); err != nil {
			return nil, fmt.Errorf("ema slow: %w", err)
		}
		snap.HasSlow = true
	}

	if snap.RSI, err = CalculateRSI(bars, p.RSIPeriod, p.RSIMethod); err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}

	if snap.AvgVolume, err = CalculateAverageVolume(bars, p.VolumeWindow); err != nil {
		return nil, fmt.Errorf("volume: %w", err)
	}
	snap.VolumeElevated = snap.CurrentVolume > snap.AvgVolume

	if _, snap.SupportLevel, err = CalculateWindowRange(bars, p.SupportWindow); err != nil {
		return nil, fmt.Errorf("support: %w", err)
	}
	if snap.ResistanceLevel, _, err = CalculateWindowRange(bars, p.ResistanceWindow); err != nil {
		return nil, fmt.Errorf("resistance: %w", err)
	}
	if _, snap.StopLevel, err = CalculateWindowRange(bars, p.StopWindow); err != nil {
		return nil, fmt.Errorf("stop: %w", err)
	}

	return snap, nil
}
