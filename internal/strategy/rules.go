package strategy

// Rules holds the classifier thresholds. Values are heuristic, not optimised;
// every field is a policy choice surfaced in configuration.
type Rules struct {
	BuyRSIMin     float64 `yaml:"buy_rsi_min" default:"45" validate:"gte=0,lte=100"`
	BuyRSIMax     float64 `yaml:"buy_rsi_max" default:"70" validate:"gtefield=BuyRSIMin,lte=100"`
	OversoldRSI   float64 `yaml:"oversold_rsi" default:"35" validate:"gte=0,lte=100"`
	VolumeSpike   float64 `yaml:"volume_spike" default:"1.5" validate:"gt=0"`
	TakeProfitPct float64 `yaml:"take_profit_pct" default:"0.05" validate:"gt=0,lt=1"`
	StopLossPct   float64 `yaml:"stop_loss_pct" default:"0.03" validate:"gt=0,lt=1"`
	EntryBandPct  float64 `yaml:"entry_band_pct" default:"0.02" validate:"gte=0,lt=1"`
}

// DefaultRules returns the canonical threshold set.
func DefaultRules() Rules {
	return Rules{
		BuyRSIMin:     45,
		BuyRSIMax:     70,
		OversoldRSI:   35,
		VolumeSpike:   1.5,
		TakeProfitPct: 0.05,
		StopLossPct:   0.03,
		EntryBandPct:  0.02,
	}
}
