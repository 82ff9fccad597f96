package model

// IndicatorSnapshot holds the indicators derived from one series.
type IndicatorSnapshot struct {
	EMAFast float64
	EMAMid  float64
	EMASlow float64
	HasSlow bool // EMASlow is only meaningful when the series covers its span

	RSI float64

	AvgVolume      float64
	CurrentVolume  float64
	VolumeElevated bool

	SupportLevel    float64 // min low over the support window
	ResistanceLevel float64 // max high over the resistance window
	StopLevel       float64 // min low over the short stop window

	LastClose float64
	PrevClose float64
	Bars      int
}
