package filter

import (
	"math/rand/v2"
	"slices"
	"sync"

	"SignalRadar/internal/model"
)

// Policy controls how Commit updates the dedup window.
type Policy string

const (
	// PolicyReplace makes the window exactly the last delivered batch.
	PolicyReplace Policy = "replace"
	// PolicyRolling appends delivered tickers FIFO, bounded by WindowSize.
	PolicyRolling Policy = "rolling"
)

// TrackerConfig tunes the dedup window.
type TrackerConfig struct {
	Policy     Policy `yaml:"policy" default:"replace" validate:"oneof=replace rolling"`
	WindowSize int    `yaml:"window_size" default:"10" validate:"gte=1"`
	ResetAfter int    `yaml:"reset_after" default:"1" validate:"gte=1"`
}

// Selection is the outcome of one Select call.
type Selection struct {
	Picked   []model.SignalResult
	Eligible int  // candidates left after window exclusion
	Blocked  int  // candidates excluded by the window
	Reset    bool // the window was cleared by starvation
}

// Tracker remembers recently delivered tickers so consecutive cycles rotate
// through the candidates instead of repeating them.
type Tracker struct {
	mu      sync.Mutex
	cfg     TrackerConfig
	window  []string
	starved int
	shuffle func(n int, swap func(i, j int))
}

// NewTracker creates a Tracker. A nil rng uses the package-level source.
func NewTracker(cfg TrackerConfig, rng *rand.Rand) *Tracker {
	if cfg.Policy == "" {
		cfg.Policy = PolicyReplace
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 10
	}
	if cfg.ResetAfter <= 0 {
		cfg.ResetAfter = 1
	}
	t := &Tracker{cfg: cfg, shuffle: rand.Shuffle}
	if rng != nil {
		t.shuffle = rng.Shuffle
	}
	return t
}

// Select excludes window members, shuffles the rest and truncates to
// batchSize. When every candidate was blocked by the window, the starvation
// counter advances; after ResetAfter consecutive starved calls the window is
// cleared so the next cycle can deliver again.
func (t *Tracker) Select(candidates []model.SignalResult, batchSize int) Selection {
	t.mu.Lock()
	defer t.mu.Unlock()

	var sel Selection
	fresh := make([]model.SignalResult, 0, len(candidates))
	for _, c := range candidates {
		if slices.Contains(t.window, c.Ticker) {
			sel.Blocked++
			continue
		}
		fresh = append(fresh, c)
	}
	sel.Eligible = len(fresh)

	if len(fresh) == 0 {
		if sel.Blocked > 0 {
			t.starved++
			if t.starved >= t.cfg.ResetAfter {
				t.window = nil
				t.starved = 0
				sel.Reset = true
			}
		}
		return sel
	}
	t.starved = 0

	t.shuffle(len(fresh), func(i, j int) { fresh[i], fresh[j] = fresh[j], fresh[i] })
	if batchSize > 0 && len(fresh) > batchSize {
		fresh = fresh[:batchSize]
	}
	sel.Picked = fresh
	return sel
}

// Commit records a delivered batch.
func (t *Tracker) Commit(tickers []string) {
	if len(tickers) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.cfg.Policy {
	case PolicyRolling:
		for _, tk := range tickers {
			if i := slices.Index(t.window, tk); i >= 0 {
				t.window = slices.Delete(t.window, i, i+1)
			}
			t.window = append(t.window, tk)
		}
		if over := len(t.window) - t.cfg.WindowSize; over > 0 {
			t.window = slices.Clone(t.window[over:])
		}
	default:
		t.window = slices.Clone(tickers)
	}
}

// Window returns a copy of the tickers currently excluded.
func (t *Tracker) Window() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.window)
}

// Reset clears the window and the starvation counter.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.window = nil
	t.starved = 0
}
