package filter

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/shopspring/decimal"

	"SignalRadar/internal/model"
)

func sig(ticker string, status model.Status, price float64, elevated bool) model.SignalResult {
	return model.SignalResult{Ticker: ticker, Status: status, Price: price, VolumeElevated: elevated}
}

func buys(tickers ...string) []model.SignalResult {
	out := make([]model.SignalResult, len(tickers))
	for i, t := range tickers {
		out[i] = sig(t, model.StatusBuy, 100, false)
	}
	return out
}

var defaultAllow = Allow{Statuses: []model.Status{model.StatusBuy, model.StatusWatch}}

func TestActionable(t *testing.T) {
	in := []model.SignalResult{
		sig("A.JK", model.StatusBuy, 100, false),
		sig("B.JK", model.StatusWatch, 100, true),
		sig("C.JK", model.StatusWatch, 100, false),
		sig("D.JK", model.StatusSell, 100, true),
		sig("E.JK", model.StatusHold, 100, false),
	}

	got := model.Tickers(Actionable(in, defaultAllow))
	if !slices.Equal(got, []string{"A.JK", "B.JK"}) {
		t.Errorf("expected [A.JK B.JK], got %v", got)
	}

	anyVolume := defaultAllow
	anyVolume.WatchAnyVolume = true
	got = model.Tickers(Actionable(in, anyVolume))
	if !slices.Equal(got, []string{"A.JK", "B.JK", "C.JK"}) {
		t.Errorf("expected [A.JK B.JK C.JK] with any-volume watch, got %v", got)
	}

	buyOnly := Allow{Statuses: []model.Status{model.StatusBuy}}
	got = model.Tickers(Actionable(in, buyOnly))
	if !slices.Equal(got, []string{"A.JK"}) {
		t.Errorf("expected [A.JK] for buy-only, got %v", got)
	}
}

func TestAffordable(t *testing.T) {
	in := []model.SignalResult{
		sig("CHEAP.JK", model.StatusBuy, 500, false),
		sig("EXACT.JK", model.StatusBuy, 10000, false),
		sig("PRICEY.JK", model.StatusBuy, 15000, false),
	}

	got := model.Tickers(Affordable(in, decimal.NewFromInt(1_000_000), 100))
	if !slices.Equal(got, []string{"CHEAP.JK", "EXACT.JK"}) {
		t.Errorf("expected PRICEY.JK filtered at capital 1,000,000, got %v", got)
	}

	if got := Affordable(in, decimal.Zero, 100); len(got) != 0 {
		t.Errorf("expected nothing affordable at zero capital, got %v", model.Tickers(got))
	}

	// Non-positive lot size falls back to the board lot.
	got = model.Tickers(Affordable(in, decimal.NewFromInt(50_000), 0))
	if !slices.Equal(got, []string{"CHEAP.JK"}) {
		t.Errorf("expected default lot size of 100, got %v", got)
	}
}

func TestLotCost(t *testing.T) {
	if got := LotCost(1234.5, 100); !got.Equal(decimal.NewFromInt(123450)) {
		t.Errorf("expected 123450, got %s", got)
	}
}

func TestTracker_ExcludesWindowAndTruncates(t *testing.T) {
	tr := NewTracker(TrackerConfig{}, rand.New(rand.NewPCG(1, 2)))

	sel := tr.Select(buys("A.JK", "B.JK", "C.JK", "D.JK", "E.JK"), 3)
	if len(sel.Picked) != 3 {
		t.Fatalf("expected batch of 3, got %d", len(sel.Picked))
	}
	picked := model.Tickers(sel.Picked)
	tr.Commit(picked)

	sel = tr.Select(buys("A.JK", "B.JK", "C.JK", "D.JK", "E.JK"), 3)
	if sel.Blocked != 3 || sel.Eligible != 2 {
		t.Errorf("expected 3 blocked and 2 eligible, got %+v", sel)
	}
	for _, tk := range model.Tickers(sel.Picked) {
		if slices.Contains(picked, tk) {
			t.Errorf("%s was delivered last cycle and should be excluded", tk)
		}
	}
}

func TestTracker_ShuffleIsDeterministicWithSeed(t *testing.T) {
	cands := buys("A.JK", "B.JK", "C.JK", "D.JK", "E.JK", "F.JK")
	a := NewTracker(TrackerConfig{}, rand.New(rand.NewPCG(7, 7))).Select(cands, 6)
	b := NewTracker(TrackerConfig{}, rand.New(rand.NewPCG(7, 7))).Select(cands, 6)
	if !slices.Equal(model.Tickers(a.Picked), model.Tickers(b.Picked)) {
		t.Errorf("same seed should give same order: %v vs %v", model.Tickers(a.Picked), model.Tickers(b.Picked))
	}

	got := model.Tickers(a.Picked)
	slices.Sort(got)
	if !slices.Equal(got, []string{"A.JK", "B.JK", "C.JK", "D.JK", "E.JK", "F.JK"}) {
		t.Errorf("shuffle must be a permutation, got %v", got)
	}
	if !slices.Equal(model.Tickers(cands), []string{"A.JK", "B.JK", "C.JK", "D.JK", "E.JK", "F.JK"}) {
		t.Error("Select must not reorder the caller's slice")
	}
}

func TestTracker_StarvationReset(t *testing.T) {
	tr := NewTracker(TrackerConfig{ResetAfter: 2}, nil)
	tr.Commit([]string{"A.JK", "B.JK"})

	sel := tr.Select(buys("A.JK", "B.JK"), 3)
	if len(sel.Picked) != 0 || sel.Reset {
		t.Fatalf("first starved cycle should not reset yet: %+v", sel)
	}
	if len(tr.Window()) != 2 {
		t.Fatalf("window should still hold 2 tickers")
	}

	sel = tr.Select(buys("A.JK", "B.JK"), 3)
	if !sel.Reset {
		t.Fatalf("second consecutive starved cycle should reset: %+v", sel)
	}
	if len(tr.Window()) != 0 {
		t.Errorf("window should be empty after reset, got %v", tr.Window())
	}

	sel = tr.Select(buys("A.JK", "B.JK"), 3)
	if len(sel.Picked) != 2 {
		t.Errorf("after reset both candidates are eligible again, got %v", model.Tickers(sel.Picked))
	}
}

func TestTracker_NoCandidatesIsNotStarvation(t *testing.T) {
	tr := NewTracker(TrackerConfig{ResetAfter: 1}, nil)
	tr.Commit([]string{"A.JK"})

	sel := tr.Select(nil, 3)
	if sel.Reset {
		t.Error("an empty candidate list must not reset the window")
	}
	if !slices.Equal(tr.Window(), []string{"A.JK"}) {
		t.Errorf("window should be untouched, got %v", tr.Window())
	}
}

func TestTracker_StarvationCounterResetsOnDelivery(t *testing.T) {
	tr := NewTracker(TrackerConfig{ResetAfter: 2}, nil)
	tr.Commit([]string{"A.JK"})

	tr.Select(buys("A.JK"), 3)         // starved once
	tr.Select(buys("A.JK", "B.JK"), 3) // B.JK picked, counter cleared
	sel := tr.Select(buys("A.JK"), 3)  // starved once again
	if sel.Reset {
		t.Error("starvation must be consecutive to reset")
	}
}

func TestTracker_CommitPolicies(t *testing.T) {
	replace := NewTracker(TrackerConfig{Policy: PolicyReplace}, nil)
	replace.Commit([]string{"A.JK", "B.JK"})
	replace.Commit([]string{"C.JK"})
	if !slices.Equal(replace.Window(), []string{"C.JK"}) {
		t.Errorf("replace policy should keep only the last batch, got %v", replace.Window())
	}

	rolling := NewTracker(TrackerConfig{Policy: PolicyRolling, WindowSize: 3}, nil)
	rolling.Commit([]string{"A.JK", "B.JK"})
	rolling.Commit([]string{"C.JK", "A.JK"})
	if !slices.Equal(rolling.Window(), []string{"B.JK", "C.JK", "A.JK"}) {
		t.Errorf("expected re-delivered ticker moved to the back, got %v", rolling.Window())
	}
	rolling.Commit([]string{"D.JK"})
	if !slices.Equal(rolling.Window(), []string{"C.JK", "A.JK", "D.JK"}) {
		t.Errorf("expected oldest evicted at size 3, got %v", rolling.Window())
	}

	rolling.Commit(nil)
	if len(rolling.Window()) != 3 {
		t.Error("empty commit must not change the window")
	}

	rolling.Reset()
	if len(rolling.Window()) != 0 {
		t.Error("expected empty window after Reset")
	}
}
