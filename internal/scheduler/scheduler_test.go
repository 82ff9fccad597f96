package scheduler

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"SignalRadar/internal/budget"
	"SignalRadar/internal/calculator"
	"SignalRadar/internal/collector"
	"SignalRadar/internal/filter"
	"SignalRadar/internal/markethours"
	"SignalRadar/internal/metrics"
	"SignalRadar/internal/model"
	"SignalRadar/internal/scanner"
	"SignalRadar/internal/store"
	"SignalRadar/internal/strategy"
)

type delivery struct {
	chatID int64
	text   string
}

// fakeMessenger records deliveries; chats listed in fail always error.
type fakeMessenger struct {
	mu   sync.Mutex
	sent []delivery
	fail map[int64]bool
}

func (f *fakeMessenger) SendWithRetry(_ context.Context, chatID int64, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[chatID] {
		return errors.New("telegram down")
	}
	f.sent = append(f.sent, delivery{chatID, text})
	return nil
}

func (f *fakeMessenger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fixture struct {
	sched   *Scheduler
	store   *store.MemoryStore
	fetcher *collector.MockFetcher
	msg     *fakeMessenger
	session *markethours.Session
}

// tuesdayOpen is 10:00 WIB on a Tuesday.
func (f *fixture) tuesdayOpen() time.Time {
	return time.Date(2025, 3, 4, 10, 0, 0, 0, f.session.Location)
}

// newFixture builds a scheduler over a mock radar of rising zigzag series
// (BUY signals priced around 130) with capital 1,000,000 and one subscriber.
func newFixture(t *testing.T, radar ...string) *fixture {
	t.Helper()
	ctx := context.Background()

	session, err := markethours.IDX()
	if err != nil {
		t.Fatal(err)
	}
	st := store.NewMemoryStore()
	bm, err := budget.NewManager(ctx, st, decimal.NewFromInt(1_000_000))
	if err != nil {
		t.Fatal(err)
	}
	if err := st.AddSubscriber(ctx, model.Subscription{ChatID: 100, UserID: 1}); err != nil {
		t.Fatal(err)
	}

	bars := make(map[string][]model.OHLCV, len(radar))
	for _, tk := range radar {
		bars[tk] = collector.GenerateZigzagBars(100, 60, 2, 1)
	}
	fetcher := &collector.MockFetcher{Bars: bars}
	sc := scanner.New(fetcher, nil, calculator.DefaultParams(), strategy.DefaultRules())
	tracker := filter.NewTracker(filter.TrackerConfig{}, rand.New(rand.NewPCG(1, 1)))
	msg := &fakeMessenger{}

	opts := Options{
		Interval:      5 * time.Minute,
		BatchSize:     3,
		LotSize:       100,
		Window:        model.Window{Period: "3mo", Interval: "1d"},
		Radar:         radar,
		Allow:         filter.Allow{Statuses: []model.Status{model.StatusBuy, model.StatusWatch}},
		AuthorizedIDs: []int64{1},
	}
	sched := NewScheduler(sc, tracker, bm, st, session, msg, metrics.New(), opts)
	f := &fixture{sched: sched, store: st, fetcher: fetcher, msg: msg, session: session}
	sched.Now = f.tuesdayOpen
	return f
}

func TestRunCycle_MarketClosed(t *testing.T) {
	f := newFixture(t, "AAAA.JK")
	saturday := time.Date(2025, 3, 8, 10, 0, 0, 0, f.session.Location)

	rep := f.sched.RunCycle(context.Background(), saturday)
	if rep.Skipped != SkipMarketClosed {
		t.Errorf("expected market_closed, got %q", rep.Skipped)
	}
	if f.fetcher.CallCount("AAAA.JK") != 0 {
		t.Error("no scan should run while the market is closed")
	}
	if f.msg.count() != 0 {
		t.Error("no message should be sent while the market is closed")
	}
}

func TestRunCycle_SkipsWithoutSubscribersOrCapital(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, "AAAA.JK")
	f.store.RemoveSubscriber(ctx, 100)
	if rep := f.sched.RunCycle(ctx, f.tuesdayOpen()); rep.Skipped != SkipNoSubscribers {
		t.Errorf("expected no_subscribers, got %q", rep.Skipped)
	}

	f = newFixture(t, "AAAA.JK")
	f.sched.Budget.SetCapital(ctx, decimal.Zero)
	if rep := f.sched.RunCycle(ctx, f.tuesdayOpen()); rep.Skipped != SkipNoCapital {
		t.Errorf("expected no_capital, got %q", rep.Skipped)
	}
	if f.fetcher.CallCount("AAAA.JK") != 0 {
		t.Error("no scan should run without capital")
	}
}

func TestRunCycle_DeliversBatchAndCommits(t *testing.T) {
	f := newFixture(t, "A.JK", "B.JK", "C.JK", "D.JK", "E.JK")
	ctx := context.Background()
	f.store.AddSubscriber(ctx, model.Subscription{ChatID: 200, UserID: 2})

	rep := f.sched.RunCycle(ctx, f.tuesdayOpen())
	if rep.Skipped != "" {
		t.Fatalf("unexpected skip %q", rep.Skipped)
	}
	if rep.Results != 5 || rep.Actionable != 5 || rep.Affordable != 5 {
		t.Errorf("unexpected funnel %+v", rep)
	}
	if len(rep.Selected) != 3 {
		t.Fatalf("expected batch of 3, got %d", len(rep.Selected))
	}
	if rep.Delivered != 2 || f.msg.count() != 2 {
		t.Errorf("expected delivery to both chats, got %d", rep.Delivered)
	}

	selected := model.Tickers(rep.Selected)
	window := f.sched.Tracker.Window()
	slices.Sort(selected)
	slices.Sort(window)
	if !slices.Equal(selected, window) {
		t.Errorf("window %v should equal delivered batch %v", window, selected)
	}
	if h := f.store.History(); len(h) != 1 || h[0].CycleID != rep.CycleID || len(h[0].Results) != 3 {
		t.Errorf("expected history for the cycle, got %+v", h)
	}
	if got := f.sched.LastBatch(); len(got) != 3 {
		t.Errorf("expected last batch of 3, got %d", len(got))
	}

	// The next cycle only offers the two tickers not yet delivered.
	rep2 := f.sched.RunCycle(ctx, f.tuesdayOpen().Add(5*time.Minute))
	if len(rep2.Selected) != 2 {
		t.Fatalf("expected the 2 remaining tickers, got %v", model.Tickers(rep2.Selected))
	}
	for _, tk := range model.Tickers(rep2.Selected) {
		if slices.Contains(selected, tk) {
			t.Errorf("%s was delivered in the previous cycle", tk)
		}
	}
}

func TestRunCycle_FiltersUnaffordable(t *testing.T) {
	f := newFixture(t, "CHEAP.JK", "PRICEY.JK")
	f.fetcher.Bars["PRICEY.JK"] = collector.GenerateZigzagBars(14900, 60, 2, 1)

	rep := f.sched.RunCycle(context.Background(), f.tuesdayOpen())
	if got := model.Tickers(rep.Selected); !slices.Equal(got, []string{"CHEAP.JK"}) {
		t.Errorf("expected only CHEAP.JK within a 1,000,000 budget, got %v", got)
	}
	if rep.Actionable != 2 || rep.Affordable != 1 {
		t.Errorf("unexpected funnel %+v", rep)
	}
}

func TestRunCycle_FailedDeliveryKeepsWindow(t *testing.T) {
	f := newFixture(t, "A.JK", "B.JK")
	f.msg.fail = map[int64]bool{100: true}

	rep := f.sched.RunCycle(context.Background(), f.tuesdayOpen())
	if rep.Delivered != 0 || rep.Failed != 1 {
		t.Errorf("expected one failed delivery, got %+v", rep)
	}
	if len(f.sched.Tracker.Window()) != 0 {
		t.Error("window must not be committed when nothing was delivered")
	}
	if len(f.store.History()) != 0 {
		t.Error("history must not be recorded when nothing was delivered")
	}

	f.msg.fail = nil
	rep = f.sched.RunCycle(context.Background(), f.tuesdayOpen())
	if len(rep.Selected) != 2 {
		t.Errorf("expected the same tickers to be retried next cycle, got %v", model.Tickers(rep.Selected))
	}
}

func TestRunCycle_StarvationResetsWindow(t *testing.T) {
	f := newFixture(t, "A.JK", "B.JK")
	ctx := context.Background()

	first := f.sched.RunCycle(ctx, f.tuesdayOpen())
	if len(first.Selected) != 2 {
		t.Fatalf("expected both tickers first, got %v", model.Tickers(first.Selected))
	}

	starved := f.sched.RunCycle(ctx, f.tuesdayOpen())
	if len(starved.Selected) != 0 || !starved.Reset {
		t.Fatalf("expected an empty, resetting cycle, got %+v", starved)
	}

	again := f.sched.RunCycle(ctx, f.tuesdayOpen())
	if len(again.Selected) != 2 {
		t.Errorf("expected tickers again after the reset, got %v", model.Tickers(again.Selected))
	}
	if f.msg.count() != 2 {
		t.Errorf("expected 2 deliveries over three cycles, got %d", f.msg.count())
	}
}

func TestRunCycle_FailedTickersOmitted(t *testing.T) {
	f := newFixture(t, "GOOD.JK", "BAD.JK")
	f.fetcher.Errs = map[string]error{"BAD.JK": &model.FetchError{Ticker: "BAD.JK", Err: errors.New("timeout")}}

	rep := f.sched.RunCycle(context.Background(), f.tuesdayOpen())
	if rep.Results != 1 {
		t.Errorf("expected 1 result, got %d", rep.Results)
	}
	if got := model.Tickers(rep.Selected); !slices.Equal(got, []string{"GOOD.JK"}) {
		t.Errorf("expected GOOD.JK delivered, got %v", got)
	}
}

func TestRegisterAndStop(t *testing.T) {
	f := newFixture(t, "A.JK")
	if err := f.sched.Register(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := len(f.sched.Cron.Entries()); n != 1 {
		t.Fatalf("expected 1 cron entry, got %d", n)
	}
	f.sched.Start()
	f.sched.Stop()
}
