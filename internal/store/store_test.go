package store

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"SignalRadar/internal/model"
)

func openSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "radar.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// backends runs fn against every Store implementation.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, openSQLite(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
}

func TestStore_Budget(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		got, err := s.GetBudget(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !got.IsZero() {
			t.Errorf("expected zero budget on a fresh store, got %s", got)
		}

		want := decimal.RequireFromString("2500000.50")
		if err := s.SetBudget(ctx, want); err != nil {
			t.Fatal(err)
		}
		if err := s.SetBudget(ctx, want); err != nil {
			t.Fatalf("setting the same budget twice should succeed: %v", err)
		}
		got, err = s.GetBudget(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(want) {
			t.Errorf("expected %s, got %s", want, got)
		}
	})
}

func TestStore_WatchlistIdempotent(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		added, err := s.AddTicker(ctx, "BBCA.JK")
		if err != nil || !added {
			t.Fatalf("expected first add to insert, got %v %v", added, err)
		}
		added, err = s.AddTicker(ctx, "BBCA.JK")
		if err != nil || added {
			t.Fatalf("expected duplicate add to be a no-op, got %v %v", added, err)
		}
		if _, err := s.AddTicker(ctx, "ASII.JK"); err != nil {
			t.Fatal(err)
		}

		list, err := s.ListWatchlist(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(list, []string{"ASII.JK", "BBCA.JK"}) {
			t.Errorf("expected sorted watchlist, got %v", list)
		}

		removed, err := s.RemoveTicker(ctx, "BBCA.JK")
		if err != nil || !removed {
			t.Fatalf("expected removal, got %v %v", removed, err)
		}
		removed, err = s.RemoveTicker(ctx, "BBCA.JK")
		if err != nil || removed {
			t.Fatalf("expected second removal to be a no-op, got %v %v", removed, err)
		}
	})
}

func TestStore_Subscribers(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		t0 := time.Unix(1_700_000_000, 0)

		if err := s.AddSubscriber(ctx, model.Subscription{ChatID: 20, UserID: 2, CreatedAt: t0.Add(time.Minute)}); err != nil {
			t.Fatal(err)
		}
		if err := s.AddSubscriber(ctx, model.Subscription{ChatID: 10, UserID: 1, CreatedAt: t0}); err != nil {
			t.Fatal(err)
		}
		if err := s.AddSubscriber(ctx, model.Subscription{ChatID: 10, UserID: 1, CreatedAt: t0.Add(time.Hour)}); err != nil {
			t.Fatal(err)
		}

		subs, err := s.ListSubscribers(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(subs) != 2 || subs[0].ChatID != 10 || subs[1].ChatID != 20 {
			t.Fatalf("expected [10 20] ordered by subscription time, got %+v", subs)
		}
		if !subs[0].CreatedAt.Equal(t0) {
			t.Errorf("re-subscribing must keep the original timestamp, got %s", subs[0].CreatedAt)
		}

		if err := s.RemoveSubscriber(ctx, 10); err != nil {
			t.Fatal(err)
		}
		if err := s.RemoveSubscriber(ctx, 10); err != nil {
			t.Fatalf("removing a missing subscriber should succeed: %v", err)
		}
		subs, _ = s.ListSubscribers(ctx)
		if len(subs) != 1 || subs[0].ChatID != 20 {
			t.Errorf("expected only chat 20 left, got %+v", subs)
		}
	})
}

func TestStore_RecordAndCountSignals(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		batch := SignalBatch{
			CycleID:     "cycle-1",
			DeliveredAt: time.Now(),
			Results: []model.SignalResult{
				{Ticker: "BBCA.JK", Status: model.StatusBuy, Condition: model.ConditionHealthyTrend, Price: 9500},
				{Ticker: "TLKM.JK", Status: model.StatusWatch, Condition: model.ConditionOversold, Price: 3100},
			},
		}
		if err := s.RecordSignals(ctx, batch); err != nil {
			t.Fatal(err)
		}
		if err := s.RecordSignals(ctx, SignalBatch{CycleID: "empty"}); err != nil {
			t.Fatalf("empty batch should be ignored: %v", err)
		}

		n, err := s.CountSignals(ctx, "")
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 {
			t.Errorf("expected 2 rows, got %d", n)
		}
		if n, _ := s.CountSignals(ctx, "TLKM.JK"); n != 1 {
			t.Errorf("expected 1 TLKM.JK row, got %d", n)
		}
	})
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radar.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetBudget(ctx, decimal.NewFromInt(1_000_000)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddTicker(ctx, "GOTO.JK"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	capital, _ := s.GetBudget(ctx)
	if !capital.Equal(decimal.NewFromInt(1_000_000)) {
		t.Errorf("expected budget to survive reopen, got %s", capital)
	}
	list, _ := s.ListWatchlist(ctx)
	if !slices.Equal(list, []string{"GOTO.JK"}) {
		t.Errorf("expected watchlist to survive reopen, got %v", list)
	}
}

func TestMemoryStore_History(t *testing.T) {
	s := NewMemoryStore()
	results := []model.SignalResult{{Ticker: "BBCA.JK", Status: model.StatusBuy}}
	if err := s.RecordSignals(context.Background(), SignalBatch{CycleID: "c1", Results: results}); err != nil {
		t.Fatal(err)
	}
	results[0].Ticker = "MUTATED"

	h := s.History()
	if len(h) != 1 || h[0].Results[0].Ticker != "BBCA.JK" {
		t.Errorf("history should hold an independent copy, got %+v", h)
	}
}
