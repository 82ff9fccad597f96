package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"SignalRadar/internal/model"
)

// MemoryStore keeps everything in process memory. Used in tests and when no
// database path is configured.
type MemoryStore struct {
	mu          sync.Mutex
	capital     decimal.Decimal
	watchlist   map[string]struct{}
	subscribers map[int64]model.Subscription
	history     []SignalBatch
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		watchlist:   make(map[string]struct{}),
		subscribers: make(map[int64]model.Subscription),
	}
}

func (m *MemoryStore) GetBudget(context.Context) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capital, nil
}

func (m *MemoryStore) SetBudget(_ context.Context, capital decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.capital = capital
	return nil
}

func (m *MemoryStore) ListWatchlist(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.watchlist))
	for t := range m.watchlist {
		out = append(out, t)
	}
	slices.Sort(out)
	return out, nil
}

func (m *MemoryStore) AddTicker(_ context.Context, ticker string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.watchlist[ticker]; ok {
		return false, nil
	}
	m.watchlist[ticker] = struct{}{}
	return true, nil
}

func (m *MemoryStore) RemoveTicker(_ context.Context, ticker string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.watchlist[ticker]; !ok {
		return false, nil
	}
	delete(m.watchlist, ticker)
	return true, nil
}

func (m *MemoryStore) AddSubscriber(_ context.Context, sub model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscribers[sub.ChatID]; ok {
		return nil
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	m.subscribers[sub.ChatID] = sub
	return nil
}

func (m *MemoryStore) RemoveSubscriber(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, chatID)
	return nil
}

func (m *MemoryStore) ListSubscribers(context.Context) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Subscription, 0, len(m.subscribers))
	for _, s := range m.subscribers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ChatID < out[j].ChatID
	})
	return out, nil
}

func (m *MemoryStore) RecordSignals(_ context.Context, batch SignalBatch) error {
	if len(batch.Results) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	batch.Results = slices.Clone(batch.Results)
	m.history = append(m.history, batch)
	return nil
}

// History returns the recorded batches, oldest first.
func (m *MemoryStore) History() []SignalBatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.history)
}

func (m *MemoryStore) CountSignals(_ context.Context, ticker string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, batch := range m.history {
		for _, r := range batch.Results {
			if ticker == "" || r.Ticker == ticker {
				n++
			}
		}
	}
	return n, nil
}

func (m *MemoryStore) Close() error { return nil }
