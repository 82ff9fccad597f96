// Package store persists settings (capital, watchlist, chat subscriptions)
// and the history of delivered signals.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"SignalRadar/internal/model"
)

// SignalBatch is one delivered batch of signals.
type SignalBatch struct {
	CycleID     string
	DeliveredAt time.Time
	Results     []model.SignalResult
}

// Store is the settings and history backend. Every mutation is idempotent:
// adding an existing ticker or subscriber, or removing a missing one, is not
// an error.
type Store interface {
	GetBudget(ctx context.Context) (decimal.Decimal, error)
	SetBudget(ctx context.Context, capital decimal.Decimal) error

	ListWatchlist(ctx context.Context) ([]string, error)
	// AddTicker reports whether the ticker was newly added.
	AddTicker(ctx context.Context, ticker string) (bool, error)
	// RemoveTicker reports whether the ticker was present.
	RemoveTicker(ctx context.Context, ticker string) (bool, error)

	AddSubscriber(ctx context.Context, sub model.Subscription) error
	RemoveSubscriber(ctx context.Context, chatID int64) error
	ListSubscribers(ctx context.Context) ([]model.Subscription, error)

	RecordSignals(ctx context.Context, batch SignalBatch) error
	// CountSignals counts delivered signals for ticker, or all when ticker is "".
	CountSignals(ctx context.Context, ticker string) (int, error)
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
