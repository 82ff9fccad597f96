package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"SignalRadar/internal/model"
)

const settingCapital = "capital"

// SQLiteStore persists everything to a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serialises writers; WAL keeps external readers unblocked.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS watchlist (
			ticker   TEXT PRIMARY KEY,
			added_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS subscriptions (
			chat_id    INTEGER PRIMARY KEY,
			user_id    INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS signal_history (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id     TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			ticker       TEXT NOT NULL,
			status       TEXT NOT NULL,
			condition    TEXT,
			price        REAL,
			price_source TEXT,
			entry_low    REAL,
			entry_high   REAL,
			take_profit  REAL,
			stop_loss    REAL,
			rsi          REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_ts ON signal_history(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_ticker ON signal_history(ticker)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) GetBudget(ctx context.Context) (decimal.Decimal, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, settingCapital).Scan(&raw)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get budget: %w", err)
	}
	capital, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse stored budget %q: %w", raw, err)
	}
	return capital, nil
}

func (s *SQLiteStore) SetBudget(ctx context.Context, capital decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		settingCapital, capital.String(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListWatchlist(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ticker FROM watchlist ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan watchlist row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddTicker(ctx context.Context, ticker string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO watchlist (ticker, added_at) VALUES (?, ?)`,
		ticker, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("add ticker %s: %w", ticker, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) RemoveTicker(ctx context.Context, ticker string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM watchlist WHERE ticker = ?`, ticker)
	if err != nil {
		return false, fmt.Errorf("remove ticker %s: %w", ticker, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) AddSubscriber(ctx context.Context, sub model.Subscription) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO subscriptions (chat_id, user_id, created_at) VALUES (?, ?, ?)`,
		sub.ChatID, sub.UserID, sub.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("add subscriber %d: %w", sub.ChatID, err)
	}
	return nil
}

func (s *SQLiteStore) RemoveSubscriber(ctx context.Context, chatID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("remove subscriber %d: %w", chatID, err)
	}
	return nil
}

func (s *SQLiteStore) ListSubscribers(ctx context.Context) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chat_id, user_id, created_at FROM subscriptions ORDER BY created_at, chat_id`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var out []model.Subscription
	for rows.Next() {
		var sub model.Subscription
		var created int64
		if err := rows.Scan(&sub.ChatID, &sub.UserID, &created); err != nil {
			return nil, fmt.Errorf("scan subscriber row: %w", err)
		}
		sub.CreatedAt = time.Unix(created, 0)
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) RecordSignals(ctx context.Context, batch SignalBatch) error {
	if len(batch.Results) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO signal_history
		(cycle_id, timestamp, ticker, status, condition, price, price_source,
		 entry_low, entry_high, take_profit, stop_loss, rsi)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	ts := batch.DeliveredAt.Unix()
	for _, r := range batch.Results {
		if _, err := stmt.ExecContext(ctx,
			batch.CycleID, ts, r.Ticker, string(r.Status), string(r.Condition),
			r.Price, string(r.PriceSource),
			r.EntryLow, r.EntryHigh, r.TakeProfit, r.StopLoss, r.RSI,
		); err != nil {
			return fmt.Errorf("insert %s: %w", r.Ticker, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) CountSignals(ctx context.Context, ticker string) (int, error) {
	q := `SELECT COUNT(*) FROM signal_history`
	args := []any{}
	if ticker != "" {
		q += ` WHERE ticker = ?`
		args = append(args, ticker)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count signals: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
