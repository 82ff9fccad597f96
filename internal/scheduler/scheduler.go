package scheduler

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"SignalRadar/internal/budget"
	"SignalRadar/internal/filter"
	"SignalRadar/internal/markethours"
	"SignalRadar/internal/metrics"
	"SignalRadar/internal/model"
	"SignalRadar/internal/notifier"
	"SignalRadar/internal/scanner"
	"SignalRadar/internal/store"
	"SignalRadar/internal/telemetry"
)

// Skip reasons reported by RunCycle.
const (
	SkipMarketClosed  = "market_closed"
	SkipNoSubscribers = "no_subscribers"
	SkipNoCapital     = "no_capital"
	SkipStoreError    = "store_error"
)

// Options tunes the scheduled radar and command handling.
type Options struct {
	Interval      time.Duration
	BatchSize     int
	LotSize       int
	Window        model.Window // scheduled radar scans
	ScanWindow    model.Window // /scan and /add validation
	Radar         []string
	Allow         filter.Allow
	SendRetries   int
	AuthorizedIDs []int64
	TickerSuffix  string
}

// CycleReport summarises one RunCycle call.
type CycleReport struct {
	CycleID    string
	At         time.Time
	Skipped    string
	Scanned    int
	Results    int
	Actionable int
	Affordable int
	Selected   []model.SignalResult
	Delivered  int // chats that received the batch
	Failed     int // chats whose delivery failed after retries
	Reset      bool
}

// Scheduler runs the periodic radar and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Scanner   *scanner.Scanner
	Tracker   *filter.Tracker
	Budget    *budget.Manager
	Store     store.Store
	Session   *markethours.Session
	Messenger notifier.Messenger
	Metrics   *metrics.Metrics
	Opts      Options
	Now       func() time.Time

	// cycleMu serialises scheduled cycles and state-changing commands.
	cycleMu sync.Mutex

	stateMu   sync.RWMutex
	last      CycleReport
	lastBatch []model.SignalResult
}

// NewScheduler creates a new Scheduler. The cron runs in the session's
// timezone and skips a tick while the previous cycle is still running.
func NewScheduler(sc *scanner.Scanner, tr *filter.Tracker, bm *budget.Manager, st store.Store,
	session *markethours.Session, msg notifier.Messenger, m *metrics.Metrics, opts Options) *Scheduler {
	if opts.LotSize <= 0 {
		opts.LotSize = filter.DefaultLotSize
	}
	if opts.TickerSuffix == "" {
		opts.TickerSuffix = model.DefaultSuffix
	}
	if opts.ScanWindow == (model.Window{}) {
		opts.ScanWindow = opts.Window
	}
	logger := cronLogger{}
	return &Scheduler{
		Cron: cron.New(
			cron.WithLocation(session.Location),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		Scanner:   sc,
		Tracker:   tr,
		Budget:    bm,
		Store:     st,
		Session:   session,
		Messenger: msg,
		Metrics:   m,
		Opts:      opts,
	}
}

// Register adds the interval job. ctx bounds every cycle it starts.
func (s *Scheduler) Register(ctx context.Context) error {
	expr := fmt.Sprintf("@every %s", s.Opts.Interval)
	if _, err := s.Cron.AddFunc(expr, func() { s.RunCycle(ctx, s.now()) }); err != nil {
		return fmt.Errorf("register radar job: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Dur("interval", s.Opts.Interval).Int("radar", len(s.Opts.Radar)).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunCycle runs one scheduled radar pass at now. It is a no-op outside market
// hours, without subscribers or without capital. The dedup window is only
// committed when at least one chat received the batch.
func (s *Scheduler) RunCycle(ctx context.Context, now time.Time) CycleReport {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	start := time.Now()
	rep := CycleReport{CycleID: uuid.NewString(), At: now}
	ctx, span := telemetry.StartSpan(ctx, "scheduler.RunCycle", attribute.String("cycle_id", rep.CycleID))
	defer span.End()

	l := log.With().Str("cycle_id", rep.CycleID).Logger()
	defer func() {
		span.SetAttributes(attribute.String("skipped", rep.Skipped), attribute.Int("selected", len(rep.Selected)))
		s.Metrics.ObserveCycle(time.Since(start))
		s.Metrics.SetDedupWindow(len(s.Tracker.Window()))
		s.stateMu.Lock()
		s.last = rep
		s.stateMu.Unlock()
	}()

	open := s.Session.IsOpen(now)
	s.Metrics.SetMarketOpen(open)
	if !open {
		return s.skip(&rep, SkipMarketClosed)
	}

	subs, err := s.Store.ListSubscribers(ctx)
	if err != nil {
		l.Error().Err(err).Msg("list subscribers")
		telemetry.RecordError(span, err)
		return s.skip(&rep, SkipStoreError)
	}
	if len(subs) == 0 {
		return s.skip(&rep, SkipNoSubscribers)
	}
	capital := s.Budget.Capital()
	if !capital.IsPositive() {
		return s.skip(&rep, SkipNoCapital)
	}

	s.Metrics.ScanStarted("scheduled")
	results := s.Scanner.Scan(ctx, s.Opts.Radar, s.Opts.Window)
	actionable := filter.Actionable(results, s.Opts.Allow)
	affordable := filter.Affordable(actionable, capital, s.Opts.LotSize)
	sel := s.Tracker.Select(affordable, s.Opts.BatchSize)

	rep.Scanned = len(s.Opts.Radar)
	rep.Results = len(results)
	rep.Actionable = len(actionable)
	rep.Affordable = len(affordable)
	rep.Reset = sel.Reset
	if sel.Reset {
		s.Metrics.DedupReset()
		l.Info().Int("blocked", sel.Blocked).Msg("dedup window reset after starvation")
	}
	if len(sel.Picked) == 0 {
		l.Info().
			Int("results", rep.Results).
			Int("affordable", rep.Affordable).
			Int("blocked", sel.Blocked).
			Msg("no new signals this cycle")
		return rep
	}

	text := notifier.FormatSignalBatch(sel.Picked, now.In(s.Session.Location))
	for _, sub := range subs {
		if err := s.Messenger.SendWithRetry(ctx, sub.ChatID, text, s.Opts.SendRetries); err != nil {
			rep.Failed++
			l.Error().Err(err).Int64("chat_id", sub.ChatID).Msg("deliver signal batch")
			continue
		}
		rep.Delivered++
	}
	if rep.Delivered == 0 {
		s.Metrics.DeliveryFailed()
		l.Warn().Int("chats", len(subs)).Msg("batch not delivered to any chat, dedup window unchanged")
		return rep
	}

	rep.Selected = sel.Picked
	tickers := model.Tickers(sel.Picked)
	s.Tracker.Commit(tickers)
	s.Metrics.Delivered(len(sel.Picked))
	if err := s.Store.RecordSignals(ctx, store.SignalBatch{
		CycleID:     rep.CycleID,
		DeliveredAt: now,
		Results:     sel.Picked,
	}); err != nil {
		l.Error().Err(err).Msg("record signal history")
	}

	s.stateMu.Lock()
	s.lastBatch = slices.Clone(sel.Picked)
	s.stateMu.Unlock()

	l.Info().Strs("tickers", tickers).Int("chats", rep.Delivered).Msg("signal batch delivered")
	return rep
}

func (s *Scheduler) skip(rep *CycleReport, reason string) CycleReport {
	rep.Skipped = reason
	s.Metrics.CycleSkipped(reason)
	log.Debug().Str("cycle_id", rep.CycleID).Str("reason", reason).Msg("cycle skipped")
	return *rep
}

// LastBatch returns the most recently delivered signals.
func (s *Scheduler) LastBatch() []model.SignalResult {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return slices.Clone(s.lastBatch)
}

// LastCycle returns the report of the most recent cycle.
func (s *Scheduler) LastCycle() CycleReport {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.last
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// cronLogger routes cron's internal logging through zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
