package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"SignalRadar/internal/budget"
	"SignalRadar/internal/model"
	"SignalRadar/internal/notifier"
)

// HandleCommand processes a chat message and returns the reply. Messages
// from users outside the authorised list get no reply at all.
func (s *Scheduler) HandleCommand(ctx context.Context, msg notifier.Message) string {
	if !slices.Contains(s.Opts.AuthorizedIDs, msg.UserID) {
		log.Warn().Int64("user_id", msg.UserID).Str("username", msg.Username).Msg("unauthorized message ignored")
		return ""
	}

	fields := strings.Fields(msg.Text)
	if len(fields) == 0 {
		return ""
	}
	cmd := strings.ToLower(fields[0])
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	args := fields[1:]

	if !strings.HasPrefix(cmd, "/") {
		if capital, err := budget.ParseCapital(msg.Text); err == nil {
			return s.setCapital(ctx, capital)
		}
		return ""
	}

	switch cmd {
	case "/start":
		return s.cmdStart(ctx, msg)
	case "/stop":
		return s.cmdStop(ctx, msg)
	case "/add":
		return s.cmdAdd(ctx, args)
	case "/remove":
		return s.cmdRemove(ctx, args)
	case "/list":
		return s.cmdList(ctx)
	case "/scan":
		return s.cmdScan(ctx)
	case "/modal":
		return s.cmdModal(ctx, args)
	case "/ubah_modal":
		return "Masukkan modal baru (angka):"
	case "/status":
		return s.cmdStatus(ctx)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) cmdStart(ctx context.Context, msg notifier.Message) string {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	if err := s.Store.AddSubscriber(ctx, model.Subscription{ChatID: msg.ChatID, UserID: msg.UserID}); err != nil {
		log.Error().Err(err).Int64("chat_id", msg.ChatID).Msg("subscribe")
		return "❌ Gagal mengaktifkan radar, coba lagi."
	}
	capital := s.Budget.Capital()
	reply := fmt.Sprintf("🚀 <b>Radar aktif</b>\nModal: %s\nSinyal dikirim tiap %s saat bursa buka.",
		notifier.FormatRupiah(capital), s.Opts.Interval)
	if !capital.IsPositive() {
		reply += "\n\n⚠️ Modal belum diatur. Kirim angka atau /modal 5000000."
	}
	return reply + "\n\n/help untuk daftar perintah."
}

func (s *Scheduler) cmdStop(ctx context.Context, msg notifier.Message) string {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	if err := s.Store.RemoveSubscriber(ctx, msg.ChatID); err != nil {
		log.Error().Err(err).Int64("chat_id", msg.ChatID).Msg("unsubscribe")
		return "❌ Gagal menghentikan radar, coba lagi."
	}
	return "⏹ Sinyal otomatis dihentikan. /start untuk mengaktifkan lagi."
}

func (s *Scheduler) cmdAdd(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Format: /add KODE (contoh: /add BBCA)"
	}
	ticker, err := model.NormalizeTicker(args[0], s.Opts.TickerSuffix)
	if err != nil {
		return fmt.Sprintf("❌ Kode saham tidak valid: %s", args[0])
	}
	name := model.BaseSymbol(ticker)

	// Validate against the provider before touching the watchlist.
	if _, err := s.Scanner.Analyze(ctx, ticker, s.Opts.ScanWindow); err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidTicker):
			return fmt.Sprintf("❌ %s tidak ditemukan.", name)
		case errors.Is(err, model.ErrInsufficientData):
			// Known symbol with a short history; accept it.
		default:
			log.Warn().Err(err).Str("ticker", ticker).Str("kind", model.ErrorKind(err)).Msg("validate ticker")
			return fmt.Sprintf("⚠️ Gagal memeriksa %s, coba lagi nanti.", name)
		}
	}

	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	added, err := s.Store.AddTicker(ctx, ticker)
	if err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("add ticker")
		return "❌ Gagal menyimpan watchlist."
	}
	if !added {
		return fmt.Sprintf("ℹ️ %s sudah ada di watchlist.", name)
	}
	return fmt.Sprintf("✅ %s ditambah.", name)
}

func (s *Scheduler) cmdRemove(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Format: /remove KODE (contoh: /remove BBCA)"
	}
	ticker, err := model.NormalizeTicker(args[0], s.Opts.TickerSuffix)
	if err != nil {
		return fmt.Sprintf("❌ Kode saham tidak valid: %s", args[0])
	}
	name := model.BaseSymbol(ticker)

	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	removed, err := s.Store.RemoveTicker(ctx, ticker)
	if err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("remove ticker")
		return "❌ Gagal menyimpan watchlist."
	}
	if !removed {
		return fmt.Sprintf("ℹ️ %s tidak ada di watchlist.", name)
	}
	return fmt.Sprintf("🗑 %s dihapus.", name)
}

func (s *Scheduler) cmdList(ctx context.Context) string {
	list, err := s.Store.ListWatchlist(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list watchlist")
		return "❌ Gagal membaca watchlist."
	}
	return notifier.FormatWatchlist(list)
}

// cmdScan analyzes the whole watchlist on demand. It reports every ticker
// and leaves the dedup window alone.
func (s *Scheduler) cmdScan(ctx context.Context) string {
	list, err := s.Store.ListWatchlist(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list watchlist")
		return "❌ Gagal membaca watchlist."
	}
	if len(list) == 0 {
		return "📋 Watchlist kosong. Tambah dengan /add KODE."
	}
	s.Metrics.ScanStarted("manual")
	results := s.Scanner.Scan(ctx, list, s.Opts.ScanWindow)
	return notifier.FormatScanReport(results, len(list), s.Budget, s.Opts.LotSize)
}

func (s *Scheduler) cmdModal(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return fmt.Sprintf("💰 Modal saat ini: %s\nUbah dengan /modal 5000000 atau kirim angka.",
			notifier.FormatRupiah(s.Budget.Capital()))
	}
	capital, err := budget.ParseCapital(strings.Join(args, " "))
	if err != nil {
		return "❌ Modal harus berupa angka, contoh: /modal 5000000"
	}
	return s.setCapital(ctx, capital)
}

func (s *Scheduler) setCapital(ctx context.Context, capital decimal.Decimal) string {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	if err := s.Budget.SetCapital(ctx, capital); err != nil {
		log.Error().Err(err).Msg("set capital")
		return "❌ Gagal menyimpan modal."
	}
	log.Info().Str("capital", capital.String()).Msg("capital updated")
	return fmt.Sprintf("✅ Modal %s disimpan.", notifier.FormatRupiah(capital))
}

func (s *Scheduler) cmdStatus(ctx context.Context) string {
	watchlist, err := s.Store.ListWatchlist(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list watchlist")
	}
	subs, err := s.Store.ListSubscribers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list subscribers")
	}
	total, err := s.Store.CountSignals(ctx, "")
	if err != nil {
		log.Error().Err(err).Msg("count signals")
	}
	last := s.LastCycle()
	return notifier.FormatStatus(notifier.StatusInfo{
		Market:      s.Session.Status(s.now()),
		Capital:     s.Budget.Capital(),
		Watchlist:   len(watchlist),
		Radar:       len(s.Opts.Radar),
		Subscribers: len(subs),
		Window:      s.Tracker.Window(),
		LastCycle:   last.At,
		LastSent:    len(last.Selected),
		TotalSent:   total,
	})
}
