package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"SignalRadar/internal/filter"
	"SignalRadar/internal/model"
)

var statusIcon = map[model.Status]string{
	model.StatusBuy:   "🟢",
	model.StatusWatch: "🟡",
	model.StatusSell:  "🔴",
	model.StatusHold:  "⚪",
}

var conditionLabel = map[model.Condition]string{
	model.ConditionAccumulation: "Akumulasi (volume tinggi)",
	model.ConditionHealthyTrend: "Tren sehat",
	model.ConditionOversold:     "Jenuh jual",
	model.ConditionDistribution: "Distribusi (volume tinggi)",
	model.ConditionWeak:         "Melemah",
	model.ConditionNeutral:      "Netral",
}

// FormatRupiah renders an amount as "Rp1.234.567" (whole rupiah).
func FormatRupiah(d decimal.Decimal) string {
	return "Rp" + groupThousands(d.Round(0).String())
}

// FormatPrice renders a share price with Indonesian digit grouping.
func FormatPrice(p float64) string {
	return groupThousands(decimal.NewFromFloat(p).Round(0).String())
}

func groupThousands(digits string) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}

// FormatSignal formats one actionable signal block.
func FormatSignal(r model.SignalResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s: %s</b>\n", statusIcon[r.Status], r.Status, model.BaseSymbol(r.Ticker)))
	b.WriteString(fmt.Sprintf("Harga: %s", FormatPrice(r.Price)))
	if r.PriceSource == model.PriceClose {
		b.WriteString(" (penutupan)")
	}
	b.WriteString("\n")
	if r.HasEntryZone() {
		b.WriteString(fmt.Sprintf("📥 Area Entry: %s - %s\n", FormatPrice(r.EntryLow), FormatPrice(r.EntryHigh)))
	}
	b.WriteString(fmt.Sprintf("📊 Kondisi: %s | RSI %.0f\n", conditionLabel[r.Condition], r.RSI))
	b.WriteString(fmt.Sprintf("🎯 TP: %s | 🛑 SL: %s", FormatPrice(r.TakeProfit), FormatPrice(r.StopLoss)))
	return b.String()
}

// FormatSignalBatch formats a scheduled delivery.
func FormatSignalBatch(results []model.SignalResult, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🚀 <b>RADAR SINYAL</b> | %s\n\n", at.Format("02 Jan 15:04")))
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatSignal(r))
	}
	return b.String()
}

// Budget is the capital view a scan report needs.
type Budget interface {
	Capital() decimal.Decimal
	CanAfford(price float64, lotSize int) bool
}

// FormatScanReport formats an on-demand scan of the watchlist. Every
// analyzed ticker is listed; requested is the number of tickers asked for so
// skipped ones can be counted.
func FormatScanReport(results []model.SignalResult, requested int, budget Budget, lotSize int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔍 <b>Hasil Scan Watchlist</b> (%d/%d saham)\n", len(results), requested))
	b.WriteString(fmt.Sprintf("Modal: %s\n", FormatRupiah(budget.Capital())))

	for _, r := range results {
		b.WriteString("\n")
		b.WriteString(FormatSignal(r))
		if !budget.CanAfford(r.Price, lotSize) {
			lot := filter.LotCost(r.Price, lotSize)
			b.WriteString(fmt.Sprintf("\n💸 Modal kurang untuk 1 lot (%s)", FormatRupiah(lot)))
		}
		b.WriteString("\n<i>" + html.EscapeString(r.Rationale) + "</i>\n")
	}

	if skipped := requested - len(results); skipped > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ %d saham dilewati (data tidak tersedia)", skipped))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatWatchlist lists tickers without the exchange suffix.
func FormatWatchlist(tickers []string) string {
	if len(tickers) == 0 {
		return "📋 Watchlist: Kosong"
	}
	names := make([]string, len(tickers))
	for i, t := range tickers {
		names[i] = model.BaseSymbol(t)
	}
	return fmt.Sprintf("📋 Watchlist (%d): %s", len(tickers), strings.Join(names, ", "))
}

// StatusInfo is the data shown by /status.
type StatusInfo struct {
	Market      string
	Capital     decimal.Decimal
	Watchlist   int
	Radar       int
	Subscribers int
	Window      []string
	LastCycle   time.Time
	LastSent    int
	TotalSent   int
}

// FormatStatus formats the bot status.
func FormatStatus(s StatusInfo) string {
	var b strings.Builder
	b.WriteString("📦 <b>Status Radar</b>\n\n")
	b.WriteString(fmt.Sprintf("Bursa: %s\n", s.Market))
	b.WriteString(fmt.Sprintf("Modal: %s\n", FormatRupiah(s.Capital)))
	b.WriteString(fmt.Sprintf("Watchlist: %d saham | Radar: %d saham\n", s.Watchlist, s.Radar))
	b.WriteString(fmt.Sprintf("Pelanggan: %d chat\n", s.Subscribers))
	if len(s.Window) > 0 {
		names := make([]string, len(s.Window))
		for i, t := range s.Window {
			names[i] = model.BaseSymbol(t)
		}
		b.WriteString(fmt.Sprintf("Baru dikirim: %s\n", strings.Join(names, ", ")))
	}
	if s.LastCycle.IsZero() {
		b.WriteString("Siklus terakhir: belum ada")
	} else {
		b.WriteString(fmt.Sprintf("Siklus terakhir: %s (%d sinyal)", s.LastCycle.Format("02 Jan 15:04"), s.LastSent))
	}
	b.WriteString(fmt.Sprintf("\nTotal sinyal terkirim: %d", s.TotalSent))
	return b.String()
}

// FormatHelp lists the available commands.
func FormatHelp() string {
	return strings.Join([]string{
		"🤖 <b>Perintah</b>",
		"/start - aktifkan sinyal otomatis di chat ini",
		"/stop - hentikan sinyal otomatis",
		"/add KODE - tambah saham ke watchlist",
		"/remove KODE - hapus saham dari watchlist",
		"/list - tampilkan watchlist",
		"/scan - scan watchlist sekarang",
		"/modal [angka] - lihat atau ubah modal",
		"/ubah_modal - ubah modal",
		"/status - status bursa dan radar",
		"/help - bantuan",
	}, "\n")
}
