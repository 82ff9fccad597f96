package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"SignalRadar/internal/markethours"
	"SignalRadar/internal/metrics"
	"SignalRadar/internal/model"
	"SignalRadar/internal/scheduler"
	"SignalRadar/internal/store"
)

// Radar exposes the scheduler state served by the API.
type Radar interface {
	LastBatch() []model.SignalResult
	LastCycle() scheduler.CycleReport
}

// Handler serves the radar endpoints.
type Handler struct {
	Radar   Radar
	Store   store.Store
	Session *markethours.Session
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// RegisterRoutes mounts all endpoints on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.health)
	e.GET("/metrics", echo.WrapHandler(h.Metrics.Handler()))

	v1 := e.Group("/api/v1")
	v1.GET("/signals/last", h.lastSignals)
	v1.GET("/watchlist", h.watchlist)
}

type healthResponse struct {
	Status     string    `json:"status"`
	MarketOpen bool      `json:"market_open"`
	Time       time.Time `json:"time"`
}

func (h *Handler) health(c echo.Context) error {
	now := h.now()
	return c.JSON(http.StatusOK, healthResponse{
		Status:     "ok",
		MarketOpen: h.Session.IsOpen(now),
		Time:       now,
	})
}

type cycleView struct {
	ID        string    `json:"id,omitempty"`
	At        time.Time `json:"at,omitempty"`
	Skipped   string    `json:"skipped,omitempty"`
	Results   int       `json:"results"`
	Delivered int       `json:"delivered_chats"`
}

type signalsResponse struct {
	Cycle   cycleView            `json:"last_cycle"`
	Signals []model.SignalResult `json:"signals"`
}

func (h *Handler) lastSignals(c echo.Context) error {
	rep := h.Radar.LastCycle()
	signals := h.Radar.LastBatch()
	if signals == nil {
		signals = []model.SignalResult{}
	}
	return c.JSON(http.StatusOK, signalsResponse{
		Cycle: cycleView{
			ID:        rep.CycleID,
			At:        rep.At,
			Skipped:   rep.Skipped,
			Results:   rep.Results,
			Delivered: rep.Delivered,
		},
		Signals: signals,
	})
}

type watchlistResponse struct {
	Tickers []string `json:"tickers"`
}

func (h *Handler) watchlist(c echo.Context) error {
	list, err := h.Store.ListWatchlist(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "watchlist unavailable")
	}
	if list == nil {
		list = []string{}
	}
	return c.JSON(http.StatusOK, watchlistResponse{Tickers: list})
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
