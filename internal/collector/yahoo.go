package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"SignalRadar/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher reads daily bars from the Yahoo Finance v8 chart endpoint.
// IDX tickers are requested with their exchange suffix (BBCA.JK).
type YahooFetcher struct {
	BaseURL string
	Client  *http.Client
	// Aliases rewrites radar tickers that Yahoo lists under another symbol.
	Aliases map[string]string
}

func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client:  newHTTPClient(proxyURL, 30*time.Second),
		Aliases: map[string]string{
			"IHSG.JK": "^JKSE",
			"JKSE.JK": "^JKSE",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) symbolFor(ticker string) string {
	if alias, ok := f.Aliases[ticker]; ok {
		return alias
	}
	return ticker
}

// chartQuote holds the parallel OHLCV columns. Yahoo writes null for
// sessions without trades, hence the pointers.
type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func column(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

// bars zips the columns into OHLCV rows. A row with any null price is
// dropped: a zero low or high would drag support and resistance to zero.
func (r chartResult) bars() []model.OHLCV {
	q := r.Indicators.Quote[0]
	out := make([]model.OHLCV, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		o, okO := column(q.Open, i)
		h, okH := column(q.High, i)
		l, okL := column(q.Low, i)
		c, okC := column(q.Close, i)
		if !okO || !okH || !okL || !okC {
			continue
		}
		v, _ := column(q.Volume, i)
		out = append(out, model.OHLCV{Time: time.Unix(ts, 0), Open: o, High: h, Low: l, Close: c, Volume: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// FetchSeries downloads bars for window.Period at window.Interval granularity.
func (f *YahooFetcher) FetchSeries(ctx context.Context, ticker string, window model.Window) ([]model.OHLCV, error) {
	base := f.BaseURL
	if base == "" {
		base = yahooBaseURL
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		strings.TrimRight(base, "/"), url.PathEscape(f.symbolFor(ticker)),
		url.QueryEscape(window.Interval), url.QueryEscape(window.Period))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &model.FetchError{Ticker: ticker, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &model.FetchError{Ticker: ticker, Err: fmt.Errorf("yahoo fetch: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.FetchError{Ticker: ticker, Err: fmt.Errorf("yahoo read body: %w", err)}
	}

	var chart chartResponse
	decodeErr := json.Unmarshal(body, &chart)
	apiErr := chart.Chart.Error

	if resp.StatusCode == http.StatusNotFound || (decodeErr == nil && apiErr != nil && apiErr.Code == "Not Found") {
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidTicker, ticker)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &model.FetchError{Ticker: ticker, Err: fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, truncate(body, 200))}
	}
	if decodeErr != nil {
		return nil, &model.FetchError{Ticker: ticker, Err: fmt.Errorf("yahoo decode: %w", decodeErr)}
	}
	if apiErr != nil {
		return nil, &model.FetchError{Ticker: ticker, Err: fmt.Errorf("yahoo api error: %s", apiErr.Description)}
	}

	results := chart.Chart.Result
	if len(results) == 0 || len(results[0].Timestamp) == 0 || len(results[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: yahoo returned no bars for %s", model.ErrInsufficientData, ticker)
	}
	return results[0].bars(), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
