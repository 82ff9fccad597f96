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

// RESTFetcher implements Fetcher and Quoter against a self-hosted bar API:
//
//	GET {base}/api/v1/bars?symbol=BBCA.JK&range=3mo&interval=1d -> [{timestamp,open,high,low,close,volume}]
//	GET {base}/api/v1/quote?symbol=BBCA.JK                         -> {"price": 9875}
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL, 30*time.Second),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bar API.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (f *RESTFetcher) FetchSeries(ctx context.Context, ticker string, window model.Window) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("symbol", ticker)
	q.Set("range", window.Period)
	q.Set("interval", window.Interval)
	endpoint := fmt.Sprintf("%s/api/v1/bars?%s", f.BaseURL, q.Encode())

	resp, err := f.get(ctx, endpoint)
	if err != nil {
		return nil, &model.FetchError{Ticker: ticker, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidTicker, ticker)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &model.FetchError{Ticker: ticker, Err: fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, truncate(body, 200))}
	}
	var raw []restBar
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &model.FetchError{Ticker: ticker, Err: fmt.Errorf("decode bars: %w", err)}
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no bars for %s", model.ErrInsufficientData, ticker)
	}
	bars := make([]model.OHLCV, len(raw))
	for i, rb := range raw {
		bars[i] = model.OHLCV{
			Time:   time.Unix(rb.Timestamp, 0),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// Quote returns the last traded price from the quote endpoint.
func (f *RESTFetcher) Quote(ctx context.Context, ticker string) (float64, error) {
	endpoint := fmt.Sprintf("%s/api/v1/quote?symbol=%s", f.BaseURL, url.QueryEscape(ticker))
	resp, err := f.get(ctx, endpoint)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", model.ErrQuoteUnavailable, resp.StatusCode)
	}
	var result struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("%w: decode price: %v", model.ErrQuoteUnavailable, err)
	}
	if result.Price <= 0 {
		return 0, fmt.Errorf("%w: non-positive price", model.ErrQuoteUnavailable)
	}
	return result.Price, nil
}

func (f *RESTFetcher) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	return f.Client.Do(req)
}
