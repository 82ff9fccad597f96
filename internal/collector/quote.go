package collector

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"SignalRadar/internal/model"
)

const googleFinanceBaseURL = "https://www.google.com/finance/quote"

// GoogleQuoter scrapes the last traded price from a Google Finance quote page.
type GoogleQuoter struct {
	BaseURL  string
	Exchange string // exchange code in the page URL, "IDX" for Jakarta
	Selector string // CSS selector of the price element
	Client   *http.Client
}

// NewGoogleQuoter creates a quoter for exchange with a short client timeout.
func NewGoogleQuoter(exchange, proxyURL string) *GoogleQuoter {
	return &GoogleQuoter{
		BaseURL:  googleFinanceBaseURL,
		Exchange: exchange,
		Selector: "div.YMlSbc",
		Client:   newHTTPClient(proxyURL, 5*time.Second),
	}
}

// Quote fetches and parses the price for ticker ("BBCA.JK" -> BBCA:IDX).
func (q *GoogleQuoter) Quote(ctx context.Context, ticker string) (float64, error) {
	u := fmt.Sprintf("%s/%s:%s", strings.TrimRight(q.BaseURL, "/"), model.BaseSymbol(ticker), q.Exchange)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrQuoteUnavailable, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := q.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", model.ErrQuoteUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: parse html: %v", model.ErrQuoteUnavailable, err)
	}
	text := strings.TrimSpace(doc.Find(q.Selector).First().Text())
	if text == "" {
		return 0, fmt.Errorf("%w: price element %q not found", model.ErrQuoteUnavailable, q.Selector)
	}
	price, err := ParsePrice(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrQuoteUnavailable, err)
	}
	return price, nil
}

// ParsePrice parses a displayed price such as "IDR 9,875.00" or "Rp1,234".
func ParsePrice(text string) (float64, error) {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	s := strings.Trim(b.String(), ".")
	if s == "" {
		return 0, fmt.Errorf("no digits in %q", text)
	}
	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", text, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("non-positive price %q", text)
	}
	return price, nil
}
