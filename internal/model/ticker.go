package model

import (
	"fmt"
	"strings"
)

// DefaultSuffix is the exchange suffix used by the data provider for IDX listings.
const DefaultSuffix = ".JK"

// NormalizeTicker upper-cases a symbol and ensures it carries suffix.
// "bbca", "BBCA" and "bbca.jk" all become "BBCA.JK".
func NormalizeTicker(raw, suffix string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(raw))
	suffix = strings.ToUpper(suffix)
	if suffix != "" {
		sym = strings.TrimSuffix(sym, suffix)
	}
	if sym == "" {
		return "", fmt.Errorf("%w: empty symbol", ErrInvalidTicker)
	}
	for _, r := range sym {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '^' || r == '=') {
			return "", fmt.Errorf("%w: %q", ErrInvalidTicker, raw)
		}
	}
	return sym + suffix, nil
}

// BaseSymbol strips the exchange suffix for display ("BBCA.JK" -> "BBCA").
func BaseSymbol(ticker string) string {
	if i := strings.IndexByte(ticker, '.'); i > 0 {
		return ticker[:i]
	}
	return ticker
}
