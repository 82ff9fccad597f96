// Package budget tracks the user's trading capital.
package budget

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"SignalRadar/internal/filter"
	"SignalRadar/internal/store"
)

// ErrInvalidCapital rejects negative or unparsable capital values.
var ErrInvalidCapital = errors.New("invalid capital")

// Manager holds the capital value with concurrency safety and persists every
// change to the settings store.
type Manager struct {
	mu      sync.Mutex
	capital decimal.Decimal
	store   store.Store
}

// NewManager loads capital from st. When nothing is stored yet and initial is
// positive, initial is persisted as the starting capital.
func NewManager(ctx context.Context, st store.Store, initial decimal.Decimal) (*Manager, error) {
	capital, err := st.GetBudget(ctx)
	if err != nil {
		return nil, fmt.Errorf("load capital: %w", err)
	}

	m := &Manager{capital: capital, store: st}
	if capital.IsZero() && initial.IsPositive() {
		if err := m.SetCapital(ctx, initial); err != nil {
			return nil, err
		}
		log.Info().Str("capital", initial.String()).Msg("initial capital seeded from config")
	}
	return m, nil
}

// Capital returns the current capital.
func (m *Manager) Capital() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capital
}

// SetCapital validates, persists and then applies v. On a store failure the
// in-memory value is left unchanged.
func (m *Manager) SetCapital(ctx context.Context, v decimal.Decimal) error {
	if v.IsNegative() {
		return fmt.Errorf("%w: %s is negative", ErrInvalidCapital, v)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SetBudget(ctx, v); err != nil {
		return fmt.Errorf("save capital: %w", err)
	}
	m.capital = v
	return nil
}

// CanAfford reports whether one lot at price fits the current capital.
func (m *Manager) CanAfford(price float64, lotSize int) bool {
	return m.Capital().GreaterThanOrEqual(filter.LotCost(price, lotSize))
}

// capitalPattern accepts plain digits or 3-digit groups split by one of
// '.', ',', '_' or space.
var capitalPattern = regexp.MustCompile(`^(\d+|\d{1,3}([.,_ ]\d{3})+)$`)

// ParseCapital reads a whole-rupiah amount typed by a user. An optional "Rp"
// prefix and '.', ',', '_' or space digit-group separators are accepted, so
// "1.000.000", "1,000,000" and "Rp 1 000 000" all parse to one million.
// Separators must sit between groups of three digits and must not be mixed,
// so fractions such as "1.5" or "1.000,50" are rejected.
func ParseCapital(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(s, "Rp"), "rp"))
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidCapital)
	}
	if !capitalPattern.MatchString(s) || !singleSeparator(s) {
		return decimal.Zero, fmt.Errorf("%w: %q is not a whole number", ErrInvalidCapital, text)
	}
	return decimal.NewFromString(strings.Map(func(r rune) rune {
		if r < '0' || r > '9' {
			return -1
		}
		return r
	}, s))
}

func singleSeparator(s string) bool {
	var sep rune
	for _, r := range s {
		if r >= '0' && r <= '9' {
			continue
		}
		if sep != 0 && r != sep {
			return false
		}
		sep = r
	}
	return true
}
