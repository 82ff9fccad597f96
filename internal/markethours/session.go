// Package markethours decides whether the exchange is in session.
package markethours

import (
	"fmt"
	"slices"
	"strings"
	"time"
	_ "time/tzdata"
)

// Config is the YAML form of a Session.
type Config struct {
	Timezone string   `yaml:"timezone" default:"Asia/Jakarta" validate:"required"`
	Open     string   `yaml:"open" default:"09:00" validate:"required"`
	Close    string   `yaml:"close" default:"16:00" validate:"required"`
	Weekdays []string `yaml:"weekdays" default:"[\"mon\",\"tue\",\"wed\",\"thu\",\"fri\"]" validate:"min=1,dive,oneof=sun mon tue wed thu fri sat"`
	Holidays []string `yaml:"holidays"` // YYYY-MM-DD in the session timezone
}

// Session is a daily trading window in a fixed location.
// Open is inclusive and Close exclusive, both as offsets from midnight.
type Session struct {
	Location *time.Location
	Open     time.Duration
	Close    time.Duration
	Weekdays []time.Weekday
	Holidays map[string]bool
}

// IDX returns the Indonesia Stock Exchange session: Mon-Fri 09:00-16:00 WIB.
func IDX() (*Session, error) {
	return NewSession(Config{
		Timezone: "Asia/Jakarta",
		Open:     "09:00",
		Close:    "16:00",
		Weekdays: []string{"mon", "tue", "wed", "thu", "fri"},
	})
}

// NewSession builds a Session from its config form.
func NewSession(cfg Config) (*Session, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	open, err := parseClock(cfg.Open)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	closeAt, err := parseClock(cfg.Close)
	if err != nil {
		return nil, fmt.Errorf("close: %w", err)
	}
	if closeAt <= open {
		return nil, fmt.Errorf("close %s must be after open %s", cfg.Close, cfg.Open)
	}

	s := &Session{
		Location: loc,
		Open:     open,
		Close:    closeAt,
		Holidays: make(map[string]bool, len(cfg.Holidays)),
	}
	for _, d := range cfg.Weekdays {
		wd, ok := weekdays[strings.ToLower(d)]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", d)
		}
		s.Weekdays = append(s.Weekdays, wd)
	}
	for _, h := range cfg.Holidays {
		if _, err := time.ParseInLocation(time.DateOnly, h, loc); err != nil {
			return nil, fmt.Errorf("holiday %q: %w", h, err)
		}
		s.Holidays[h] = true
	}
	return s, nil
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// IsOpen reports whether t falls inside the session. It depends only on t.
func (s *Session) IsOpen(t time.Time) bool {
	local := t.In(s.Location)
	if !slices.Contains(s.Weekdays, local.Weekday()) {
		return false
	}
	if s.Holidays[local.Format(time.DateOnly)] {
		return false
	}
	y, m, d := local.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, s.Location)
	offset := local.Sub(midnight)
	return offset >= s.Open && offset < s.Close
}

// Status describes the session state at t for humans.
func (s *Session) Status(t time.Time) string {
	local := t.In(s.Location)
	state := "CLOSED"
	if s.IsOpen(t) {
		state = "OPEN"
	}
	return fmt.Sprintf("%s (%s %s, session %s-%s)",
		state, local.Format("Mon 15:04"), s.Location, clock(s.Open), clock(s.Close))
}

func clock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
