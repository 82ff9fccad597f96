package markethours

import (
	"testing"
	"time"
)

func idx(t *testing.T) *Session {
	t.Helper()
	s, err := IDX()
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return s
}

func TestIsOpen(t *testing.T) {
	s := idx(t)
	jkt := s.Location

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"saturday morning", time.Date(2025, 3, 8, 10, 0, 0, 0, jkt), false},
		{"sunday", time.Date(2025, 3, 9, 11, 0, 0, 0, jkt), false},
		{"tuesday mid-session", time.Date(2025, 3, 4, 10, 0, 0, 0, jkt), true},
		{"tuesday before open", time.Date(2025, 3, 4, 8, 59, 0, 0, jkt), false},
		{"open is inclusive", time.Date(2025, 3, 4, 9, 0, 0, 0, jkt), true},
		{"last minute", time.Date(2025, 3, 4, 15, 59, 59, 0, jkt), true},
		{"close is exclusive", time.Date(2025, 3, 4, 16, 0, 0, 0, jkt), false},
		{"friday afternoon", time.Date(2025, 3, 7, 14, 30, 0, 0, jkt), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.IsOpen(tt.at); got != tt.want {
				t.Errorf("IsOpen(%s) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestIsOpen_ConvertsToSessionZone(t *testing.T) {
	s := idx(t)
	// 03:00 UTC on a Tuesday is 10:00 WIB.
	if !s.IsOpen(time.Date(2025, 3, 4, 3, 0, 0, 0, time.UTC)) {
		t.Error("expected open at 03:00 UTC (10:00 WIB)")
	}
	// 09:30 UTC is 16:30 WIB.
	if s.IsOpen(time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC)) {
		t.Error("expected closed at 09:30 UTC (16:30 WIB)")
	}
}

func TestIsOpen_Holiday(t *testing.T) {
	s, err := NewSession(Config{
		Timezone: "Asia/Jakarta",
		Open:     "09:00",
		Close:    "16:00",
		Weekdays: []string{"mon", "tue", "wed", "thu", "fri"},
		Holidays: []string{"2025-03-31"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.IsOpen(time.Date(2025, 3, 31, 10, 0, 0, 0, s.Location)) {
		t.Error("expected closed on a listed holiday")
	}
	if !s.IsOpen(time.Date(2025, 4, 1, 10, 0, 0, 0, s.Location)) {
		t.Error("expected open the day after the holiday")
	}
}

func TestNewSession_Errors(t *testing.T) {
	base := Config{Timezone: "Asia/Jakarta", Open: "09:00", Close: "16:00", Weekdays: []string{"mon"}}

	bad := []Config{
		func() Config { c := base; c.Timezone = "Mars/Olympus"; return c }(),
		func() Config { c := base; c.Open = "9am"; return c }(),
		func() Config { c := base; c.Close = "08:00"; return c }(),
		func() Config { c := base; c.Weekdays = []string{"funday"}; return c }(),
		func() Config { c := base; c.Holidays = []string{"31/03/2025"}; return c }(),
	}
	for i, cfg := range bad {
		if _, err := NewSession(cfg); err == nil {
			t.Errorf("case %d: expected error for %+v", i, cfg)
		}
	}
}

func TestStatus(t *testing.T) {
	s := idx(t)
	got := s.Status(time.Date(2025, 3, 4, 10, 0, 0, 0, s.Location))
	want := "OPEN (Tue 10:00 Asia/Jakarta, session 09:00-16:00)"
	if got != want {
		t.Errorf("Status() = %q, want %q", got, want)
	}
}
