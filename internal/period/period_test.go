package period

import (
	"errors"
	"testing"
	"time"
)

// 2025-12-17 12:00 in São Paulo, a Wednesday.
var wednesdayNoon = time.Date(2025, time.December, 17, 15, 0, 0, 0, time.UTC)

func fixed(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func utc(y int, m time.Month, d, h, min, s, ns int) time.Time {
	return time.Date(y, m, d, h, min, s, ns, time.UTC)
}

const lastNano = 999999999

func TestWindow_Boundaries(t *testing.T) {
	c := NewCalculatorAt(fixed(wednesdayNoon))

	tests := []struct {
		period     Period
		start, end time.Time
	}{
		{Today, utc(2025, 12, 17, 3, 0, 0, 0), utc(2025, 12, 18, 2, 59, 59, lastNano)},
		{Week, utc(2025, 12, 15, 3, 0, 0, 0), utc(2025, 12, 22, 2, 59, 59, lastNano)},
		{Month, utc(2025, 12, 1, 3, 0, 0, 0), utc(2026, 1, 1, 2, 59, 59, lastNano)},
		{Last30Days, utc(2025, 11, 17, 3, 0, 0, 0), utc(2025, 12, 18, 2, 59, 59, lastNano)},
		{Last60Days, utc(2025, 10, 18, 3, 0, 0, 0), utc(2025, 12, 18, 2, 59, 59, lastNano)},
		{Year, utc(2025, 1, 1, 3, 0, 0, 0), utc(2026, 1, 1, 2, 59, 59, lastNano)},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			w, err := c.Window(tt.period)
			if err != nil {
				t.Fatalf("Window(%q) error = %v", tt.period, err)
			}
			if !w.Start.Equal(tt.start) {
				t.Errorf("start = %v, want %v", w.Start, tt.start)
			}
			if !w.End.Equal(tt.end) {
				t.Errorf("end = %v, want %v", w.End, tt.end)
			}
			if w.Start.After(*w.End) {
				t.Errorf("start %v is after end %v", w.Start, w.End)
			}
		})
	}
}

func TestWindow_All(t *testing.T) {
	c := NewCalculatorAt(fixed(wednesdayNoon))

	w, err := c.Window(All)
	if err != nil {
		t.Fatalf("Window(all) error = %v", err)
	}
	if w.Start != nil || w.End != nil {
		t.Errorf("Window(all) = %+v, want unbounded", w)
	}
	if !w.Contains(nil) {
		t.Error("unbounded window should contain a missing instant")
	}
}

func TestWindow_UsesBusinessCalendarDay(t *testing.T) {
	// 02:00 UTC on Dec 1 is still Nov 30 in São Paulo.
	c := NewCalculatorAt(fixed(utc(2025, 12, 1, 2, 0, 0, 0)))

	w, err := c.Window(Month)
	if err != nil {
		t.Fatalf("Window(month) error = %v", err)
	}
	if want := utc(2025, 11, 1, 3, 0, 0, 0); !w.Start.Equal(want) {
		t.Errorf("start = %v, want %v", w.Start, want)
	}
}

func TestWindow_WeekOnSunday(t *testing.T) {
	c := NewCalculatorAt(fixed(utc(2025, 12, 21, 15, 0, 0, 0)))

	w, err := c.Window(Week)
	if err != nil {
		t.Fatalf("Window(week) error = %v", err)
	}
	if want := utc(2025, 12, 15, 3, 0, 0, 0); !w.Start.Equal(want) {
		t.Errorf("start = %v, want %v", w.Start, want)
	}
}

func TestWindow_Contains(t *testing.T) {
	c := NewCalculatorAt(fixed(wednesdayNoon))
	w, _ := c.Window(Month)

	inside := utc(2025, 12, 10, 0, 0, 0, 0)
	before := utc(2025, 12, 1, 2, 59, 59, 0)
	lastInstant := *w.End

	if !w.Contains(&inside) {
		t.Error("Contains(inside) = false, want true")
	}
	if w.Contains(&before) {
		t.Error("Contains(before) = true, want false")
	}
	if !w.Contains(&lastInstant) {
		t.Error("Contains(end) = false, want true")
	}
	if w.Contains(nil) {
		t.Error("Contains(nil) = true, want false for a bounded window")
	}
}

func TestIsToday(t *testing.T) {
	c := NewCalculatorAt(fixed(wednesdayNoon))

	if !c.IsToday(utc(2025, 12, 18, 1, 0, 0, 0)) {
		t.Error("01:00 UTC next day is still today in São Paulo")
	}
	if c.IsToday(utc(2025, 12, 17, 2, 0, 0, 0)) {
		t.Error("02:00 UTC is yesterday in São Paulo")
	}
}

func TestParse(t *testing.T) {
	p, err := Parse(" Month ")
	if err != nil || p != Month {
		t.Errorf("Parse(Month) = %q, %v", p, err)
	}
	if _, err := Parse("quarter"); !errors.Is(err, ErrUnknownPeriod) {
		t.Errorf("Parse(quarter) error = %v, want ErrUnknownPeriod", err)
	}
}
