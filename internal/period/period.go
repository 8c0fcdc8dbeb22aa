// Package period resolves named reporting periods into absolute time windows.
//
// Windows are calendar aligned on the business wall clock (America/Sao_Paulo, UTC-3) and
// expressed as UTC instants so they can be compared with database timestamps directly.
package period

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Code-Hex/synchro"
	"github.com/Code-Hex/synchro/tz"
)

// BusinessZone is the timezone every calendar boundary is computed in.
type BusinessZone = tz.AmericaSao_Paulo

type Period string

const (
	Today      Period = "today"
	Week       Period = "week"
	Month      Period = "month"
	Last30Days Period = "30days"
	Last60Days Period = "60days"
	Year       Period = "year"
	All        Period = "all"
)

var ErrUnknownPeriod = errors.New("unknown period")

// Parse accepts a period name case-insensitively.
func Parse(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case Today, Week, Month, Last30Days, Last60Days, Year, All:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// Window is an inclusive range. A nil bound is unbounded.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Bounded reports whether the window restricts anything.
func (w Window) Bounded() bool {
	return w.Start != nil || w.End != nil
}

// Contains reports whether t falls inside the window.
// A missing instant is only contained by the unbounded window.
func (w Window) Contains(t *time.Time) bool {
	if !w.Bounded() {
		return true
	}
	if t == nil {
		return false
	}
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && t.After(*w.End) {
		return false
	}
	return true
}

type Calculator struct {
	now func() time.Time
}

func NewCalculator() *Calculator {
	return &Calculator{now: time.Now}
}

// NewCalculatorAt returns a Calculator reading the current time from now.
func NewCalculatorAt(now func() time.Time) *Calculator {
	return &Calculator{now: now}
}

// Now returns the current time on the business wall clock.
func (c *Calculator) Now() synchro.Time[BusinessZone] {
	return synchro.In[BusinessZone](c.now())
}

func (c *Calculator) Window(p Period) (Window, error) {
	now := c.Now()
	y, m, d := now.Year(), now.Month(), now.Day()

	var start, end synchro.Time[BusinessZone]
	switch p {
	case Today:
		start, end = startOfDay(y, m, d), endOfDay(y, m, d)
	case Week:
		// Weeks run Monday to Sunday.
		offset := (int(now.Weekday()) + 6) % 7
		start = startOfDay(y, m, d-offset)
		end = endOfDay(y, m, d-offset+6)
	case Month:
		start = startOfDay(y, m, 1)
		end = endOfDay(y, m+1, 0)
	case Last30Days:
		start, end = startOfDay(y, m, d-30), endOfDay(y, m, d)
	case Last60Days:
		start, end = startOfDay(y, m, d-60), endOfDay(y, m, d)
	case Year:
		start = startOfDay(y, time.January, 1)
		end = endOfDay(y, time.December, 31)
	case All:
		return Window{}, nil
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, string(p))
	}

	s, e := start.StdTime().UTC(), end.StdTime().UTC()
	return Window{Start: &s, End: &e}, nil
}

// IsToday reports whether t falls on the current business calendar day.
func (c *Calculator) IsToday(t time.Time) bool {
	now := c.Now()
	local := synchro.In[BusinessZone](t)
	return local.Year() == now.Year() && local.Month() == now.Month() && local.Day() == now.Day()
}

func startOfDay(y int, m time.Month, d int) synchro.Time[BusinessZone] {
	return synchro.New[BusinessZone](y, m, d, 0, 0, 0, 0)
}

func endOfDay(y int, m time.Month, d int) synchro.Time[BusinessZone] {
	return synchro.New[BusinessZone](y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond))
}
