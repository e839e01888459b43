package laeq

import (
	"fmt"
	"strings"
	"time"
)

// Window names a reporting period. Values match the names the map client sends.
type Window string

const (
	Hourly1h Window = "L1h"
	Daily24h Window = "L24h"
	Daytime  Window = "Lday"
	Evening  Window = "Levening"
	Night    Window = "Lnight"
)

// DateLayout is the calendar date format accepted on the wire.
const DateLayout = "2006-01-02"

var windowAliases = map[string]Window{
	"1h":        Hourly1h,
	"l1h":       Hourly1h,
	"laeq1h":    Hourly1h,
	"24h":       Daily24h,
	"l24h":      Daily24h,
	"laeq24h":   Daily24h,
	"day":       Daytime,
	"lday":      Daytime,
	"daytime":   Daytime,
	"evening":   Evening,
	"levening":  Evening,
	"night":     Night,
	"lnight":    Night,
	"nighttime": Night,
}

// ParseWindow resolves a window name, case-insensitively.
func ParseWindow(name string) (Window, error) {
	w, ok := windowAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: unknown window %q", ErrInvalidWindow, name)
	}
	return w, nil
}

// Valid reports whether w is one of the known windows.
func (w Window) Valid() bool {
	switch w {
	case Hourly1h, Daily24h, Daytime, Evening, Night:
		return true
	}
	return false
}

func (w Window) String() string { return string(w) }

// ParseDate reads a YYYY-MM-DD calendar date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		return time.Time{}, fmt.Errorf("%w: missing location", ErrInvalidWindow)
	}
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrInvalidWindow, s)
	}
	return d, nil
}

// Query asks for one window over a series.
//
// Date selects the calendar day for Daily24h, Daytime, Evening and Night; only its year,
// month and day are read. Now is the reference instant for Hourly1h. Location is always
// required and is the only source of local time.
type Query struct {
	Window   Window
	Date     time.Time
	Now      time.Time
	Location *time.Location
}

// Span is the instant range a window covers. Calendar windows are [Start, End). The trailing
// hour is (Start, End].
type Span struct {
	Start    time.Time
	End      time.Time
	Trailing bool
}

// Contains reports whether t lies in the span.
func (s Span) Contains(t time.Time) bool {
	if s.Trailing {
		return t.After(s.Start) && !t.After(s.End)
	}
	return !t.Before(s.Start) && t.Before(s.End)
}

// Span validates q and returns the instants it covers.
func (q Query) Span() (Span, error) {
	if q.Location == nil {
		return Span{}, fmt.Errorf("%w: missing location", ErrInvalidWindow)
	}
	if !q.Window.Valid() {
		return Span{}, fmt.Errorf("%w: unknown window %q", ErrInvalidWindow, string(q.Window))
	}

	if q.Window == Hourly1h {
		if q.Now.IsZero() {
			return Span{}, fmt.Errorf("%w: %s needs a reference time", ErrInvalidWindow, q.Window)
		}
		return Span{Start: q.Now.Add(-time.Hour), End: q.Now, Trailing: true}, nil
	}

	if q.Date.IsZero() {
		return Span{}, fmt.Errorf("%w: %s needs a date", ErrInvalidWindow, q.Window)
	}
	y, m, d := q.Date.Date()
	at := func(day, hour int) time.Time {
		return time.Date(y, m, day, hour, 0, 0, 0, q.Location)
	}

	switch q.Window {
	case Daily24h:
		return Span{Start: at(d, 0), End: at(d+1, 0)}, nil
	case Daytime:
		return Span{Start: at(d, 6), End: at(d, 18)}, nil
	case Evening:
		return Span{Start: at(d, 18), End: at(d, 22)}, nil
	default:
		return Span{Start: at(d, 22), End: at(d+1, 6)}, nil
	}
}
