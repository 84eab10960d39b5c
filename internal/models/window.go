package models

import (
	"errors"
	"fmt"
	"time"
)

// WindowKind enumerates the supported statistics windows.
type WindowKind string

const (
	WindowAllTime      WindowKind = "all_time"
	WindowCurrentMonth WindowKind = "current_month"
	WindowCurrentYear  WindowKind = "current_year"
	WindowMonth        WindowKind = "month"
	WindowYear         WindowKind = "year"
	WindowRange        WindowKind = "range"
)

// ErrWindowInverted is returned when a range ends before it starts.
var ErrWindowInverted = errors.New("window end precedes start")

// Window is an immutable selection of the dates a statistic covers.
type Window struct {
	kind  WindowKind
	year  int
	month time.Month
	from  time.Time
	to    time.Time
}

// AllTime covers every ledger row.
func AllTime() Window { return Window{kind: WindowAllTime} }

// CurrentMonth covers the calendar month containing the resolution instant.
func CurrentMonth() Window { return Window{kind: WindowCurrentMonth} }

// CurrentYear covers the calendar year containing the resolution instant.
func CurrentYear() Window { return Window{kind: WindowCurrentYear} }

// MonthOf covers one explicit calendar month.
func MonthOf(year int, month time.Month) Window {
	return Window{kind: WindowMonth, year: year, month: month}
}

// YearOf covers one explicit calendar year.
func YearOf(year int) Window { return Window{kind: WindowYear, year: year} }

// Between covers an inclusive date range. A zero bound leaves that side open.
func Between(from, to time.Time) Window {
	return Window{kind: WindowRange, from: truncateDay(from), to: truncateDay(to)}
}

// Kind reports the window variant.
func (w Window) Kind() WindowKind {
	if w.kind == "" {
		return WindowAllTime
	}
	return w.kind
}

// Resolve turns the window into concrete bounds relative to now.
func (w Window) Resolve(now time.Time) (DateRange, error) {
	switch w.Kind() {
	case WindowAllTime:
		return DateRange{}, nil
	case WindowCurrentMonth:
		return monthRange(now.Year(), now.Month()), nil
	case WindowCurrentYear:
		return yearRange(now.Year()), nil
	case WindowMonth:
		return monthRange(w.year, w.month), nil
	case WindowYear:
		return yearRange(w.year), nil
	case WindowRange:
		if !w.from.IsZero() && !w.to.IsZero() && w.to.Before(w.from) {
			return DateRange{}, ErrWindowInverted
		}
		return DateRange{From: w.from, To: w.to}, nil
	default:
		return DateRange{}, fmt.Errorf("unknown window kind %q", w.kind)
	}
}

// Label renders the human period label used by the statistics page.
func (w Window) Label(r DateRange) string {
	switch w.Kind() {
	case WindowMonth, WindowCurrentMonth:
		return "Bulan " + r.From.Format("2006-01")
	case WindowYear, WindowCurrentYear:
		return "Tahun " + r.From.Format("2006")
	case WindowRange:
		switch {
		case !r.From.IsZero() && !r.To.IsZero():
			return r.FromString() + " sampai " + r.ToString()
		case !r.From.IsZero():
			return "Sejak " + r.FromString()
		case !r.To.IsZero():
			return "Sampai " + r.ToString()
		}
	}
	return "Semua Waktu"
}

// DateRange is an inclusive range of calendar days. A zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Bounded reports whether both ends are set.
func (r DateRange) Bounded() bool { return !r.From.IsZero() && !r.To.IsZero() }

// Days counts the calendar days in a bounded range, or 0 when a side is open.
func (r DateRange) Days() int {
	if !r.Bounded() {
		return 0
	}
	return int(r.To.Sub(r.From).Hours()/24) + 1
}

func (r DateRange) FromString() string { return formatDay(r.From) }

func (r DateRange) ToString() string { return formatDay(r.To) }

// Summary describes the resolved range of w.
func (w Window) Summary(r DateRange) WindowSummary {
	summary := WindowSummary{
		Kind:   w.Kind(),
		Period: w.Label(r),
		From:   r.FromString(),
		To:     r.ToString(),
	}
	if r.Bounded() {
		days := r.Days()
		summary.DaysInWindow = &days
	}
	return summary
}

func monthRange(year int, month time.Month) DateRange {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return DateRange{From: first, To: first.AddDate(0, 1, -1)}
}

func yearRange(year int) DateRange {
	return DateRange{
		From: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
