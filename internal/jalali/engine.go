// Package jalali converts Gregorian dates to the Persian (solar Hijri)
// calendar and lays out Saturday-first month grids.
package jalali

import (
	"fmt"
	"time"

	"github.com/tazhate/taqvim/internal/domain"
)

// maxSearchSteps bounds the first-day-of-month search
const maxSearchSteps = 60

// CalendarDate is a Jalali date with month and weekday names in one locale
type CalendarDate struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Day       int    `json:"day"`
	MonthName string `json:"month_name"`
	DayName   string `json:"day_name"`
}

// SameDay compares year, month and day, ignoring names
func (d CalendarDate) SameDay(o CalendarDate) bool {
	return d.Year == o.Year && d.Month == o.Month && d.Day == o.Day
}

func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d/%02d/%02d", d.Year, d.Month, d.Day)
}

// Season returns the season of the date's month. Dates come from
// ToJalali, which rejects months outside 1..12, so SeasonOf cannot fail.
func (d CalendarDate) Season() Season {
	s, _ := SeasonOf(d.Month)
	return s
}

// EventSource looks up recurring events by Jalali month and day
type EventSource interface {
	EventsOn(month, day int) []domain.CalendarEvent
}

// Engine is the Jalali date engine. It is immutable after New and safe
// for concurrent use.
type Engine struct {
	conv     Converter
	locale   domain.Locale
	restDay  time.Weekday
	events   EventSource
	onSearch func(steps int, err error)
}

type Option func(*Engine)

// WithLocale sets the locale used for grid cells and Today
func WithLocale(l domain.Locale) Option {
	return func(e *Engine) { e.locale = l }
}

// WithRestDay sets the weekly rest day marked as holiday in grids
func WithRestDay(wd time.Weekday) Option {
	return func(e *Engine) { e.restDay = wd }
}

// WithEvents attaches an event source to grid cells
func WithEvents(src EventSource) Option {
	return func(e *Engine) { e.events = src }
}

// WithSearchObserver registers a callback invoked after every first-day search
func WithSearchObserver(fn func(steps int, err error)) Option {
	return func(e *Engine) { e.onSearch = fn }
}

// New creates an engine around conv. A nil conv means Arithmetic.
func New(conv Converter, opts ...Option) *Engine {
	if conv == nil {
		conv = Arithmetic{}
	}
	e := &Engine{
		conv:    conv,
		locale:  domain.LocaleFA,
		restDay: time.Sunday,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Locale returns the engine's default locale
func (e *Engine) Locale() domain.Locale {
	return e.locale
}

// RestDay returns the weekday marked as a holiday in every week
func (e *Engine) RestDay() time.Weekday {
	return e.restDay
}

// ToJalali converts the civil date of t. Weekday names follow the
// locale's 7-day week, not the Jalali calendar.
func (e *Engine) ToJalali(t time.Time, l domain.Locale) (CalendarDate, error) {
	year, month, day, err := e.conv.ToPersian(t)
	if err != nil {
		return CalendarDate{}, err
	}
	if validMonth(month) != nil || day < 1 || day > 31 {
		return CalendarDate{}, fmt.Errorf("%w: converter returned %d/%d/%d for %s",
			ErrConversionAnomaly, year, month, day, t.Format("2006-01-02"))
	}

	monthName, _ := MonthName(month, l)
	return CalendarDate{
		Year:      year,
		Month:     month,
		Day:       day,
		MonthName: monthName,
		DayName:   WeekdayName(t.Weekday(), l),
	}, nil
}

// Today converts now in the engine's locale
func (e *Engine) Today(now time.Time) (CalendarDate, error) {
	return e.ToJalali(now, e.locale)
}

// FirstDayOfMonth finds the Gregorian date (noon UTC) of day 1 of the
// Jalali year/month by stepping one day at a time from a nearby anchor.
func (e *Engine) FirstDayOfMonth(year, month int) (time.Time, error) {
	if err := validMonth(month); err != nil {
		return time.Time{}, err
	}
	if year < 1 {
		return time.Time{}, fmt.Errorf("%w: year %d", ErrOutOfRange, year)
	}

	// Day 1 of Jalali month m falls between the 19th and 23rd of
	// Gregorian month m+2 (Farvardin ~ March 21).
	date := time.Date(year+621, time.Month(month+2), 20, 12, 0, 0, 0, time.UTC)
	if start := eraStart(); date.Before(start) {
		date = start
	}

	for step := 0; step < maxSearchSteps; step++ {
		y, m, d, err := e.conv.ToPersian(date)
		if err != nil {
			err = fmt.Errorf("first day of %d/%02d: %w", year, month, err)
			e.observe(step, err)
			return time.Time{}, err
		}
		if y == year && m == month && d == 1 {
			e.observe(step, nil)
			return date, nil
		}
		if m < month || (m == 12 && month == 1) {
			date = date.AddDate(0, 0, 1)
		} else {
			date = date.AddDate(0, 0, -1)
		}
	}

	err := fmt.Errorf("%w: no day 1 for %d/%02d within %d steps", ErrConversionAnomaly, year, month, maxSearchSteps)
	e.observe(maxSearchSteps, err)
	return time.Time{}, err
}

// DateOf returns the Gregorian date (noon UTC) of a Jalali year/month/day
func (e *Engine) DateOf(year, month, day int) (time.Time, error) {
	first, err := e.FirstDayOfMonth(year, month)
	if err != nil {
		return time.Time{}, err
	}
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: %d/%02d/%02d", ErrInvalidDay, year, month, day)
	}
	date := first.AddDate(0, 0, day-1)
	_, m, _, err := e.conv.ToPersian(date)
	if err != nil {
		return time.Time{}, err
	}
	if m != month {
		return time.Time{}, fmt.Errorf("%w: %d/%02d/%02d", ErrInvalidDay, year, month, day)
	}
	return date, nil
}

func (e *Engine) observe(steps int, err error) {
	if e.onSearch != nil {
		e.onSearch(steps, err)
	}
}

// ShiftMonth moves a Jalali year/month by delta months
func ShiftMonth(year, month, delta int) (int, int) {
	idx := year*12 + (month - 1) + delta
	return floorDiv(idx, 12), floorMod(idx, 12) + 1
}

// eraStart is 1 Farvardin 1 at noon UTC
func eraStart() time.Time {
	return time.Unix(int64(-epochOffset)*86400, 0).UTC().Add(12 * time.Hour)
}
