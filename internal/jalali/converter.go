package jalali

import (
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// Converter maps the civil date of t to a Persian (year, month, day).
// Implementations must return ErrOutOfRange for dates before 1 Farvardin 1.
type Converter interface {
	ToPersian(t time.Time) (year, month, day int, err error)
}

const (
	// julianDayUnixEpoch is the Julian day number of 1970-01-01
	julianDayUnixEpoch = 2440588
	// persianEpoch is the Julian day number of 1 Farvardin 1 AP
	persianEpoch = 1948320

	epochOffset = julianDayUnixEpoch - persianEpoch
)

// Arithmetic is the 33-year arithmetic Persian calendar, the rule set the
// ICU Persian calendar implements. It has no external state.
type Arithmetic struct{}

func (Arithmetic) ToPersian(t time.Time) (int, int, int, error) {
	days := unixDays(t) + epochOffset
	if days < 0 {
		return 0, 0, 0, outOfRange(t)
	}

	year := 1 + floorDiv(33*days+3, 12053)
	dayOfYear := days - farvardin1(year)

	var month int
	if dayOfYear < 216 {
		month = dayOfYear / 31
	} else {
		month = (dayOfYear - 6) / 30
	}
	day := dayOfYear - monthStart(month) + 1

	return year, month + 1, day, nil
}

// IsLeapYear reports whether the Persian year has 366 days under the 33-year rule
func IsLeapYear(year int) bool {
	return floorMod(25*year+11, 33) < 8
}

// MonthLength returns the number of days in a Persian month under the 33-year rule
func MonthLength(year, month int) (int, error) {
	if err := validMonth(month); err != nil {
		return 0, err
	}
	switch {
	case month <= 6:
		return 31, nil
	case month <= 11:
		return 30, nil
	case IsLeapYear(year):
		return 30, nil
	default:
		return 29, nil
	}
}

// farvardin1 is the day count since the epoch of the first day of year
func farvardin1(year int) int {
	return 365*(year-1) + floorDiv(8*year+21, 33)
}

// monthStart is the day-of-year offset of a zero-based month
func monthStart(month int) int {
	if month < 6 {
		return 31 * month
	}
	return 30*month + 6
}

// PTime delegates conversion to github.com/yaa110/go-persian-calendar.
type PTime struct{}

func (PTime) ToPersian(t time.Time) (int, int, int, error) {
	if unixDays(t)+epochOffset < 0 {
		return 0, 0, 0, outOfRange(t)
	}
	pt := ptime.New(civil(t))
	return pt.Year(), int(pt.Month()), pt.Day(), nil
}

// NewConverter returns the converter registered under name ("arithmetic" or "ptime")
func NewConverter(name string) (Converter, error) {
	switch name {
	case "", "arithmetic":
		return Arithmetic{}, nil
	case "ptime":
		return PTime{}, nil
	default:
		return nil, &UnknownConverterError{Name: name}
	}
}

// UnknownConverterError is returned by NewConverter for an unregistered name
type UnknownConverterError struct {
	Name string
}

func (e *UnknownConverterError) Error() string {
	return "unknown calendar converter: " + e.Name
}

// civil returns noon UTC on the wall-clock date of t
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
}

// unixDays counts days from 1970-01-01 to the wall-clock date of t
func unixDays(t time.Time) int {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Unix() / 86400)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - b*floorDiv(a, b)
}
