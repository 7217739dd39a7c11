package jalali

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidMonth is returned for a Jalali month outside 1..12
	ErrInvalidMonth = errors.New("invalid jalali month")
	// ErrInvalidDay is returned by DateOf for a day the month does not have
	ErrInvalidDay = errors.New("invalid jalali day")
	// ErrOutOfRange is returned for dates the Persian calendar cannot represent
	ErrOutOfRange = errors.New("date outside persian calendar range")
	// ErrConversionAnomaly is returned when the first-day search does not converge
	ErrConversionAnomaly = errors.New("calendar conversion anomaly")
)

func validMonth(month int) error {
	if month < 1 || month > 12 {
		return invalidMonth(month)
	}
	return nil
}

func invalidMonth(month int) error {
	return fmt.Errorf("%w: %d", ErrInvalidMonth, month)
}

func outOfRange(t time.Time) error {
	return fmt.Errorf("%w: %s", ErrOutOfRange, t.Format("2006-01-02"))
}
