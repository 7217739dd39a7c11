package jalali

import (
	"time"

	"github.com/tazhate/taqvim/internal/domain"
)

var persianMonths = [12]string{
	"فروردین", "اردیبهشت", "خرداد",
	"تیر", "مرداد", "شهریور",
	"مهر", "آبان", "آذر",
	"دی", "بهمن", "اسفند",
}

var englishMonths = [12]string{
	"Farvardin", "Ordibehesht", "Khordad",
	"Tir", "Mordad", "Shahrivar",
	"Mehr", "Aban", "Azar",
	"Dey", "Bahman", "Esfand",
}

// Indexed by Persian week ordinal, Saturday first.
var persianWeekdays = [7]string{
	"شنبه", "یکشنبه", "دوشنبه", "سه‌شنبه", "چهارشنبه", "پنجشنبه", "جمعه",
}

var persianWeekdaysShort = [7]string{"ش", "ی", "د", "س", "چ", "پ", "ج"}

var englishWeekdaysShort = [7]string{"Sa", "Su", "Mo", "Tu", "We", "Th", "Fr"}

// MonthName returns the name of a Jalali month (1..12) in the given locale
func MonthName(month int, l domain.Locale) (string, error) {
	if err := validMonth(month); err != nil {
		return "", err
	}
	if l == domain.LocaleEN {
		return englishMonths[month-1], nil
	}
	return persianMonths[month-1], nil
}

// WeekdayName names a weekday using the locale's own convention
func WeekdayName(wd time.Weekday, l domain.Locale) string {
	if l == domain.LocaleEN {
		return wd.String()
	}
	return persianWeekdays[PersianWeekday(wd)]
}

// WeekdayHeaders returns short weekday labels for a Saturday-first grid row
func WeekdayHeaders(l domain.Locale) [7]string {
	if l == domain.LocaleEN {
		return englishWeekdaysShort
	}
	return persianWeekdaysShort
}

// PersianWeekday maps a Gregorian weekday (Sunday=0) to the Persian week
// ordinal (Saturday=0, Sunday=1, ..., Friday=6).
func PersianWeekday(wd time.Weekday) int {
	return (int(wd) + 1) % 7
}
