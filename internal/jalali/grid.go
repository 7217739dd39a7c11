package jalali

import (
	"time"

	"github.com/tazhate/taqvim/internal/domain"
)

// GridCells is the size of a 6-week month view
const GridCells = 42

// DayState is one cell of a month grid
type DayState struct {
	Date           time.Time              `json:"date"`
	Jalali         CalendarDate           `json:"jalali"`
	IsCurrentMonth bool                   `json:"is_current_month"`
	IsToday        bool                   `json:"is_today"`
	IsHoliday      bool                   `json:"is_holiday"`
	Events         []domain.CalendarEvent `json:"events,omitempty"`
}

// BuildMonthGrid lays out 42 consecutive days, Saturday first, covering
// the Jalali year/month. Cell names use the engine's locale.
//
// IsCurrentMonth compares the month number only. A cell from a different
// year with the same month number would also match; a 42-day window cannot
// contain one, so callers needing strict year matching compare Jalali.Year.
func (e *Engine) BuildMonthGrid(year, month int, today CalendarDate) ([]DayState, error) {
	return e.BuildMonthGridIn(year, month, today, e.locale)
}

// BuildMonthGridIn is BuildMonthGrid with cell names in locale l
func (e *Engine) BuildMonthGridIn(year, month int, today CalendarDate, l domain.Locale) ([]DayState, error) {
	first, err := e.FirstDayOfMonth(year, month)
	if err != nil {
		return nil, err
	}

	start := first.AddDate(0, 0, -PersianWeekday(first.Weekday()))

	cells := make([]DayState, 0, GridCells)
	for i := 0; i < GridCells; i++ {
		date := start.AddDate(0, 0, i)
		jd, err := e.ToJalali(date, l)
		if err != nil {
			return nil, err
		}

		var events []domain.CalendarEvent
		if e.events != nil {
			events = e.events.EventsOn(jd.Month, jd.Day)
		}

		holiday := date.Weekday() == e.restDay
		for i := range events {
			if events[i].IsHoliday() {
				holiday = true
				break
			}
		}

		cells = append(cells, DayState{
			Date:           date,
			Jalali:         jd,
			IsCurrentMonth: jd.Month == month,
			IsToday:        jd.SameDay(today),
			IsHoliday:      holiday,
			Events:         events,
		})
	}

	return cells, nil
}
