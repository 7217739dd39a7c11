package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tazhate/taqvim/internal/domain"
	"github.com/tazhate/taqvim/internal/events"
	"github.com/tazhate/taqvim/internal/export"
	"github.com/tazhate/taqvim/internal/jalali"
)

// CalendarService answers date questions for the bot, the API and the scheduler
type CalendarService struct {
	engine   *jalali.Engine
	catalog  *events.Catalog
	timezone *time.Location
}

// NewCalendarService creates a new calendar service
func NewCalendarService(engine *jalali.Engine, catalog *events.Catalog, tz *time.Location) *CalendarService {
	if tz == nil {
		tz = time.UTC
	}
	return &CalendarService{
		engine:   engine,
		catalog:  catalog,
		timezone: tz,
	}
}

// DayView is a single Jalali day with its catalog events
type DayView struct {
	Date      jalali.CalendarDate    `json:"date"`
	Gregorian time.Time              `json:"gregorian"`
	Season    jalali.Season          `json:"season"`
	Holiday   bool                   `json:"holiday"`
	Events    []domain.CalendarEvent `json:"events"`
}

// MonthView is a 42-cell month grid plus header data
type MonthView struct {
	Year      int                    `json:"year"`
	Month     int                    `json:"month"`
	MonthName string                 `json:"month_name"`
	Season    jalali.Season          `json:"season"`
	Headers   [7]string              `json:"headers"`
	Cells     []jalali.DayState      `json:"cells"`
	Events    []domain.CalendarEvent `json:"events"`
}

// Now returns the current time in the configured timezone
func (s *CalendarService) Now() time.Time {
	return time.Now().In(s.timezone)
}

// Location returns the configured timezone
func (s *CalendarService) Location() *time.Location {
	return s.timezone
}

// Catalog returns the event catalog
func (s *CalendarService) Catalog() *events.Catalog {
	return s.catalog
}

// Today returns the day view for now
func (s *CalendarService) Today(now time.Time, l domain.Locale) (DayView, error) {
	return s.dayView(now.In(s.timezone), l)
}

// Day returns the day view for a Jalali date
func (s *CalendarService) Day(year, month, day int, l domain.Locale) (DayView, error) {
	date, err := s.engine.DateOf(year, month, day)
	if err != nil {
		return DayView{}, err
	}
	return s.dayView(date, l)
}

func (s *CalendarService) dayView(t time.Time, l domain.Locale) (DayView, error) {
	jd, err := s.engine.ToJalali(t, l)
	if err != nil {
		return DayView{}, err
	}

	evs := s.catalog.EventsOn(jd.Month, jd.Day)
	holiday := t.Weekday() == s.engine.RestDay()
	for i := range evs {
		if evs[i].IsHoliday() {
			holiday = true
		}
	}

	return DayView{
		Date:      jd,
		Gregorian: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.timezone),
		Season:    jd.Season(),
		Holiday:   holiday,
		Events:    evs,
	}, nil
}

// Month builds the grid for a Jalali year/month, marking today's cell
func (s *CalendarService) Month(year, month int, now time.Time, l domain.Locale) (MonthView, error) {
	name, err := jalali.MonthName(month, l)
	if err != nil {
		return MonthView{}, err
	}
	// month was validated by MonthName
	season, _ := jalali.SeasonOf(month)

	today, err := s.engine.ToJalali(now.In(s.timezone), l)
	if err != nil {
		return MonthView{}, err
	}

	cells, err := s.engine.BuildMonthGridIn(year, month, today, l)
	if err != nil {
		return MonthView{}, fmt.Errorf("build grid %d/%02d: %w", year, month, err)
	}

	return MonthView{
		Year:      year,
		Month:     month,
		MonthName: name,
		Season:    season,
		Headers:   jalali.WeekdayHeaders(l),
		Cells:     cells,
		Events:    s.catalog.InMonth(month),
	}, nil
}

// Upcoming returns the next n catalog events strictly after date
func (s *CalendarService) Upcoming(date jalali.CalendarDate, n int) []domain.CalendarEvent {
	return s.catalog.Upcoming(date.Month, date.Day+1, n)
}

// Occurrence places a catalog event in a Jalali year. Timed occurrences
// start at local midnight.
func (s *CalendarService) Occurrence(year int, ev domain.CalendarEvent, allDay bool) (export.Occurrence, error) {
	date, err := s.engine.DateOf(year, ev.Month, ev.Day)
	if err != nil {
		return export.Occurrence{}, err
	}
	return export.Occurrence{
		Event:  ev,
		Start:  time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.timezone),
		AllDay: allDay,
	}, nil
}

// NextOccurrence places ev in the current Jalali year, or the next one
// if its day has already passed.
func (s *CalendarService) NextOccurrence(ev domain.CalendarEvent, now time.Time) (export.Occurrence, error) {
	today, err := s.engine.ToJalali(now.In(s.timezone), s.engine.Locale())
	if err != nil {
		return export.Occurrence{}, err
	}

	year := today.Year
	if ev.Month < today.Month || (ev.Month == today.Month && ev.Day < today.Day) {
		year++
	}

	occ, err := s.Occurrence(year, ev, false)
	if errors.Is(err, jalali.ErrInvalidDay) {
		// Esfand 30 exists only in leap years
		for y := year + 1; y <= year+4; y++ {
			if occ, err = s.Occurrence(y, ev, false); err == nil {
				break
			}
		}
	}
	return occ, err
}

// YearOccurrences places every catalog event in a Jalali year. Events on
// days the year lacks are returned in skipped.
func (s *CalendarService) YearOccurrences(year int, allDay bool) ([]export.Occurrence, []domain.CalendarEvent, error) {
	var (
		occs    []export.Occurrence
		skipped []domain.CalendarEvent
	)
	for _, ev := range s.catalog.All() {
		occ, err := s.Occurrence(year, ev, allDay)
		if errors.Is(err, jalali.ErrInvalidDay) {
			skipped = append(skipped, ev)
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("place %s in %d: %w", ev.TitleEn, year, err)
		}
		occs = append(occs, occ)
	}
	return occs, skipped, nil
}

// FormatDay formats a day view for display
func (s *CalendarService) FormatDay(v DayView, l domain.Locale) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📅 %s %d %s %d\n", v.Date.DayName, v.Date.Day, v.Date.MonthName, v.Date.Year))
	sb.WriteString(fmt.Sprintf("🗓 %s\n", v.Gregorian.Format("Monday, 2 January 2006")))
	sb.WriteString(fmt.Sprintf("%s %s", v.Season.Emoji(), v.Season.Name(l)))
	if v.Holiday {
		if l == domain.LocaleEN {
			sb.WriteString(" · holiday")
		} else {
			sb.WriteString(" · تعطیل")
		}
	}
	sb.WriteString("\n")

	if len(v.Events) > 0 {
		sb.WriteString("\n")
		sb.WriteString(s.FormatEventList(v.Events, l))
	}

	return sb.String()
}

// FormatEventList formats events for display, one block per event
func (s *CalendarService) FormatEventList(evs []domain.CalendarEvent, l domain.Locale) string {
	if len(evs) == 0 {
		if l == domain.LocaleEN {
			return "No events"
		}
		return "رویدادی نیست"
	}

	var sb strings.Builder
	for i, ev := range evs {
		if i > 0 {
			sb.WriteString("\n")
		}
		month, _ := jalali.MonthName(ev.Month, l)
		sb.WriteString(fmt.Sprintf("%s %s (%d %s)\n", ev.TypeEmoji(), ev.LocalTitle(l), ev.Day, month))
		if desc := ev.LocalDescription(l); desc != "" {
			sb.WriteString(desc + "\n")
		}
		if loc := ev.LocalLocation(l); loc != "" {
			sb.WriteString("📍 " + loc + "\n")
		}
	}
	return sb.String()
}

// FormatUpcoming formats a short list of upcoming events
func (s *CalendarService) FormatUpcoming(evs []domain.CalendarEvent, l domain.Locale) string {
	if len(evs) == 0 {
		return ""
	}

	var sb strings.Builder
	if l == domain.LocaleEN {
		sb.WriteString("⏭ Upcoming:\n")
	} else {
		sb.WriteString("⏭ رویدادهای پیش رو:\n")
	}
	for _, ev := range evs {
		month, _ := jalali.MonthName(ev.Month, l)
		sb.WriteString(fmt.Sprintf("• %d %s · %s\n", ev.Day, month, ev.LocalTitle(l)))
	}
	return sb.String()
}

// FormatMonthTitle returns the header line of a month view
func (s *CalendarService) FormatMonthTitle(v MonthView, l domain.Locale) string {
	return fmt.Sprintf("%s %s %d · %s", v.Season.Emoji(), v.MonthName, v.Year, v.Season.Name(l))
}
