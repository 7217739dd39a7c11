// Package export renders catalog events as iCalendar files and Google
// Calendar links.
package export

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/tazhate/taqvim/internal/domain"
)

const (
	ProductID = "-//Taqvim//Persian Calendar//EN"

	uidSuffix         = "@taqvim"
	googleCalendarURL = "https://www.google.com/calendar/render"
	eventDuration     = time.Hour
)

// uidNamespace keeps UIDs stable across exports of the same occurrence
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://taqvim/events"))

var whitespace = regexp.MustCompile(`\s+`)

// Occurrence is a catalog event placed on a concrete Gregorian date
type Occurrence struct {
	Event  domain.CalendarEvent
	Start  time.Time
	AllDay bool
}

// UID returns a deterministic identifier for the occurrence
func (o Occurrence) UID() string {
	key := fmt.Sprintf("%s|%02d-%02d|%s", o.Start.Format("2006-01-02"), o.Event.Month, o.Event.Day, o.Event.TitleEn)
	return uuid.NewSHA1(uidNamespace, []byte(key)).String() + uidSuffix
}

// IsOwnUID reports whether uid was generated by Occurrence.UID
func IsOwnUID(uid string) bool {
	return strings.HasSuffix(uid, uidSuffix)
}

// NewCalendar creates an empty VCALENDAR with the product headers
func NewCalendar(name string) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	if name != "" {
		cal.Props.SetText("X-WR-CALNAME", name)
	}
	return cal
}

// NewEvent builds the VEVENT for an occurrence. Timed events last one hour.
func NewEvent(o Occurrence, stamp time.Time) *ical.Event {
	ev := o.Event

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, o.UID())
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	vevent.Props.SetText(ical.PropSummary, ev.FullTitle())

	if desc := joinNonEmpty(" / ", ev.Description, ev.DescriptionEn); desc != "" {
		vevent.Props.SetText(ical.PropDescription, desc)
	}
	if ev.Location != "" {
		vevent.Props.SetText(ical.PropLocation, ev.Location)
	}
	if ev.Coords != nil {
		geo := ical.NewProp(ical.PropGeo)
		geo.Value = fmt.Sprintf("%f;%f", ev.Coords.Lat, ev.Coords.Lng)
		vevent.Props.Set(geo)
	}
	vevent.Props.SetText(ical.PropCategories, string(ev.Type))

	if o.AllDay {
		day := time.Date(o.Start.Year(), o.Start.Month(), o.Start.Day(), 0, 0, 0, 0, time.UTC)
		vevent.Props.SetDate(ical.PropDateTimeStart, day)
		vevent.Props.SetDate(ical.PropDateTimeEnd, day.AddDate(0, 0, 1))
	} else {
		vevent.Props.SetDateTime(ical.PropDateTimeStart, o.Start.UTC())
		vevent.Props.SetDateTime(ical.PropDateTimeEnd, o.Start.Add(eventDuration).UTC())
	}

	return vevent
}

// EncodeICS writes a calendar with one VEVENT per occurrence
func EncodeICS(w io.Writer, name string, occs []Occurrence) error {
	cal := NewCalendar(name)
	stamp := time.Now()
	for _, o := range occs {
		cal.Children = append(cal.Children, NewEvent(o, stamp).Component)
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode ics: %w", err)
	}
	return nil
}

// Filename returns the download name for a single-event ICS file
func Filename(ev domain.CalendarEvent) string {
	return whitespace.ReplaceAllString(ev.TitleEn, "_") + ".ics"
}

// GoogleCalendarLink returns a "render?action=TEMPLATE" link for a one-hour event
func GoogleCalendarLink(ev domain.CalendarEvent, start time.Time) string {
	details := ev.Description + "\n\n" + ev.DescriptionEn + "\n\n" + ev.Narrative
	dates := googleTime(start) + "/" + googleTime(start.Add(eventDuration))

	return googleCalendarURL +
		"?action=TEMPLATE" +
		"&text=" + escape(ev.FullTitle()) +
		"&dates=" + dates +
		"&details=" + escape(details) +
		"&location=" + escape(ev.Location) +
		"&sf=true&output=xml"
}

func googleTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escape matches encodeURIComponent: spaces become %20, not '+'
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
