package export

import (
	"bytes"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhate/taqvim/internal/domain"
	"github.com/tazhate/taqvim/internal/events"
)

func christmas(t *testing.T) domain.CalendarEvent {
	ev, ok := events.Default().Find("Christmas Day (Western)")
	require.True(t, ok)
	return ev
}

func TestEncodeICS(t *testing.T) {
	ev := christmas(t)
	start := time.Date(2024, time.December, 24, 9, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, EncodeICS(&buf, "Taqvim", []Occurrence{{Event: ev, Start: start}}))

	body := buf.String()
	for _, field := range []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + ProductID,
		"BEGIN:VEVENT",
		"DTSTART:20241224T090000Z",
		"DTEND:20241224T100000Z",
		"END:VEVENT",
		"END:VCALENDAR",
	} {
		assert.Contains(t, body, field)
	}

	cal, err := ical.NewDecoder(strings.NewReader(body)).Decode()
	require.NoError(t, err)
	evs := cal.Events()
	require.Len(t, evs, 1)

	summary, err := evs[0].Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "میلاد حضرت مسیح (غربی) | Christmas Day (Western)", summary)

	loc, err := evs[0].Props.Text(ical.PropLocation)
	require.NoError(t, err)
	assert.Equal(t, ev.Location, loc)

	desc, err := evs[0].Props.Text(ical.PropDescription)
	require.NoError(t, err)
	assert.Equal(t, ev.Description+" / "+ev.DescriptionEn, desc)

	assert.Equal(t, "35.703600;51.415000", evs[0].Props.Get(ical.PropGeo).Value)
}

func TestEncodeICSAllDay(t *testing.T) {
	ev := domain.CalendarEvent{Month: 1, Day: 1, Title: "نوروز", TitleEn: "Nowruz", Type: domain.EventCultural}
	start := time.Date(2025, time.March, 21, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, EncodeICS(&buf, "", []Occurrence{{Event: ev, Start: start, AllDay: true}}))

	body := buf.String()
	assert.Contains(t, body, "DTSTART;VALUE=DATE:20250321")
	assert.Contains(t, body, "DTEND;VALUE=DATE:20250322")
	assert.NotContains(t, body, "LOCATION")
}

func TestUIDIsStable(t *testing.T) {
	ev := christmas(t)
	start := time.Date(2024, time.December, 24, 9, 0, 0, 0, time.UTC)

	a := Occurrence{Event: ev, Start: start}.UID()
	b := Occurrence{Event: ev, Start: start.Add(3 * time.Hour)}.UID()
	c := Occurrence{Event: ev, Start: start.AddDate(1, 0, 0)}.UID()

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasSuffix(a, "@taqvim"))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Feast_of_St._Thaddeus.ics", Filename(domain.CalendarEvent{TitleEn: "Feast of  St. Thaddeus"}))
}

func TestGoogleCalendarLink(t *testing.T) {
	ev := christmas(t)
	start := time.Date(2024, time.December, 24, 9, 0, 0, 0, time.UTC)

	link := GoogleCalendarLink(ev, start)
	assert.True(t, strings.HasPrefix(link, "https://www.google.com/calendar/render?action=TEMPLATE&text="))
	assert.NotContains(t, link, "+")

	u, err := url.Parse(link)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "20241224T090000Z/20241224T100000Z", q.Get("dates"))
	assert.Equal(t, ev.FullTitle(), q.Get("text"))
	assert.Equal(t, ev.Description+"\n\n"+ev.DescriptionEn+"\n\n"+ev.Narrative, q.Get("details"))
	assert.Equal(t, ev.Location, q.Get("location"))
	assert.Equal(t, "xml", q.Get("output"))
}
