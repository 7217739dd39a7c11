package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhate/taqvim/config"
	"github.com/tazhate/taqvim/internal/clients/caldav"
	"github.com/tazhate/taqvim/internal/clients/gemini"
	"github.com/tazhate/taqvim/internal/domain"
	"github.com/tazhate/taqvim/internal/events"
	"github.com/tazhate/taqvim/internal/export"
	"github.com/tazhate/taqvim/internal/jalali"
	"github.com/tazhate/taqvim/internal/logger"
	"github.com/tazhate/taqvim/internal/metrics"
	"github.com/tazhate/taqvim/internal/service"
)

var tehran = time.FixedZone("IRST", 3*3600+1800)

type stubGenerator struct{}

func (stubGenerator) GenerateContent(_ context.Context, req *gemini.GenerateRequest) (*gemini.GenerateResponse, error) {
	text := "[FA_INSIGHT]: بینش [EN_INSIGHT]: Insight [FA_PRAYER]: دعا [EN_PRAYER]: Prayer"
	if req.ToolConfig != nil {
		text += " [EN_TRAFFIC]: Take the metro"
	}
	return &gemini.GenerateResponse{
		Candidates: []gemini.Candidate{{Content: gemini.Content{Parts: []gemini.Part{{Text: text}}}}},
	}, nil
}

type memoryCalendar struct {
	mu   sync.Mutex
	puts map[string]bool
}

func (m *memoryCalendar) IsConfigured() bool { return true }

func (m *memoryCalendar) PutOccurrence(_ context.Context, o export.Occurrence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts[o.UID()] = true
	return nil
}

func (m *memoryCalendar) DeleteOccurrence(context.Context, string) error { return nil }

func (m *memoryCalendar) ListUIDs(context.Context, time.Time, time.Time) ([]string, error) {
	return nil, nil
}

type testBot struct {
	*Bot
	handler http.Handler
}

func newTestBot(t *testing.T, withInsight bool) testBot {
	t.Helper()

	cfg := &config.Config{
		OwnerTelegramID: 1,
		Timezone:        tehran,
		Locale:          domain.LocaleFA,
		APIUsername:     "admin",
		APIPassword:     "secret",
	}

	catalog := events.Default()
	engine := jalali.New(nil, jalali.WithEvents(catalog))
	log := logger.Nop()
	m := metrics.New()

	calendarSvc := service.NewCalendarService(engine, catalog, tehran)
	var gen service.ContentGenerator
	if withInsight {
		gen = stubGenerator{}
	}
	insightSvc := service.NewInsightService(gen, m, log)
	syncSvc := service.NewSyncService(calendarSvc, &memoryCalendar{puts: map[string]bool{}}, log)

	b := newBot(cfg, calendarSvc, insightSvc, syncSvc, m, log)
	return testBot{Bot: b, handler: b.Routes()}
}

func (tb testBot) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.SetBasicAuth("admin", "secret")
	w := httptest.NewRecorder()
	tb.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) APIResponse {
	t.Helper()
	resp := APIResponse{Data: data}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	tb := newTestBot(t, false)
	w := httptest.NewRecorder()
	tb.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestBasicAuth(t *testing.T) {
	tb := newTestBot(t, false)

	w := httptest.NewRecorder()
	tb.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/today", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Taqvim API")

	req := httptest.NewRequest(http.MethodGet, "/api/today", nil)
	req.SetBasicAuth("admin", "wrong")
	w = httptest.NewRecorder()
	tb.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPIDisabledWithoutCredentials(t *testing.T) {
	tb := newTestBot(t, false)
	tb.cfg.APIUsername = ""
	handler := tb.Routes()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/today", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIToday(t *testing.T) {
	tb := newTestBot(t, false)

	w := tb.do(t, http.MethodGet, "/api/today?lang=en")
	require.Equal(t, http.StatusOK, w.Code)

	var today TodayResponse
	resp := decode(t, w, &today)
	assert.True(t, resp.Success)
	assert.NotZero(t, today.Day.Date.Year)
	assert.NotEmpty(t, today.Day.Date.MonthName)
	assert.Len(t, today.Upcoming, upcomingCount)

	w = tb.do(t, http.MethodPost, "/api/today")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestAPIMonth(t *testing.T) {
	tb := newTestBot(t, false)

	w := tb.do(t, http.MethodGet, "/api/month?year=1403&month=10&lang=en")
	require.Equal(t, http.StatusOK, w.Code)

	var month service.MonthView
	decode(t, w, &month)
	assert.Equal(t, "Dey", month.MonthName)
	assert.Equal(t, jalali.Winter, month.Season)
	require.Len(t, month.Cells, jalali.GridCells)
	assert.Equal(t, 1, month.Cells[0].Jalali.Day)
	assert.Equal(t, "Dey", month.Cells[0].Jalali.MonthName)
	assert.Equal(t, "Saturday", month.Cells[0].Jalali.DayName)
	assert.True(t, month.Cells[3].IsHoliday)

	w = tb.do(t, http.MethodGet, "/api/month?year=1403&month=13")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tb.do(t, http.MethodGet, "/api/month?year=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIEvents(t *testing.T) {
	tb := newTestBot(t, false)

	w := tb.do(t, http.MethodGet, "/api/events")
	require.Equal(t, http.StatusOK, w.Code)
	var all []EventResponse
	decode(t, w, &all)
	assert.Len(t, all, 9)

	w = tb.do(t, http.MethodGet, "/api/events?month=10")
	require.Equal(t, http.StatusOK, w.Code)
	var dey []EventResponse
	decode(t, w, &dey)
	require.Len(t, dey, 1)
	assert.Equal(t, "Christmas Day (Western)", dey[0].TitleEn)
	assert.Contains(t, dey[0].GoogleLink, "https://www.google.com/calendar/render?action=TEMPLATE")
	assert.NotEmpty(t, dey[0].NextDate)

	w = tb.do(t, http.MethodGet, "/api/events?month=13")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIICS(t *testing.T) {
	tb := newTestBot(t, false)

	w := tb.do(t, http.MethodGet, "/api/ics?month=9&day=30&year=1403")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Yalda_Night.ics"`, w.Header().Get("Content-Disposition"))

	body := w.Body.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "DTSTART:20241219T203000Z")
	assert.Contains(t, body, "Yalda Night")

	w = tb.do(t, http.MethodGet, "/api/ics?month=4&day=10&year=1403")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="taqvim-04-10.ics"`, w.Header().Get("Content-Disposition"))

	w = tb.do(t, http.MethodGet, "/api/ics?month=2&day=2")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = tb.do(t, http.MethodGet, "/api/ics?month=9")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIInsight(t *testing.T) {
	tb := newTestBot(t, true)

	w := tb.do(t, http.MethodGet, "/api/insight?year=1403&month=10&day=4")
	require.Equal(t, http.StatusOK, w.Code)
	var ins domain.Insight
	decode(t, w, &ins)
	assert.Equal(t, "Insight", ins.Insight.EN)
	assert.Equal(t, "Prayer", ins.Prayer.EN)
	assert.Empty(t, ins.Traffic.EN)

	w = tb.do(t, http.MethodGet, "/api/insight?year=1403&month=10&day=4&lat=35.7&lng=51.4&destination=Sarkis")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &ins)
	assert.Equal(t, "Take the metro", ins.Traffic.EN)

	w = tb.do(t, http.MethodGet, "/api/insight?year=1404&month=12&day=30")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tb.do(t, http.MethodGet, "/api/insight?lat=north&lng=51.4")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIInsightDisabled(t *testing.T) {
	tb := newTestBot(t, false)

	w := tb.do(t, http.MethodGet, "/api/insight")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAPISync(t *testing.T) {
	tb := newTestBot(t, false)

	w := tb.do(t, http.MethodPost, "/api/sync?year=1403")
	require.Equal(t, http.StatusOK, w.Code)
	var res service.SyncResult
	decode(t, w, &res)
	assert.Equal(t, 1403, res.Year)
	assert.Equal(t, 9, res.Pushed)

	w = tb.do(t, http.MethodGet, "/api/sync")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

type staticDirectory []caldav.Calendar

func (d staticDirectory) DiscoverCalendars(context.Context) ([]caldav.Calendar, error) {
	return d, nil
}

func TestAPICalendars(t *testing.T) {
	tb := newTestBot(t, false)

	w := tb.do(t, http.MethodGet, "/api/calendars")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	tb.syncService.SetDirectory(staticDirectory{
		{Path: "/calendars/admin/home/", DisplayName: "Home"},
		{Path: "/calendars/admin/persian/", DisplayName: "Persian", Description: "Taqvim"},
	})

	w = tb.do(t, http.MethodGet, "/api/calendars")
	require.Equal(t, http.StatusOK, w.Code)
	var cals []caldav.Calendar
	decode(t, w, &cals)
	require.Len(t, cals, 2)
	assert.Equal(t, "/calendars/admin/persian/", cals[1].Path)
	assert.Contains(t, w.Body.String(), `"display_name":"Persian"`)

	w = tb.do(t, http.MethodPost, "/api/calendars")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	tb := newTestBot(t, false)
	tb.do(t, http.MethodGet, "/api/month?year=1403&month=1")

	w := httptest.NewRecorder()
	tb.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="/api/month",status="200"} 1`)
}
