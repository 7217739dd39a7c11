package bot

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tazhate/taqvim/internal/domain"
	"github.com/tazhate/taqvim/internal/export"
	"github.com/tazhate/taqvim/internal/jalali"
	"github.com/tazhate/taqvim/internal/service"
)

// API Response types
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type TodayResponse struct {
	Day      service.DayView        `json:"day"`
	Upcoming []domain.CalendarEvent `json:"upcoming"`
}

type EventResponse struct {
	domain.CalendarEvent
	NextDate   string `json:"next_date,omitempty"`
	GoogleLink string `json:"google_link,omitempty"`
}

// Routes builds the HTTP handler: health, metrics, the Telegram webhook
// and, when credentials are configured, the REST API behind Basic Auth.
func (b *Bot) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if b.metrics != nil {
		mux.Handle("/metrics", b.metrics.Handler())
	}
	if b.api != nil {
		mux.HandleFunc("/bot", b.webhook)
	}

	if !b.cfg.APIEnabled() {
		return mux // API disabled if no credentials
	}

	b.route(mux, "/api/today", b.apiToday)
	b.route(mux, "/api/month", b.apiMonth)
	b.route(mux, "/api/events", b.apiEvents)
	b.route(mux, "/api/ics", b.apiICS)
	b.route(mux, "/api/insight", b.apiInsight)
	b.route(mux, "/api/sync", b.apiSync)
	b.route(mux, "/api/calendars", b.apiCalendars)

	return mux
}

func (b *Bot) route(mux *http.ServeMux, path string, h http.HandlerFunc) {
	handler := b.basicAuth(h)
	if b.metrics != nil {
		handler = b.metrics.Wrap(path, handler)
	}
	mux.HandleFunc(path, handler)
}

// basicAuth middleware
func (b *Bot) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || username != b.cfg.APIUsername || password != b.cfg.APIPassword {
			w.Header().Set("WWW-Authenticate", `Basic realm="Taqvim API"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (b *Bot) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(APIResponse{Success: true, Data: data})
}

func (b *Bot) jsonError(w http.ResponseWriter, err string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{Success: false, Error: err})
}

// calendarError maps engine errors to 400 and anything else to 500
func (b *Bot) calendarError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, jalali.ErrInvalidMonth), errors.Is(err, jalali.ErrInvalidDay), errors.Is(err, jalali.ErrOutOfRange):
		b.jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		b.log.Errorw("API calendar error", "error", err)
		b.jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (b *Bot) requestLocale(r *http.Request) domain.Locale {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return domain.ParseLocale(lang)
	}
	return b.cfg.Locale
}

// queryInt reads an optional integer parameter, returning def when absent
func queryInt(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return v, nil
}

// queryDate reads year/month/day, defaulting each to today's Jalali date
func (b *Bot) queryDate(r *http.Request, today jalali.CalendarDate) (year, month, day int, err error) {
	if year, err = queryInt(r, "year", today.Year); err != nil {
		return
	}
	if month, err = queryInt(r, "month", today.Month); err != nil {
		return
	}
	day, err = queryInt(r, "day", today.Day)
	return
}

// GET /api/today
func (b *Bot) apiToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	l := b.requestLocale(r)

	v, err := b.calendarService.Today(b.calendarService.Now(), l)
	if err != nil {
		b.calendarError(w, err)
		return
	}

	b.jsonResponse(w, TodayResponse{
		Day:      v,
		Upcoming: b.calendarService.Upcoming(v.Date, upcomingCount),
	})
}

// GET /api/month?year=&month=
func (b *Bot) apiMonth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	l := b.requestLocale(r)
	now := b.calendarService.Now()

	today, err := b.calendarService.Today(now, l)
	if err != nil {
		b.calendarError(w, err)
		return
	}
	year, month, _, err := b.queryDate(r, today.Date)
	if err != nil {
		b.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	v, err := b.calendarService.Month(year, month, now, l)
	if err != nil {
		b.calendarError(w, err)
		return
	}
	b.jsonResponse(w, v)
}

// GET /api/events?month=
func (b *Bot) apiEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	month, err := queryInt(r, "month", 0)
	if err != nil {
		b.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	catalog := b.calendarService.Catalog()
	evs := catalog.All()
	if month != 0 {
		if month < 1 || month > 12 {
			b.jsonError(w, "month must be between 1 and 12", http.StatusBadRequest)
			return
		}
		evs = catalog.InMonth(month)
	}

	now := b.calendarService.Now()
	resp := make([]EventResponse, 0, len(evs))
	for _, ev := range evs {
		item := EventResponse{CalendarEvent: ev}
		if occ, err := b.calendarService.NextOccurrence(ev, now); err == nil {
			item.NextDate = occ.Start.Format("2006-01-02")
			item.GoogleLink = export.GoogleCalendarLink(ev, occ.Start)
		}
		resp = append(resp, item)
	}
	b.jsonResponse(w, resp)
}

// GET /api/ics?month=&day=[&year=] - events of a Jalali day as text/calendar
func (b *Bot) apiICS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	month, err1 := queryInt(r, "month", 0)
	day, err2 := queryInt(r, "day", 0)
	year, err3 := queryInt(r, "year", 0)
	if err := errors.Join(err1, err2, err3); err != nil {
		b.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if month == 0 || day == 0 {
		b.jsonError(w, "month and day are required", http.StatusBadRequest)
		return
	}

	evs := b.calendarService.Catalog().EventsOn(month, day)
	if len(evs) == 0 {
		b.jsonError(w, "no events on that day", http.StatusNotFound)
		return
	}

	f, err := b.buildICS(evs, year, b.requestLocale(r))
	if err != nil {
		b.calendarError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.name))
	w.Write(f.data.Bytes())
}

// GET /api/insight?year=&month=&day=[&lat=&lng=&destination=]
func (b *Bot) apiInsight(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !b.insightService.IsConfigured() {
		b.jsonError(w, service.ErrInsightDisabled.Error(), http.StatusServiceUnavailable)
		return
	}
	l := b.requestLocale(r)

	today, err := b.calendarService.Today(b.calendarService.Now(), l)
	if err != nil {
		b.calendarError(w, err)
		return
	}
	year, month, day, err := b.queryDate(r, today.Date)
	if err != nil {
		b.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	v, err := b.calendarService.Day(year, month, day, l)
	if err != nil {
		b.calendarError(w, err)
		return
	}

	req := service.InsightRequest{
		Date:        v.Date,
		Gregorian:   v.Gregorian,
		Destination: r.URL.Query().Get("destination"),
	}
	q := r.URL.Query()
	if q.Get("lat") != "" && q.Get("lng") != "" {
		lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
		lng, err2 := strconv.ParseFloat(q.Get("lng"), 64)
		if err1 != nil || err2 != nil {
			b.jsonError(w, "lat and lng must be numbers", http.StatusBadRequest)
			return
		}
		req.UserLocation = &domain.LatLng{Lat: lat, Lng: lng}
	}

	ins, err := b.insightService.DailyInsight(r.Context(), req)
	if err != nil {
		b.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	b.jsonResponse(w, ins)
}

// POST /api/sync?year= - push the catalog for a Jalali year to CalDAV
func (b *Bot) apiSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if b.syncService == nil || !b.syncService.IsConfigured() {
		b.jsonError(w, service.ErrSyncDisabled.Error(), http.StatusServiceUnavailable)
		return
	}

	today, err := b.calendarService.Today(b.calendarService.Now(), b.cfg.Locale)
	if err != nil {
		b.calendarError(w, err)
		return
	}
	year, err := queryInt(r, "year", today.Date.Year)
	if err != nil {
		b.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := b.syncService.SyncYear(r.Context(), year)
	if err != nil {
		b.jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	b.jsonResponse(w, result)
}

// GET /api/calendars - calendars of the CalDAV account, to pick CALDAV_CALENDAR
func (b *Bot) apiCalendars(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if b.syncService == nil {
		b.jsonError(w, service.ErrDiscoveryDisabled.Error(), http.StatusServiceUnavailable)
		return
	}

	cals, err := b.syncService.Calendars(r.Context())
	switch {
	case errors.Is(err, service.ErrDiscoveryDisabled):
		b.jsonError(w, err.Error(), http.StatusServiceUnavailable)
	case err != nil:
		b.log.Errorw("Calendar discovery failed", "error", err)
		b.jsonError(w, err.Error(), http.StatusBadGateway)
	default:
		b.jsonResponse(w, cals)
	}
}
